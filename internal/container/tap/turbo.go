package tap

import (
	"bytes"
	"slices"
)

// common opcodes of 6502 code, used to score turbo loader decoding candidates.
var commonOpcodes = [256]bool{
	0xA9: true, 0xA2: true, 0xA0: true, 0xAD: true, 0xA5: true, 0xBD: true, 0xB9: true, 0xB1: true,
	0x8D: true, 0x85: true, 0x9D: true, 0x99: true, 0x91: true,
	0x20: true, 0x4C: true, 0x60: true,
	0xD0: true, 0xF0: true, 0x90: true, 0xB0: true, 0x10: true, 0x30: true,
	0xE8: true, 0xC8: true, 0xCA: true, 0x88: true,
	0x18: true, 0x38: true, 0x69: true, 0xE9: true, 0xC9: true, 0x29: true, 0x09: true,
	0x78: true, 0x58: true, 0xEE: true, 0xCE: true,
}

const (
	minTurboBytes = 16
	basicBonus    = 0.25
)

type turboCandidate struct {
	data  []byte
	score float64
}

// decodeTurbo decodes tapes written by custom loaders that encode one bit per
// pulse. The threshold between short and long pulses is the midpoint of the
// observed pulse lengths. All combinations of bit polarity, bit order and bit
// alignment are decoded and scored by the density of common opcodes and by the
// presence of a BASIC SYS line. This is a heuristic that can mis-classify
// unusual tapes.
func decodeTurbo(pulses []int) (File, bool) {
	var data []int
	for _, p := range pulses {
		if p < maxLongCycles*2 {
			data = append(data, p)
		}
	}
	if len(data) < minTurboBytes*8 {
		return File{}, false
	}

	sorted := slices.Clone(data)
	slices.Sort(sorted)
	low := sorted[len(sorted)/10]
	high := sorted[len(sorted)*9/10]
	if high-low < 16 {
		return File{}, false
	}
	threshold := (low + high) / 2

	var best turboCandidate
	for _, inverted := range []bool{false, true} {
		bits := make([]byte, len(data))
		for i, p := range data {
			if (p > threshold) != inverted {
				bits[i] = 1
			}
		}

		for _, msbFirst := range []bool{false, true} {
			for alignment := range 8 {
				candidate := assembleBytes(bits[alignment:], msbFirst)
				c := turboCandidate{data: candidate, score: scoreCandidate(candidate)}
				if c.score > best.score {
					best = c
				}
			}
		}
	}

	if best.data == nil {
		return File{}, false
	}
	return File{
		Name:  "TURBO",
		Data:  best.data,
		Turbo: true,
	}, true
}

func assembleBytes(bits []byte, msbFirst bool) []byte {
	result := make([]byte, 0, len(bits)/8)
	for i := 0; i+8 <= len(bits); i += 8 {
		var value byte
		for bit := range 8 {
			if bits[i+bit] == 0 {
				continue
			}
			if msbFirst {
				value |= 0x80 >> bit
			} else {
				value |= 1 << bit
			}
		}
		result = append(result, value)
	}
	return result
}

func scoreCandidate(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	common := 0
	for _, b := range data {
		if commonOpcodes[b] {
			common++
		}
	}
	score := float64(common) / float64(len(data))
	if hasBasicSysLine(data) {
		score += basicBonus
	}
	return score
}

// hasBasicSysLine searches for a SYS token followed by a decimal address.
func hasBasicSysLine(data []byte) bool {
	for i := 0; ; {
		j := bytes.IndexByte(data[i:], 0x9E)
		if j < 0 {
			return false
		}
		i += j + 1
		digits := 0
		for k := i; k < len(data) && data[k] >= '0' && data[k] <= '9'; k++ {
			digits++
		}
		if digits >= 4 && digits <= 5 {
			return true
		}
	}
}

package verification

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"unicode"

	"github.com/retroenv/retroworkbench/internal/arch/m6502"
	"github.com/retroenv/retroworkbench/internal/assembler"
	"github.com/retroenv/retroworkbench/internal/petscii"
	"github.com/retroenv/retroworkbench/internal/program"
)

const maxPasses = 5

var (
	ErrSyntax          = errors.New("syntax error")
	ErrUnknownSymbol   = errors.New("unknown symbol")
	ErrUnstableSymbols = errors.New("symbol values do not settle")
)

// ReadFileFunc returns the content of a file that a binary include directive references.
type ReadFileFunc func(name string) ([]byte, error)

// Image is the result of reassembling a source file.
type Image struct {
	Origin uint16
	Data   []byte
	Types  []program.BlockType // Code for instruction bytes, ExternalFile for includes, DataByte otherwise
}

// Parser reassembles source code that was generated for a dialect. It
// supports the subset of the dialect syntax that the writer emits.
type Parser struct {
	dialect  *assembler.Dialect
	illegal  bool
	readFile ReadFileFunc

	headers     map[string]struct{}
	scopeOpen   map[string]struct{}
	scopeClose  map[string]struct{}
	includeName string
}

// NewParser returns a parser for source code of the dialect.
func NewParser(dialect *assembler.Dialect, illegal bool, readFile ReadFileFunc) *Parser {
	p := &Parser{
		dialect:     dialect,
		illegal:     illegal,
		readFile:    readFile,
		headers:     map[string]struct{}{},
		scopeOpen:   map[string]struct{}{},
		scopeClose:  map[string]struct{}{},
		includeName: strings.TrimSpace(strings.Split(dialect.BinaryInclude, "%s")[0]),
	}
	for _, line := range assembler.New(dialect).HeaderLines(true) {
		p.headers[line] = struct{}{}
	}
	for _, line := range dialect.Screencode.Open {
		p.scopeOpen[line] = struct{}{}
	}
	for _, line := range dialect.Screencode.Close {
		p.scopeClose[line] = struct{}{}
	}
	return p
}

// Parse assembles the source. Passes are repeated until all symbols are
// resolved and their values do not change anymore.
func (p *Parser) Parse(source string) (*Image, error) {
	lines := strings.Split(source, "\n")
	symbols := map[string]int{}

	for range maxPasses {
		ps := &pass{
			Parser:   p,
			previous: symbols,
			symbols:  map[string]int{},
			missing:  map[string]int{},
		}
		if err := ps.run(lines); err != nil {
			return nil, err
		}
		for name, line := range ps.missing {
			if _, ok := ps.symbols[name]; !ok {
				return nil, fmt.Errorf("%w: line %d: '%s'", ErrUnknownSymbol, line, name)
			}
		}

		if len(ps.missing) == 0 && maps.Equal(symbols, ps.symbols) {
			if ps.branchErr != nil {
				return nil, ps.branchErr
			}
			return &Image{
				Origin: ps.origin,
				Data:   ps.data,
				Types:  ps.types,
			}, nil
		}
		symbols = ps.symbols
	}
	return nil, ErrUnstableSymbols
}

// pass is a single assembly pass over all lines.
type pass struct {
	*Parser

	previous  map[string]int // symbols of the previous pass
	symbols   map[string]int
	missing   map[string]int // symbols without value, mapped to the line of the first use
	branchErr error

	origin    uint16
	hasOrigin bool
	screen    bool
	data      []byte
	types     []program.BlockType
	line      int
}

func (ps *pass) errorf(err error, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", err, ps.line, fmt.Sprintf(format, args...))
}

func (ps *pass) pc() int {
	return int(ps.origin) + len(ps.data)
}

func (ps *pass) run(lines []string) error {
	for i, line := range lines {
		ps.line = i + 1
		line = strings.TrimRightFunc(ps.stripComment(line), unicode.IsSpace)
		if line == "" {
			continue
		}

		if !unicode.IsSpace(rune(line[0])) {
			statement, err := ps.columnZero(line)
			if err != nil {
				return err
			}
			line = statement
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := ps.statement(line); err != nil {
			return err
		}
	}
	return nil
}

// stripComment removes a comment that is not inside a quoted string.
func (ps *pass) stripComment(line string) string {
	prefix := ps.dialect.CommentPrefix
	inQuote := false
	for i := 0; i < len(line); i++ {
		if line[i] == '"' {
			inQuote = !inQuote
			continue
		}
		if !inQuote && strings.HasPrefix(line[i:], prefix) {
			return line[:i]
		}
	}
	return line
}

// columnZero handles origin, symbol assignments, header lines and label
// definitions. It returns the remaining statement of the line.
func (ps *pass) columnZero(line string) (string, error) {
	var origin uint16
	if n, err := fmt.Sscanf(line, ps.dialect.OriginFormat, &origin); err == nil && n == 1 {
		if ps.hasOrigin {
			return "", ps.errorf(ErrSyntax, "multiple origins")
		}
		ps.origin = origin
		ps.hasOrigin = true
		return "", nil
	}

	fields := strings.Fields(line)
	if len(fields) > 0 && fields[0] == ".label" {
		fields = fields[1:]
	}
	if len(fields) >= 3 && fields[1] == "=" {
		return "", ps.assignment(fields[0], strings.Join(fields[2:], ""))
	}

	if line[0] == '.' || line[0] == '!' {
		return line, nil
	}

	name := strings.TrimSuffix(fields[0], ps.dialect.LabelSuffix)
	if err := ps.define(name, ps.pc()); err != nil {
		return "", err
	}
	return strings.TrimPrefix(line, fields[0]), nil
}

func (ps *pass) assignment(name, expression string) error {
	if offset, ok := strings.CutPrefix(expression, "*+"); ok {
		n, err := strconv.Atoi(offset)
		if err != nil {
			return ps.errorf(ErrSyntax, "invalid offset '%s'", offset)
		}
		return ps.define(name, ps.pc()+n)
	}

	value, known, err := ps.eval(expression)
	if err != nil {
		return err
	}
	if !known {
		return ps.errorf(ErrUnknownSymbol, "constant '%s'", name)
	}
	return ps.define(name, value)
}

func (ps *pass) define(name string, value int) error {
	if err := program.ValidateLabelName(name); err != nil {
		return ps.errorf(ErrSyntax, "label '%s': %s", name, err)
	}
	if _, ok := ps.symbols[name]; ok {
		return ps.errorf(ErrSyntax, "duplicate symbol '%s'", name)
	}
	ps.symbols[name] = value
	return nil
}

func (ps *pass) statement(line string) error {
	if _, ok := ps.scopeOpen[line]; ok {
		ps.screen = true
		return nil
	}
	if _, ok := ps.scopeClose[line]; ok {
		ps.screen = false
		return nil
	}
	if _, ok := ps.headers[line]; ok {
		return nil
	}
	if ps.includeName != "" && strings.HasPrefix(line, ps.includeName+" ") {
		return ps.include(strings.TrimSpace(line[len(ps.includeName):]))
	}

	directive, operand, _ := strings.Cut(line, " ")
	operand = strings.TrimSpace(operand)
	d := ps.dialect

	switch directive {
	case d.ByteDirective, d.TextDirective:
		return ps.bytes(operand, ps.screen)
	case d.WordDirective, d.AddressDirective:
		return ps.words(operand)
	}
	if directive == d.Screencode.Directive && len(d.Screencode.Open) == 0 {
		return ps.bytes(operand, true)
	}
	if !ps.hasOrigin {
		return ps.errorf(ErrSyntax, "missing origin before '%s'", line)
	}
	return ps.instruction(directive, operand)
}

func (ps *pass) emit(typ program.BlockType, data ...byte) error {
	if ps.pc()+len(data) > 0x10000 {
		return ps.errorf(ErrSyntax, "output exceeds the address space")
	}
	ps.data = append(ps.data, data...)
	for range data {
		ps.types = append(ps.types, typ)
	}
	return nil
}

func (ps *pass) include(operand string) error {
	name, ok := unquote(operand)
	if !ok {
		return ps.errorf(ErrSyntax, "invalid file name %s", operand)
	}
	if ps.readFile == nil {
		return ps.errorf(ErrSyntax, "binary include of '%s' is not supported", name)
	}
	data, err := ps.readFile(name)
	if err != nil {
		return fmt.Errorf("line %d: reading include file: %w", ps.line, err)
	}
	return ps.emit(program.ExternalFile, data...)
}

func (ps *pass) bytes(operand string, screen bool) error {
	for _, element := range splitOperands(operand) {
		if text, ok := unquote(element); ok {
			for _, c := range []byte(text) {
				b := c
				if screen {
					if b, ok = petscii.CharToScreencode(c); !ok {
						return ps.errorf(ErrSyntax, "character '%c' has no screencode", c)
					}
				}
				if err := ps.emit(program.DataByte, b); err != nil {
					return err
				}
			}
			continue
		}

		value, _, err := ps.eval(element)
		if err != nil {
			return err
		}
		if err := ps.emit(program.DataByte, byte(value)); err != nil {
			return err
		}
	}
	return nil
}

func (ps *pass) words(operand string) error {
	for _, element := range splitOperands(operand) {
		value, _, err := ps.eval(element)
		if err != nil {
			return err
		}
		if err := ps.emit(program.DataByte, byte(value), byte(value>>8)); err != nil {
			return err
		}
	}
	return nil
}

func (ps *pass) instruction(mnemonic, operand string) error {
	mnemonic = strings.ToLower(mnemonic)
	force := false
	for _, suffix := range ps.dialect.ForceAbsoluteSuffix {
		if suffix != "" && strings.HasSuffix(mnemonic, suffix) {
			mnemonic = strings.TrimSuffix(mnemonic, suffix)
			force = true
			break
		}
	}
	if prefix := ps.dialect.ForceAbsolutePrefix; prefix != "" {
		if rest, ok := strings.CutPrefix(operand, prefix); ok {
			operand = rest
			force = true
		}
		if rest, ok := strings.CutPrefix(operand, strings.TrimSpace(prefix)); ok && !force {
			operand = strings.TrimSpace(rest)
			force = true
		}
	}
	if !m6502.IsMnemonic(mnemonic, ps.illegal) {
		return ps.errorf(ErrSyntax, "unknown instruction '%s'", mnemonic)
	}

	lower := strings.ToLower(operand)
	switch {
	case operand == "":
		if o, ok := ps.find(mnemonic, m6502.Implied); ok {
			return ps.emit(program.Code, o.Value)
		}
		return ps.encode(mnemonic, m6502.Accumulator, 0)

	case lower == "a":
		if o, ok := ps.find(mnemonic, m6502.Accumulator); ok {
			return ps.emit(program.Code, o.Value)
		}

	case strings.HasPrefix(operand, "#"):
		value, _, err := ps.eval(operand[1:])
		if err != nil {
			return err
		}
		return ps.encode(mnemonic, m6502.Immediate, value)

	case strings.HasPrefix(operand, "("):
		switch {
		case strings.HasSuffix(lower, ",x)"):
			return ps.operand(mnemonic, m6502.IndirectX, operand[1:len(operand)-3])
		case strings.HasSuffix(lower, "),y"):
			return ps.operand(mnemonic, m6502.IndirectY, operand[1:len(operand)-3])
		case strings.HasSuffix(lower, ")"):
			return ps.operand(mnemonic, m6502.Indirect, operand[1:len(operand)-1])
		}
	}

	mode := m6502.Absolute
	switch {
	case strings.HasSuffix(lower, ",x"):
		mode, operand = m6502.AbsoluteX, operand[:len(operand)-2]
	case strings.HasSuffix(lower, ",y"):
		mode, operand = m6502.AbsoluteY, operand[:len(operand)-2]
	}

	if mode == m6502.Absolute {
		if _, ok := ps.find(mnemonic, m6502.Relative); ok {
			return ps.branch(mnemonic, operand)
		}
	}

	value, known, err := ps.eval(operand)
	if err != nil {
		return err
	}
	zpMode, _ := m6502.ZeroPageVariant(mode)
	_, hasAbsolute := ps.find(mnemonic, mode)
	_, hasZeroPage := ps.find(mnemonic, zpMode)
	if hasZeroPage && (!hasAbsolute || (!force && known && value >= 0 && value <= 0xFF)) {
		mode = zpMode
	}
	return ps.encode(mnemonic, mode, value)
}

func (ps *pass) operand(mnemonic string, mode m6502.Mode, expression string) error {
	value, _, err := ps.eval(expression)
	if err != nil {
		return err
	}
	return ps.encode(mnemonic, mode, value)
}

func (ps *pass) branch(mnemonic, expression string) error {
	target, known, err := ps.eval(expression)
	if err != nil {
		return err
	}
	offset := 0
	if known {
		offset = target - (ps.pc() + 2)
		if offset < -128 || offset > 127 {
			if ps.branchErr == nil {
				ps.branchErr = ps.errorf(ErrSyntax, "branch target $%04x out of range", target)
			}
			offset = 0
		}
	}
	return ps.encode(mnemonic, m6502.Relative, offset)
}

func (ps *pass) find(mnemonic string, mode m6502.Mode) (*m6502.Opcode, bool) {
	return m6502.Find(mnemonic, mode, ps.illegal)
}

func (ps *pass) encode(mnemonic string, mode m6502.Mode, value int) error {
	o, ok := ps.find(mnemonic, mode)
	if !ok {
		return ps.errorf(ErrSyntax, "instruction '%s' does not support addressing mode %s",
			mnemonic, m6502.ModeName(mode))
	}

	data := []byte{o.Value}
	switch m6502.ModeLength(mode) {
	case 2:
		data = append(data, byte(value))
	case 3:
		data = append(data, byte(value), byte(value>>8))
	}
	return ps.emit(program.Code, data...)
}

// eval evaluates an expression. The second return value is false when the
// expression references a symbol that is not defined yet.
func (ps *pass) eval(expression string) (int, bool, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return 0, false, ps.errorf(ErrSyntax, "missing expression")
	}

	if not := ps.dialect.NotOperator; not != "" && strings.HasPrefix(expression, not) {
		value, known, err := ps.eval(expression[len(not):])
		return ^value & 0xFF, known, err
	}

	switch c := expression[0]; {
	case c == '<':
		value, known, err := ps.eval(expression[1:])
		return value & 0xFF, known, err
	case c == '>':
		value, known, err := ps.eval(expression[1:])
		return (value >> 8) & 0xFF, known, err
	case c == '$':
		return ps.number(expression[1:], 16)
	case c == '%':
		return ps.number(expression[1:], 2)
	case c == '-':
		value, known, err := ps.number(expression[1:], 10)
		return -value, known, err
	case c >= '0' && c <= '9':
		return ps.number(expression, 10)
	}

	if value, ok := ps.symbols[expression]; ok {
		return value, true, nil
	}
	if program.ValidateLabelName(expression) != nil {
		return 0, false, ps.errorf(ErrSyntax, "invalid expression '%s'", expression)
	}
	// forward reference
	if value, ok := ps.previous[expression]; ok {
		return value, true, nil
	}
	ps.missing[expression] = ps.line
	return 0, false, nil
}

func (ps *pass) number(s string, base int) (int, bool, error) {
	value, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, false, ps.errorf(ErrSyntax, "invalid number '%s'", s)
	}
	return int(value), true, nil
}

// splitOperands splits an operand list at commas outside of quoted strings.
func splitOperands(operand string) []string {
	var parts []string
	inQuote := false
	start := 0
	for i := 0; i < len(operand); i++ {
		switch operand[i] {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				parts = append(parts, strings.TrimSpace(operand[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(operand[start:]))
}

// unquote returns the content of a quoted string, doubled quotes are
// converted to a single quote.
func unquote(s string) (string, bool) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", false
	}
	return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`), true
}

package command

import (
	"fmt"

	"github.com/retroenv/retroworkbench/internal/program"
)

// SetBlockTypeRegion classifies the inclusive offset range.
type SetBlockTypeRegion struct {
	Type  program.BlockType
	Start int
	End   int

	previous []program.BlockType
}

func (c *SetBlockTypeRegion) Apply(prg *program.Program) error {
	previous := prg.BlockTypes(c.Start, c.End)
	if err := prg.SetBlockTypeRegion(c.Type, c.Start, c.End); err != nil {
		return err
	}
	c.previous = previous
	return nil
}

func (c *SetBlockTypeRegion) Revert(prg *program.Program) error {
	return prg.RestoreBlockTypes(c.Start, c.previous)
}

func (c *SetBlockTypeRegion) Description() string {
	return fmt.Sprintf("set %s block %d-%d", c.Type, c.Start, c.End)
}

// SetLabel sets the user label of an address. An empty name removes it.
type SetLabel struct {
	Address uint16
	Name    string
	Type    program.LabelType

	previous    program.Label
	hadPrevious bool
	// auto label that was removed because its name is taken by the new label
	displaced        program.Label
	displacedAddress uint16
	hadDisplaced     bool
}

func (c *SetLabel) Apply(prg *program.Program) error {
	previous, hadPrevious := prg.UserLabelAt(c.Address)

	if c.Name == "" {
		if err := prg.RemoveUserLabel(c.Address); err != nil {
			return err
		}
		c.previous, c.hadPrevious, c.hadDisplaced = previous, hadPrevious, false
		return nil
	}

	var displaced program.Label
	displacedAddress, hadDisplaced := prg.LabelAddress(c.Name)
	if hadDisplaced {
		hadDisplaced = false
		for _, l := range prg.Labels(displacedAddress) {
			if l.Name == c.Name && l.Kind == program.AutoLabel {
				displaced, hadDisplaced = l, true
			}
		}
	}

	if err := prg.SetUserLabel(c.Address, c.Name, c.Type); err != nil {
		return err
	}
	c.previous, c.hadPrevious = previous, hadPrevious
	c.displaced, c.displacedAddress, c.hadDisplaced = displaced, displacedAddress, hadDisplaced
	return nil
}

func (c *SetLabel) Revert(prg *program.Program) error {
	if c.Name != "" {
		if err := prg.RemoveUserLabel(c.Address); err != nil {
			return err
		}
	}
	if c.hadPrevious {
		if err := prg.SetUserLabel(c.Address, c.previous.Name, c.previous.Type); err != nil {
			return err
		}
	}
	if c.hadDisplaced {
		return prg.RestoreLabel(c.displacedAddress, c.displaced)
	}
	return nil
}

func (c *SetLabel) Description() string {
	if c.Name == "" {
		return fmt.Sprintf("remove label at $%04x", c.Address)
	}
	return fmt.Sprintf("set label %s at $%04x", c.Name, c.Address)
}

// SetUserSideComment sets the side comment of an address. An empty text
// removes it.
type SetUserSideComment struct {
	Address uint16
	Text    string

	previous string
}

func (c *SetUserSideComment) Apply(prg *program.Program) error {
	previous, _ := prg.SideComment(c.Address)
	if err := prg.SetSideComment(c.Address, c.Text); err != nil {
		return err
	}
	c.previous = previous
	return nil
}

func (c *SetUserSideComment) Revert(prg *program.Program) error {
	return prg.SetSideComment(c.Address, c.previous)
}

func (c *SetUserSideComment) Description() string {
	return fmt.Sprintf("set side comment at $%04x", c.Address)
}

// SetUserLineComment sets the line comment of an address. An empty text
// removes it.
type SetUserLineComment struct {
	Address uint16
	Text    string

	previous string
}

func (c *SetUserLineComment) Apply(prg *program.Program) error {
	previous, _ := prg.LineComment(c.Address)
	if err := prg.SetLineComment(c.Address, c.Text); err != nil {
		return err
	}
	c.previous = previous
	return nil
}

func (c *SetUserLineComment) Revert(prg *program.Program) error {
	return prg.SetLineComment(c.Address, c.previous)
}

func (c *SetUserLineComment) Description() string {
	return fmt.Sprintf("set line comment at $%04x", c.Address)
}

// ChangeOrigin moves the image to a new origin.
type ChangeOrigin struct {
	Origin uint16

	saved program.Annotations
}

func (c *ChangeOrigin) Apply(prg *program.Program) error {
	saved := prg.SaveAnnotations()
	if err := prg.SetOrigin(c.Origin); err != nil {
		return err
	}
	c.saved = saved
	return nil
}

func (c *ChangeOrigin) Revert(prg *program.Program) error {
	prg.RestoreAnnotations(c.saved)
	return nil
}

func (c *ChangeOrigin) Description() string {
	return fmt.Sprintf("change origin to $%04x", c.Origin)
}

// ToggleSplitter adds or removes a splitter.
type ToggleSplitter struct {
	Address uint16
}

func (c *ToggleSplitter) Apply(prg *program.Program) error {
	return prg.ToggleSplitter(c.Address)
}

func (c *ToggleSplitter) Revert(prg *program.Program) error {
	return prg.ToggleSplitter(c.Address)
}

func (c *ToggleSplitter) Description() string {
	return fmt.Sprintf("toggle splitter at $%04x", c.Address)
}

// CollapseBlock collapses an offset range.
type CollapseBlock struct {
	Range program.Range
}

func (c *CollapseBlock) Apply(prg *program.Program) error {
	return prg.CollapseRange(c.Range)
}

func (c *CollapseBlock) Revert(prg *program.Program) error {
	return prg.UncollapseRange(c.Range)
}

func (c *CollapseBlock) Description() string {
	return fmt.Sprintf("collapse %d-%d", c.Range.Start, c.Range.End)
}

// UncollapseBlock removes a collapsed range.
type UncollapseBlock struct {
	Range program.Range
}

func (c *UncollapseBlock) Apply(prg *program.Program) error {
	return prg.UncollapseRange(c.Range)
}

func (c *UncollapseBlock) Revert(prg *program.Program) error {
	return prg.CollapseRange(c.Range)
}

func (c *UncollapseBlock) Description() string {
	return fmt.Sprintf("uncollapse %d-%d", c.Range.Start, c.Range.End)
}

// SetImmediateFormat sets the immediate format of an instruction.
type SetImmediateFormat struct {
	Address uint16
	Format  program.ImmediateFormat

	previous program.ImmediateFormat
}

func (c *SetImmediateFormat) Apply(prg *program.Program) error {
	previous, _ := prg.ImmediateFormat(c.Address)
	if err := prg.SetImmediateFormat(c.Address, c.Format); err != nil {
		return err
	}
	c.previous = previous
	return nil
}

func (c *SetImmediateFormat) Revert(prg *program.Program) error {
	return prg.SetImmediateFormat(c.Address, c.previous)
}

func (c *SetImmediateFormat) Description() string {
	return fmt.Sprintf("set %s immediate format at $%04x", c.Format.Kind, c.Address)
}

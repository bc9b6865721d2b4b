// Package command implements all mutations of a program as reversible
// commands and an undo stack.
package command

import (
	"errors"
	"fmt"

	"github.com/retroenv/retroworkbench/internal/program"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Command is a reversible mutation of a program. A failing Apply leaves the
// program unchanged.
type Command interface {
	// Apply executes the command and records the state needed by Revert.
	Apply(prg *program.Program) error
	// Revert restores the state before the last Apply.
	Revert(prg *program.Program) error
	// Description returns a short human readable description.
	Description() string
}

// Batch applies a list of commands atomically.
type Batch struct {
	Name     string
	Commands []Command

	applied int
}

// NewBatch returns a batch of the commands.
func NewBatch(name string, commands ...Command) *Batch {
	return &Batch{
		Name:     name,
		Commands: commands,
	}
}

// Apply applies all commands in order. If one fails, the already applied
// commands are reverted.
func (b *Batch) Apply(prg *program.Program) error {
	b.applied = 0
	for _, cmd := range b.Commands {
		if err := cmd.Apply(prg); err != nil {
			if revertErr := b.Revert(prg); revertErr != nil {
				return errors.Join(err, revertErr)
			}
			return fmt.Errorf("applying %s: %w", cmd.Description(), err)
		}
		b.applied++
	}
	return nil
}

// Revert reverts the applied commands in reverse order.
func (b *Batch) Revert(prg *program.Program) error {
	for ; b.applied > 0; b.applied-- {
		cmd := b.Commands[b.applied-1]
		if err := cmd.Revert(prg); err != nil {
			return fmt.Errorf("reverting %s: %w", cmd.Description(), err)
		}
	}
	return nil
}

// Description returns the name of the batch.
func (b *Batch) Description() string {
	return fmt.Sprintf("%s (%d commands)", b.Name, len(b.Commands))
}

// Stack holds the undo and redo history of a program.
type Stack struct {
	prg  *program.Program
	undo []Command
	redo []Command
}

// NewStack returns an empty history for the program.
func NewStack(prg *program.Program) *Stack {
	return &Stack{
		prg: prg,
	}
}

// Push applies the command and adds it to the history. A new edit discards
// the redo history.
func (s *Stack) Push(cmd Command) error {
	if err := cmd.Apply(s.prg); err != nil {
		return err
	}
	s.undo = append(s.undo, cmd)
	s.redo = nil
	return nil
}

// Undo reverts the last applied command.
func (s *Stack) Undo() (Command, error) {
	if len(s.undo) == 0 {
		return nil, ErrNothingToUndo
	}
	cmd := s.undo[len(s.undo)-1]
	if err := cmd.Revert(s.prg); err != nil {
		return nil, fmt.Errorf("undoing %s: %w", cmd.Description(), err)
	}
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, cmd)
	return cmd, nil
}

// Redo applies the last undone command again.
func (s *Stack) Redo() (Command, error) {
	if len(s.redo) == 0 {
		return nil, ErrNothingToRedo
	}
	cmd := s.redo[len(s.redo)-1]
	if err := cmd.Apply(s.prg); err != nil {
		return nil, fmt.Errorf("redoing %s: %w", cmd.Description(), err)
	}
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, cmd)
	return cmd, nil
}

// CanUndo returns whether a command can be undone.
func (s *Stack) CanUndo() bool {
	return len(s.undo) > 0
}

// CanRedo returns whether an undone command can be applied again.
func (s *Stack) CanRedo() bool {
	return len(s.redo) > 0
}

// Reset clears the history, used after loading a new program.
func (s *Stack) Reset(prg *program.Program) {
	s.prg = prg
	s.undo = nil
	s.redo = nil
}

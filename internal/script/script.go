// Package script runs Lua scripts against a session. All changes a script
// makes are recorded as one undoable batch command. A script that fails
// leaves the program unchanged.
package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/retroenv/retroworkbench/internal/command"
	"github.com/retroenv/retroworkbench/internal/program"
	"github.com/retroenv/retroworkbench/internal/session"
	"github.com/retroenv/retrogolib/log"
	lua "github.com/yuin/gopher-lua"
)

// ModuleName is the name of the global table that holds the workbench API.
const ModuleName = "wb"

// RunFile runs the script file against the session.
func RunFile(ctx context.Context, logger *log.Logger, s *session.Session, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading script file: %w", err)
	}
	return Run(ctx, logger, s, filepath.Base(path), string(source))
}

// Run runs the script source against the session.
func Run(ctx context.Context, logger *log.Logger, s *session.Session, name, source string) error {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	L.SetContext(ctx)

	if err := openLibs(L); err != nil {
		return err
	}

	r := &runtime{
		logger: logger,
		name:   name,
		s:      s,
		prg:    s.Program(),
	}
	L.SetGlobal(ModuleName, r.module(L))

	fn, err := L.LoadString(source)
	if err != nil {
		return fmt.Errorf("compiling script '%s': %w", name, err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		if revertErr := r.revert(); revertErr != nil {
			err = errors.Join(err, revertErr)
		}
		return fmt.Errorf("running script '%s': %w", name, err)
	}

	if len(r.applied) == 0 {
		return nil
	}
	// the batch is applied again by the session so that it becomes undoable
	if err := r.revert(); err != nil {
		return fmt.Errorf("reverting script changes: %w", err)
	}
	if err := s.Execute(command.NewBatch("script "+name, r.applied...)); err != nil {
		return fmt.Errorf("applying script changes: %w", err)
	}
	r.logger.Debug("Script finished", log.String("name", name), log.Int("commands", len(r.applied)))
	return nil
}

// openLibs opens the Lua libraries that do not access the host system.
func openLibs(L *lua.LState) error {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name))
		if err != nil {
			return fmt.Errorf("opening lua library '%s': %w", lib.name, err)
		}
	}
	for _, name := range []string{"dofile", "loadfile"} {
		L.SetGlobal(name, lua.LNil)
	}
	return nil
}

// runtime applies the commands of a running script directly to the program
// so that later calls observe the changes.
type runtime struct {
	logger  *log.Logger
	name    string
	s       *session.Session
	prg     *program.Program
	applied []command.Command
}

func (r *runtime) module(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"origin":       r.origin,
		"len":          r.length,
		"byte":         r.byteAt,
		"type":         r.blockType,
		"label":        r.label,
		"set_type":     r.setType,
		"set_label":    r.setLabel,
		"remove_label": r.removeLabel,
		"side_comment": r.sideComment,
		"line_comment": r.lineComment,
		"set_origin":   r.setOrigin,
		"splitter":     r.splitter,
		"collapse":     r.collapse,
		"uncollapse":   r.uncollapse,
		"immediate":    r.immediate,
		"analyze":      r.analyze,
		"log":          r.log,
	})
}

func (r *runtime) apply(L *lua.LState, cmd command.Command) {
	if err := cmd.Apply(r.prg); err != nil {
		L.RaiseError("%s", err.Error())
		return
	}
	r.applied = append(r.applied, cmd)
}

func (r *runtime) revert() error {
	for _, cmd := range slices.Backward(r.applied) {
		if err := cmd.Revert(r.prg); err != nil {
			return fmt.Errorf("reverting %s: %w", cmd.Description(), err)
		}
	}
	return nil
}

func checkAddress(L *lua.LState, n int) uint16 {
	v := L.CheckInt(n)
	if v < 0 || v > 0xFFFF {
		L.ArgError(n, "address out of range")
	}
	return uint16(v)
}

// checkOffset returns the offset of an address argument inside the program.
func (r *runtime) checkOffset(L *lua.LState, n int) int {
	address := checkAddress(L, n)
	offset, ok := r.prg.Offset(address)
	if !ok {
		L.ArgError(n, fmt.Sprintf("address $%04x outside of program", address))
	}
	return offset
}

func (r *runtime) origin(L *lua.LState) int {
	L.Push(lua.LNumber(r.prg.Origin()))
	return 1
}

func (r *runtime) length(L *lua.LState) int {
	L.Push(lua.LNumber(r.prg.Len()))
	return 1
}

func (r *runtime) byteAt(L *lua.LState) int {
	b := r.prg.Bytes(checkAddress(L, 1), 1)
	if len(b) == 0 {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(b[0]))
	return 1
}

func (r *runtime) blockType(L *lua.LState) int {
	offset := r.checkOffset(L, 1)
	L.Push(lua.LString(r.prg.BlockTypeAt(offset).String()))
	return 1
}

func (r *runtime) label(L *lua.LState) int {
	l, ok := r.prg.PrimaryLabel(checkAddress(L, 1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(l.Name))
	return 1
}

// set_type(start, end, type) with an inclusive end address.
func (r *runtime) setType(L *lua.LState) int {
	start := r.checkOffset(L, 1)
	end := r.checkOffset(L, 2)
	typ, err := program.ParseBlockType(L.CheckString(3))
	if err != nil {
		L.ArgError(3, err.Error())
	}
	r.apply(L, &command.SetBlockTypeRegion{Type: typ, Start: start, End: end})
	return 0
}

// set_label(address, name [, type])
func (r *runtime) setLabel(L *lua.LState) int {
	address := checkAddress(L, 1)
	name := L.CheckString(2)
	typ := program.UserDefined
	if L.GetTop() >= 3 {
		var err error
		typ, err = program.ParseLabelType(L.CheckString(3))
		if err != nil {
			L.ArgError(3, err.Error())
		}
	}
	if name == "" {
		L.ArgError(2, "empty label name")
	}
	r.apply(L, &command.SetLabel{Address: address, Name: name, Type: typ})
	return 0
}

func (r *runtime) removeLabel(L *lua.LState) int {
	r.apply(L, &command.SetLabel{Address: checkAddress(L, 1)})
	return 0
}

func (r *runtime) sideComment(L *lua.LState) int {
	r.apply(L, &command.SetUserSideComment{Address: checkAddress(L, 1), Text: L.OptString(2, "")})
	return 0
}

func (r *runtime) lineComment(L *lua.LState) int {
	r.apply(L, &command.SetUserLineComment{Address: checkAddress(L, 1), Text: L.OptString(2, "")})
	return 0
}

func (r *runtime) setOrigin(L *lua.LState) int {
	r.apply(L, &command.ChangeOrigin{Origin: checkAddress(L, 1)})
	return 0
}

func (r *runtime) splitter(L *lua.LState) int {
	r.apply(L, &command.ToggleSplitter{Address: checkAddress(L, 1)})
	return 0
}

// collapseRange reads an inclusive start and end address pair.
func (r *runtime) collapseRange(L *lua.LState) program.Range {
	start := r.checkOffset(L, 1)
	end := r.checkOffset(L, 2)
	return program.Range{Start: start, End: end + 1}
}

func (r *runtime) collapse(L *lua.LState) int {
	r.apply(L, &command.CollapseBlock{Range: r.collapseRange(L)})
	return 0
}

func (r *runtime) uncollapse(L *lua.LState) int {
	r.apply(L, &command.UncollapseBlock{Range: r.collapseRange(L)})
	return 0
}

// immediate(address, format [, target])
func (r *runtime) immediate(L *lua.LState) int {
	address := checkAddress(L, 1)
	kind, err := program.ParseImmediateKind(L.CheckString(2))
	if err != nil {
		L.ArgError(2, err.Error())
	}
	format := program.ImmediateFormat{Kind: kind}
	if format.HasTarget() {
		format.Target = checkAddress(L, 3)
	}
	r.apply(L, &command.SetImmediateFormat{Address: address, Format: format})
	return 0
}

// analyze classifies reachable code and returns the number of new code regions.
func (r *runtime) analyze(L *lua.LState) int {
	batch := r.s.AnalysisCommand()
	if len(batch.Commands) > 0 {
		r.apply(L, batch)
	}
	L.Push(lua.LNumber(len(batch.Commands)))
	return 1
}

func (r *runtime) log(L *lua.LState) int {
	r.logger.Info(L.CheckString(1), log.String("script", r.name))
	return 0
}

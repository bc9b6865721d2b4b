package session

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/retroenv/retroworkbench/internal/command"
	"github.com/retroenv/retroworkbench/internal/options"
	"github.com/retroenv/retroworkbench/internal/program"
	"github.com/retroenv/retroworkbench/internal/project"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

var testData = []byte{
	0xA9, 0x00, // lda #$00
	0x8D, 0x20, 0xD0, // sta $d020
	0x60,       // rts
	0x41, 0x42, // data
}

func newSession(t *testing.T) *Session {
	t.Helper()
	prg, err := program.New(0x1000, testData)
	assert.NoError(t, err)
	s, err := New(log.NewTestLogger(t), prg, options.NewSettings())
	assert.NoError(t, err)
	return s
}

func TestNewUnsupportedSettings(t *testing.T) {
	prg, err := program.New(0x1000, testData)
	assert.NoError(t, err)

	settings := options.NewSettings()
	settings.Assembler = "nesasm"
	_, err = New(log.NewTestLogger(t), prg, settings)
	assert.ErrorContains(t, err, "unsupported assembler")

	settings = options.NewSettings()
	settings.Platform = "atari"
	_, err = New(log.NewTestLogger(t), prg, settings)
	assert.Error(t, err)
}

func TestAnalyzeUndoRedo(t *testing.T) {
	s := newSession(t)
	prg := s.Program()
	assert.Equal(t, program.Undefined, prg.BlockTypeAt(0))
	assert.False(t, s.stack.CanUndo())

	assert.NoError(t, s.Analyze())
	for offset := range 6 {
		assert.Equal(t, program.Code, prg.BlockTypeAt(offset))
	}
	assert.Equal(t, program.Undefined, prg.BlockTypeAt(6))

	// everything reachable is already code
	assert.Empty(t, s.AnalysisCommand().Commands)

	cmd, err := s.Undo()
	assert.NoError(t, err)
	assert.Contains(t, cmd.Description(), "analysis")
	assert.Equal(t, program.Undefined, prg.BlockTypeAt(0))

	_, err = s.Redo()
	assert.NoError(t, err)
	assert.Equal(t, program.Code, prg.BlockTypeAt(0))
}

func TestExecuteRefreshesListing(t *testing.T) {
	s := newSession(t)
	assert.NoError(t, s.Analyze())
	assert.Equal(t, "", s.Listing().Lines[0].Label)

	assert.NoError(t, s.Execute(&command.SetLabel{Address: 0x1000, Name: "start", Type: program.UserDefined}))
	assert.Equal(t, "start", s.Listing().Lines[0].Label)

	_, err := s.Undo()
	assert.NoError(t, err)
	assert.Equal(t, "", s.Listing().Lines[0].Label)
}

func TestGoTo(t *testing.T) {
	s := newSession(t)
	assert.NoError(t, s.Analyze())

	assert.True(t, s.GoTo(0x1004))
	assert.Equal(t, project.Cursor{Address: 0x1002}, s.Cursor())
	assert.False(t, s.GoTo(0x2000))
	assert.Equal(t, project.Cursor{Address: 0x1002}, s.Cursor())
}

func TestImportLabels(t *testing.T) {
	s := newSession(t)
	entries := []project.LabelEntry{
		{Address: 0x1000, Name: "start"},
		{Address: 0x1006, Name: "message"},
	}
	assert.NoError(t, s.ImportLabels(entries))

	label, ok := s.Program().UserLabelAt(0x1006)
	assert.True(t, ok)
	assert.Equal(t, "message", label.Name)

	// a second import of the same labels is a no-op
	assert.NoError(t, s.ImportLabels(entries))
	_, err := s.Undo()
	assert.NoError(t, err)
	assert.False(t, s.stack.CanUndo())
	_, ok = s.Program().UserLabelAt(0x1000)
	assert.False(t, ok)

	err = s.ImportLabels([]project.LabelEntry{{Address: 0x1000, Name: "1bad"}})
	assert.ErrorContains(t, err, "importing labels")
}

func TestExport(t *testing.T) {
	s := newSession(t)
	assert.NoError(t, s.Analyze())

	var buf bytes.Buffer
	assert.NoError(t, s.Export(&buf))
	source := buf.String()
	assert.Contains(t, source, "* = $1000")
	assert.Contains(t, source, "EXTCOL = $d020")
	assert.Contains(t, source, "sta EXTCOL")

	buf.Reset()
	assert.NoError(t, s.ExportLabels(&buf))
	assert.Contains(t, buf.String(), "EXTCOL")
}

func TestExternalFiles(t *testing.T) {
	s := newSession(t)
	s.SetExternalBaseName("game")
	assert.NoError(t, s.Execute(&command.SetBlockTypeRegion{Type: program.ExternalFile, Start: 6, End: 7}))

	files := s.ExternalFiles()
	assert.Len(t, files, 1)
	assert.Equal(t, "game_1006.bin", files[0].Name)
	assert.Equal(t, []byte{0x41, 0x42}, files[0].Data)
}

func TestProjectRoundTrip(t *testing.T) {
	s := newSession(t)
	assert.NoError(t, s.Analyze())
	s.SetCursor(project.Cursor{Address: 0x1005, SubLine: 1})

	p := s.Project()
	restored, err := FromProject(log.NewTestLogger(t), p)
	assert.NoError(t, err)
	assert.Equal(t, s.Cursor(), restored.Cursor())
	assert.Equal(t, s.Settings(), restored.Settings())
	assert.Equal(t, program.Code, restored.Program().BlockTypeAt(0))
}

func TestSetSettings(t *testing.T) {
	s := newSession(t)
	settings := s.Settings()
	settings.Assembler = options.Ca65
	assert.NoError(t, s.SetSettings(settings))
	assert.Equal(t, "ca65", s.Dialect().Name)

	settings.Assembler = "unknown"
	assert.Error(t, s.SetSettings(settings))
	assert.Equal(t, "ca65", s.Dialect().Name)
}

func TestQueueSubmit(t *testing.T) {
	s := newSession(t)
	q := NewQueue(4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- q.Run(ctx, s)
	}()

	err := q.Submit(context.Background(), func(s *Session) error {
		return s.Execute(&command.SetLabel{Address: 0x1000, Name: "start", Type: program.UserDefined})
	})
	assert.NoError(t, err)

	err = q.Submit(context.Background(), func(s *Session) error {
		return errors.New("failed")
	})
	assert.ErrorContains(t, err, "failed")

	cancel()
	assert.True(t, errors.Is(<-done, context.Canceled))

	label, ok := s.Program().UserLabelAt(0x1000)
	assert.True(t, ok)
	assert.Equal(t, "start", label.Name)
}

func TestQueueTrySubmitDrain(t *testing.T) {
	s := newSession(t)
	q := NewQueue(1)

	called := false
	result, err := q.TrySubmit(func(*Session) error {
		called = true
		return nil
	})
	assert.NoError(t, err)

	_, err = q.TrySubmit(func(*Session) error { return nil })
	assert.True(t, errors.Is(err, ErrQueueFull))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = q.Submit(ctx, func(*Session) error { return nil })
	assert.True(t, errors.Is(err, context.Canceled))

	assert.Equal(t, 1, q.Drain(s))
	assert.True(t, called)
	assert.NoError(t, <-result)
	assert.Equal(t, 0, q.Drain(s))
}

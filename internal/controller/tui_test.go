package controller

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "prscore.dev/pkg/prscore/internal/model"
)

func update(t *testing.T, model tea.Model, msg tea.Msg) runModel {
	t.Helper()

	next, _ := model.Update(msg)

	rm, ok := next.(runModel)
	require.True(t, ok)

	return rm
}

func TestRunModel_TracksTasks(t *testing.T) {
	model := newRunModel(ModeReview)

	model = update(t, model, taskMsg{ID: "t1", Provider: "rules", State: m.TaskRunning})
	model = update(t, model, taskMsg{ID: "t2", Provider: "llm", State: m.TaskPending})
	model = update(t, model, taskMsg{ID: "t1", Provider: "rules", State: m.TaskCompleted, Findings: 3, Duration: 20 * time.Millisecond})
	model = update(t, model, taskMsg{ID: "t2", Provider: "llm", State: m.TaskFailed, Cause: "boom"})

	assert.Equal(t, []string{"t1", "t2"}, model.order)

	view := model.View()
	assert.Contains(t, view, "rules")
	assert.Contains(t, view, "3 finding(s) in 20ms")
	assert.Contains(t, view, "llm")
	assert.Contains(t, view, "boom")
	assert.Contains(t, view, "working...")
	assert.Less(t, strings.Index(view, "rules"), strings.Index(view, "llm"))
}

func TestRunModel_ShowsBodyWhenDone(t *testing.T) {
	model := newRunModel(ModeReview)
	model = update(t, model, bodyMsg(renderRunBody(sampleRunResult())))

	view := model.View()
	assert.True(t, model.done)
	assert.NotContains(t, view, "working...")
	assert.Contains(t, view, "Score 88.5")
	assert.Contains(t, view, "Hard-coded credential")
	assert.Contains(t, view, "q: quit")

	_, cmd := model.Update(spinner.TickMsg{})
	assert.Nil(t, cmd)
}

func TestRunModel_SegmentsModeHidesTasks(t *testing.T) {
	model := newRunModel(ModeSegments)
	model = update(t, model, taskMsg{ID: "t1", Provider: "rules", State: m.TaskRunning})
	model = update(t, model, bodyMsg("segments table"))

	view := model.View()
	assert.Contains(t, view, "segments table")
	assert.NotContains(t, view, "rules")
}

func TestRunModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := newRunModel(ModeView).Update(key)
		require.NotNil(t, cmd, key.String())

		_, ok := cmd().(tea.QuitMsg)
		assert.True(t, ok, key.String())
	}

	_, cmd := newRunModel(ModeView).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Nil(t, cmd)
}

func TestTUI_NotStartedIsNoop(t *testing.T) {
	ui := NewTUI(nil, nil)

	ui.DisplayTask(context.Background(), m.Task{ID: "t1"})
	require.NoError(t, ui.DisplaySegments(context.Background(), nil))
	ui.Wait(context.Background())
	ui.Close(context.Background())
}

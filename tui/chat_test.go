package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unirag/campus-rag/assistant"
	"github.com/unirag/campus-rag/retriever"
	"github.com/unirag/campus-rag/router"
)

type fakeAnswerer struct {
	questions []string
}

func (f *fakeAnswerer) Answer(_ context.Context, q string) assistant.Response {
	f.questions = append(f.questions, q)
	return assistant.Response{
		QueryType: router.QuerySchedule,
		Strategy:  router.StrategyFiltered,
		Status:    retriever.StatusOK,
		Text:      "Monday:\n  1. slot 1 | Physics (lecture) | room 52-17\n\nTotal lessons: 1",
	}
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func TestChat_AskAndRender(t *testing.T) {
	svc := &fakeAnswerer{}
	m := sized(t, New(context.Background(), svc))
	assert.Contains(t, m.View(), "Campus assistant")

	m.input.SetValue("  schedule for 4318  ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m = next.(Model)
	assert.True(t, m.busy)
	assert.Empty(t, m.input.Value())

	msg := m.ask("schedule for 4318")()
	next, _ = m.Update(msg)
	m = next.(Model)

	assert.False(t, m.busy)
	assert.Equal(t, []string{"schedule for 4318"}, svc.questions)
	require.Len(t, m.turns, 1)
	assert.Contains(t, m.transcript(), "Total lessons: 1")
	assert.Contains(t, m.status, "schedule via filtered: ok")
}

func TestChat_IgnoresBlankAndBusyInput(t *testing.T) {
	m := sized(t, New(context.Background(), &fakeAnswerer{}))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	m.busy = true
	m.input.SetValue("another question")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestChat_Quit(t *testing.T) {
	m := New(context.Background(), &fakeAnswerer{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

// Package tui is an interactive terminal front end for the assistant.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unirag/campus-rag/assistant"
)

// Answerer is the TUI-facing subset of the assistant.
type Answerer interface {
	Answer(ctx context.Context, question string) assistant.Response
}

type turn struct {
	question string
	resp     assistant.Response
}

type answerMsg turn

// Model is the Bubble Tea model of the chat screen. The transcript lives
// only as long as the program.
type Model struct {
	ctx      context.Context
	svc      Answerer
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	turns    []turn
	status   string
	busy     bool
	ready    bool
}

// New creates the chat model. ctx bounds every question asked from it.
func New(ctx context.Context, svc Answerer) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the timetable or the university"
	ti.Focus()
	ti.CharLimit = 500
	return Model{
		ctx:      ctx,
		svc:      svc,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		status:   "Ready. Enter sends, PgUp/PgDn scroll, Esc quits.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := transcriptStyle.GetFrameSize()
		_, qh := inputStyle.GetFrameSize()
		// header, status and the one-line input
		vh := msg.Height - 2 - (1 + qh) - bh
		m.viewport.Width = max(20, msg.Width-transcriptStyle.GetHorizontalFrameSize())
		m.viewport.Height = max(3, vh)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = fmt.Sprintf("Searching for %q", q)
			m.input.Reset()
			return m, tea.Batch(m.ask(q), m.spinner.Tick)
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case answerMsg:
		m.busy = false
		m.turns = append(m.turns, turn(msg))
		r := msg.resp
		m.status = fmt.Sprintf("%s via %s: %s", r.QueryType, r.Strategy, r.Status)
		if r.CacheHit {
			m.status += " (cached)"
		}
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the question off the UI goroutine.
func (m Model) ask(q string) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		return answerMsg{question: q, resp: svc.Answer(ctx, q)}
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return headerStyle.Render("Campus assistant") + "\n" +
		transcriptStyle.Render(m.viewport.View()) + "\n" +
		inputStyle.Render(m.input.View()) + "\n" +
		status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.transcript())
}

func (m Model) transcript() string {
	if len(m.turns) == 0 {
		return hintStyle.Render("Try: \"schedule for group 4318 on monday\" or \"how do I get a dormitory\".")
	}
	wrap := lipgloss.NewStyle().Width(max(20, m.viewport.Width))
	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Render("> " + t.question))
		b.WriteString("\n")
		b.WriteString(wrap.Render(t.resp.Text))
	}
	return b.String()
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Package tui implements the interactive chat interface.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docchat/internal/session"
	"docchat/internal/vectordb"
)

// ChatInfo is the static header information shown above the transcript.
type ChatInfo struct {
	Database  string
	ChatModel string
	Vectors   int
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	session  *session.Session
	info     ChatInfo
	input    textinput.Model
	viewport viewport.Model
	lines    []string
	status   string
	thinking bool
	ready    bool
}

type answerMsg struct {
	question string
	answer   string
	results  []vectordb.SearchResult
	err      error
}

// New creates the chat model over an established session.
func New(s *session.Session, info ChatInfo) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question (/clear resets, /quit exits)"
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		session:  s,
		info:     info,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Ready.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, frameHeight := transcriptStyle.GetFrameSize()
		_, inputHeight := inputStyle.GetFrameSize()
		reserved := 2 + 1 + inputHeight + 1 // header lines, spacer, input box, status
		vh := msg.Height - reserved - frameHeight
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width-2)
		m.viewport.Height = vh
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.thinking {
			return m.handleSubmit()
		}

	case answerMsg:
		m.thinking = false
		m.lines = append(m.lines, renderExchange(msg)...)
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Answered from %d sections.", len(msg.results))
		}
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.SetValue("")

	switch text {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/clear":
		m.session.ClearHistory()
		m.lines = nil
		m.status = "History cleared."
		m.refreshTranscript()
		return m, nil
	}

	m.thinking = true
	m.status = "Thinking..."
	s := m.session

	return m, func() tea.Msg {
		answer, results, err := s.Chat(context.Background(), text)
		return answerMsg{question: text, answer: answer, results: results, err: err}
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := headerStyle.Render("DocChat") + "  " +
		headerInfoStyle.Render(fmt.Sprintf("db=%s model=%s vectors=%d",
			m.info.Database, m.info.ChatModel, m.info.Vectors))
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)

	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m *Model) refreshTranscript() {
	if len(m.lines) == 0 {
		m.viewport.SetContent("Ask anything about the indexed documents.")
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
}

func renderExchange(msg answerMsg) []string {
	lines := []string{
		userStyle.Render("You: ") + msg.question,
		"",
		assistantStyle.Render("DocChat: ") + msg.answer,
	}

	if len(msg.results) > 0 {
		var refs []string
		for _, res := range msg.results {
			refs = append(refs, fmt.Sprintf("%s (%.2f)", res.Metadata.SectionTitle, res.Score))
		}
		lines = append(lines, sourceStyle.Render("sources: "+strings.Join(refs, ", ")))
	}

	lines = append(lines, "")
	return lines
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	headerInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	sourceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

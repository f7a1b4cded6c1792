// Package tui implements the interactive search console over the
// indexing service.
package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragindex/internal/domain"
)

// SearchPort is the TUI-facing subset of the index service.
type SearchPort interface {
	Search(ctx context.Context, query, collectionID string, maxResults int, threshold float64) ([]domain.SearchResult, error)
	BuildContext(ctx context.Context, query, collectionID string, maxChunks int) (string, error)
	Stats(collectionID string) domain.IndexStats
}

// Options tunes the console's retrieval calls.
type Options struct {
	CollectionID  string
	MaxResults    int
	Threshold     float64
	ContextChunks int
	Summary       string
}

// Model is the Bubble Tea model for the search console.
type Model struct {
	service     SearchPort
	opts        Options
	input       textinput.Model
	viewport    viewport.Model
	results     []domain.SearchResult
	contextView bool
	contextText string
	status      string
	cursor      int
	ready       bool
	lastQuery   string
}

// New creates a new console model.
func New(service SearchPort, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter (ctrl+g toggles context view)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)

	stats := service.Stats(opts.CollectionID)
	status := fmt.Sprintf("Collection %q: %d documents, %d chunks.",
		opts.CollectionID, stats.DocumentCount, stats.ChunkCount)

	return Model{service: service, opts: opts, input: ti, viewport: vp, status: status}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header+summary, status, query box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderBody())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if q := strings.TrimSpace(m.input.Value()); q != "" {
				m = m.runSearch(q)
				return m, nil
			}
		case "ctrl+g":
			if m.lastQuery != "" {
				m = m.toggleContext()
				return m, nil
			}
		case "down":
			if !m.contextView && len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderBody())
				return m, nil
			}
		case "up":
			if !m.contextView && len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderBody())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the console layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("ragindex search")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.opts.Summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	body := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) runSearch(query string) Model {
	results, err := m.service.Search(context.Background(), query, m.opts.CollectionID, m.opts.MaxResults, m.opts.Threshold)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.results = nil
	} else if len(results) == 0 {
		m.status = fmt.Sprintf("No results for %q", query)
		m.results = nil
	} else {
		m.status = fmt.Sprintf("%d results for %q", len(results), query)
		m.results = results
	}
	m.cursor = 0
	m.lastQuery = query
	m.contextView = false
	m.viewport.SetContent(m.renderBody())
	return m
}

func (m Model) toggleContext() Model {
	if !m.contextView {
		block, err := m.service.BuildContext(context.Background(), m.lastQuery, m.opts.CollectionID, m.opts.ContextChunks)
		if err != nil {
			m.status = "Error: " + err.Error()
			return m
		}
		if block == "" {
			block = "No relevant context found."
		}
		m.contextText = block
		m.status = fmt.Sprintf("Assembled context for %q", m.lastQuery)
	} else {
		m.status = fmt.Sprintf("Results for %q", m.lastQuery)
	}
	m.contextView = !m.contextView
	m.viewport.SetContent(m.renderBody())
	return m
}

func (m Model) renderBody() string {
	if m.contextView {
		return m.contextText
	}
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Result %d/%d  %s  chunk %d  score=%.3f",
		m.cursor+1, len(m.results), r.Chunk.DocumentName, r.Chunk.ChunkIndex, r.Score)
	body := highlightBestSentence(r.Chunk.Text, m.lastQuery)
	return title + "\n\n" + body
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	wordRe         = regexp.MustCompile(`\p{L}+(?:'\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence emphasizes the sentence sharing the most
// tokens with the query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := tokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		if score := overlapScore(qTokens, s); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func tokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func overlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := make(map[string]struct{})
	for _, t := range wordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}

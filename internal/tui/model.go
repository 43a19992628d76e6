// Package tui provides the Bubble Tea score grid.
package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Christopherwdev/ALevelChat-sub000/internal/exclusion"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/model"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/stats"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/tracker"
)

const helpLine = "arrows move · enter edit · n N/A · x clear · tab subject · m mode · a all papers · q quit"

// Model implements the Bubble Tea score grid.
type Model struct {
	tracker *tracker.Tracker
	rules   *exclusion.Set
	subject string

	row int
	col int

	editing bool
	input   textinput.Model
	errMsg  string

	width  int
	height int
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	bandStyles    = map[stats.Band]lipgloss.Style{
		stats.BandHigh: lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")),
		stats.BandMid:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14")),
		stats.BandLow:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FA8C16")),
		stats.BandFail: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")),
		stats.BandNone: lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")),
	}
)

// NewModel constructs a score grid for the tracker's current mode.
func NewModel(tr *tracker.Tracker, rules *exclusion.Set, subject string) *Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "score or N/A"
	input.CharLimit = 8

	m := &Model{tracker: tr, rules: rules, input: input}
	m.setSubject(subject)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	default:
		return m, nil
	}
}

func (m *Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.commitEdit()
		return m, nil
	case tea.KeyEsc:
		m.stopEditing()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errMsg = ""
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		m.move(-1, 0)
	case "down", "j":
		m.move(1, 0)
	case "left", "h":
		m.move(0, -1)
	case "right", "l":
		m.move(0, 1)
	case "enter", "e":
		return m, m.startEditing()
	case "n":
		m.writeCell(model.NotApplicable)
	case "x", "backspace", "delete":
		m.writeCell("")
	case "tab":
		m.cycleSubject(1)
	case "shift+tab":
		m.cycleSubject(-1)
	case "m":
		m.cycleMode()
	case "a":
		m.toggleAllPapers()
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	report := m.report()
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s · %s", report.Mode, report.Subject)),
		"",
		m.renderGrid(report),
		"",
	}
	switch {
	case m.editing:
		lines = append(lines, m.input.View())
	case m.errMsg != "":
		lines = append(lines, errorStyle.Render(m.errMsg))
	default:
		lines = append(lines, footerStyle.Render(helpLine))
	}
	content := strings.Join(lines, "\n")
	footer := m.renderFooter(report)
	if m.width == 0 || m.height == 0 {
		return content + "\n" + footer
	}
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) mode() model.Mode {
	return m.tracker.CurrentMode()
}

func (m *Model) report() stats.Report {
	return stats.BuildReport(m.tracker, m.tracker.Catalog(), m.mode(), m.subject, m.rules.IsDisabled)
}

func (m *Model) setSubject(subject string) {
	cat := m.tracker.Catalog()
	if !cat.HasSubject(m.mode(), subject) {
		subject = ""
		if subjects := cat.Subjects(m.mode()); len(subjects) > 0 {
			subject = subjects[0]
		}
	}
	m.subject = subject
	m.row, m.col = 0, 0
}

// currentKey returns the cell under the cursor.
func (m *Model) currentKey() (model.CellKey, bool) {
	slots := m.tracker.Range(m.mode())
	papers := m.tracker.SelectedPapers(m.mode(), m.subject)
	if m.row < 0 || m.row >= len(slots) || m.col < 0 || m.col >= len(papers) {
		return model.CellKey{}, false
	}
	ys := slots[m.row]
	return model.CellKey{Mode: m.mode(), Year: ys.Year, Session: ys.Session, Subject: m.subject, Paper: papers[m.col]}, true
}

func (m *Model) move(dRow, dCol int) {
	rows := len(m.tracker.Range(m.mode()))
	cols := len(m.tracker.SelectedPapers(m.mode(), m.subject))
	m.row = clamp(m.row+dRow, rows)
	m.col = clamp(m.col+dCol, cols)
}

func clamp(v, n int) int {
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

func (m *Model) startEditing() tea.Cmd {
	key, ok := m.currentKey()
	if !ok {
		return nil
	}
	if m.rules.IsDisabled(key) {
		m.errMsg = fmt.Sprintf("%s %s was not examined in %d %s", key.Subject, key.Paper, key.Year, key.Session)
		return nil
	}
	raw, _ := m.tracker.Score(key)
	m.editing = true
	m.input.SetValue(raw)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) stopEditing() {
	m.editing = false
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) commitEdit() {
	value := strings.TrimSpace(m.input.Value())
	if strings.EqualFold(value, model.NotApplicable) {
		value = model.NotApplicable
	}
	if value != "" && value != model.NotApplicable {
		if _, ok := stats.ParseScore(value); !ok {
			m.errMsg = fmt.Sprintf("%q is not a score", value)
			return
		}
	}
	m.errMsg = ""
	m.writeCell(value)
	m.stopEditing()
}

// writeCell stores value under the cursor; an empty value clears the cell.
func (m *Model) writeCell(value string) {
	key, ok := m.currentKey()
	if !ok || m.rules.IsDisabled(key) {
		return
	}
	if value == "" {
		m.tracker.ClearScore(key)
		return
	}
	m.tracker.SetScore(key, value)
}

func (m *Model) cycleSubject(step int) {
	subjects := m.tracker.Catalog().Subjects(m.mode())
	if len(subjects) == 0 {
		return
	}
	idx := 0
	for i, s := range subjects {
		if s == m.subject {
			idx = i
			break
		}
	}
	idx = (idx + step + len(subjects)) % len(subjects)
	m.setSubject(subjects[idx])
}

func (m *Model) cycleMode() {
	modes := model.Modes()
	idx := 0
	for i, mode := range modes {
		if mode == m.mode() {
			idx = i
			break
		}
	}
	next := modes[(idx+1)%len(modes)]
	if err := m.tracker.SetCurrentMode(next); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.setSubject(m.subject)
}

func (m *Model) toggleAllPapers() {
	all := m.tracker.Catalog().Papers(m.mode(), m.subject)
	selected := m.tracker.SelectedPapers(m.mode(), m.subject)
	m.tracker.ToggleAllPapers(m.mode(), m.subject, len(selected) != len(all))
	m.move(0, 0)
}

func (m *Model) renderFooter(report stats.Report) string {
	if m.col < 0 || m.col >= len(report.Papers) {
		return ""
	}
	paper := report.Papers[m.col]
	segments := []string{fmt.Sprintf("%s mean %s (%s)", paper.Code, stats.FormatMean(paper.Mean, paper.HasMean), stats.FormatPercent(paper.MeanPct))}
	if key, ok := m.currentKey(); ok && !m.rules.IsDisabled(key) {
		if raw, found := m.tracker.Score(key); found {
			slot := key.Slot()
			pct := stats.PercentageOf(raw, paper.MaxMark)
			if math.IsNaN(pct) {
				segments = append(segments, fmt.Sprintf("%s %s", slot, raw))
			} else {
				segments = append(segments, fmt.Sprintf("%s %s/%d · %s %s · P%d", slot, raw, paper.MaxMark, stats.FormatPercent(pct), stats.ColorBand(pct), stats.PercentileOf(pct)))
			}
		}
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

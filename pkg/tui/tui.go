// Package tui provides a terminal user interface for osu2rush
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/james-see/osu2rush/pkg/beatmap"
	"github.com/james-see/osu2rush/pkg/chart"
	"github.com/james-see/osu2rush/pkg/converter"
	"github.com/james-see/osu2rush/pkg/converter/classifiers"
)

// Lane colours
var (
	groundColor = lipgloss.Color("#FF8C1A")
	airColor    = lipgloss.Color("#5CC8FF")
	dimColor    = lipgloss.Color("#6C6C6C")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#3A2A55")).Padding(0, 1)
	cursorStyle = lipgloss.NewStyle().Foreground(groundColor).Bold(true)
	itemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D0D0D0"))
	noteStyle   = lipgloss.NewStyle().Foreground(airColor).Italic(true)
	hintStyle   = lipgloss.NewStyle().Foreground(dimColor)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4D")).Bold(true)
	groundStyle = lipgloss.NewStyle().Foreground(groundColor)
	airStyle    = lipgloss.NewStyle().Foreground(airColor)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			BorderForeground(airColor).Padding(0, 2)
)

// laneBarWidth is the number of cells in the ground/air balance bar
const laneBarWidth = 30

// Step is the screen the wizard is on
type Step int

const (
	StepAction Step = iota
	StepFile
	StepClassifier
	StepConverting
	StepDone
)

// Action is what happens to the picked chart
type Action int

const (
	ActionChart Action = iota
	ActionPreview
	ActionStats
	ActionQuit
)

type choice struct {
	label string
	note  string
}

var actions = []choice{
	ActionChart:   {"Write Rush chart", "YAML chart next to the source file"},
	ActionPreview: {"Write MIDI preview", "General MIDI drum track of the converted chart"},
	ActionStats:   {"Show statistics", "convert in memory only"},
	ActionQuit:    {"Quit", ""},
}

// classifierChoices lists "auto" followed by every registered classifier
func classifierChoices() []choice {
	out := []choice{{"auto", "pick from the source ruleset"}}
	for _, info := range classifiers.List() {
		out = append(out, choice{info.ID, info.Description})
	}
	return out
}

// Model is the conversion wizard
type Model struct {
	step    Step
	cursor  int
	action  Action
	picker  filepicker.Model
	spin    spinner.Model
	base    chart.Options
	input   string
	outcome *outcome
}

// outcome is the result of one conversion
type outcome struct {
	classifier string
	output     string
	summary    chart.Summary
	err        error
}

type convertedMsg outcome

// New creates the wizard; base supplies the tuning and logger for every run
func New(base chart.Options) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".osu", ".mid", ".midi"}
	fp.CurrentDirectory, _ = os.Getwd()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = groundStyle

	return Model{picker: fp, spin: sp, base: base}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.picker.SetHeight(max(msg.Height-8, 3))
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case convertedMsg:
		o := outcome(msg)
		m.outcome = &o
		m.step = StepDone
		return m, nil
	}

	switch m.step {
	case StepAction:
		return m.onAction(msg)
	case StepFile:
		return m.onFile(msg)
	case StepClassifier:
		return m.onClassifier(msg)
	case StepDone:
		return m.onDone(msg)
	}
	return m, nil
}

// moveCursor handles up/down within n entries and reports whether the key was consumed
func (m *Model) moveCursor(key string, n int) bool {
	switch key {
	case "up", "k":
		m.cursor = (m.cursor + n - 1) % n
	case "down", "j":
		m.cursor = (m.cursor + 1) % n
	default:
		return false
	}
	return true
}

func (m Model) onAction(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.moveCursor(key.String(), len(actions)) {
		return m, nil
	}
	switch key.String() {
	case "q", "esc":
		return m, tea.Quit
	case "enter":
		m.action = Action(m.cursor)
		if m.action == ActionQuit {
			return m, tea.Quit
		}
		m.step, m.cursor = StepFile, 0
		return m, m.picker.Init()
	}
	return m, nil
}

func (m Model) onFile(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		m.step, m.cursor = StepAction, int(m.action)
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if picked, path := m.picker.DidSelectFile(msg); picked {
		m.input = path
		m.step, m.cursor = StepClassifier, 0
	}
	return m, cmd
}

func (m Model) onClassifier(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	choices := classifierChoices()
	if !ok || m.moveCursor(key.String(), len(choices)) {
		return m, nil
	}
	switch key.String() {
	case "esc":
		m.step = StepFile
		return m, nil
	case "enter":
		opts := m.base
		if m.cursor > 0 {
			opts.Classifier = choices[m.cursor].label
		}
		m.step = StepConverting
		input, action := m.input, m.action
		return m, tea.Batch(m.spin.Tick, func() tea.Msg {
			return convertedMsg(run(input, action, opts))
		})
	}
	return m, nil
}

func (m Model) onDone(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q":
		return m, tea.Quit
	case "c":
		// same file, another classifier
		m.step, m.cursor, m.outcome = StepClassifier, 0, nil
	case "enter", "esc":
		m.step, m.cursor, m.outcome, m.input = StepAction, 0, nil, ""
	}
	return m, nil
}

// run converts input according to action
func run(input string, action Action, opts chart.Options) outcome {
	if action == ActionStats {
		b, err := beatmap.Load(input)
		if err != nil {
			return outcome{err: err}
		}
		res, err := chart.Convert(b, opts)
		if err != nil {
			return outcome{err: err}
		}
		return outcome{classifier: res.Chart.Classifier, summary: res.Summary}
	}

	format := chart.OutputYAML
	if action == ActionPreview {
		format = chart.OutputMIDI
	}
	output := chart.DefaultOutputPath(input, format)
	res, err := chart.ConvertFile(input, output, opts)
	if err != nil {
		return outcome{err: err}
	}
	return outcome{classifier: res.Chart.Classifier, output: output, summary: res.Summary}
}

// View implements tea.Model
func (m Model) View() string {
	var body, help string
	switch m.step {
	case StepAction:
		body = renderChoices("What should happen to the chart?", actions, m.cursor)
		help = "↑/↓ move • enter choose • q quit"
	case StepFile:
		body = headerStyle.Render("Pick an .osu or drum .mid file") + "\n\n" + m.picker.View()
		help = "enter open • esc back"
	case StepClassifier:
		title := fmt.Sprintf("Classifier for %s", filepath.Base(m.input))
		body = renderChoices(title, classifierChoices(), m.cursor)
		help = "↑/↓ move • enter convert • esc back"
	case StepConverting:
		body = fmt.Sprintf("%s converting %s", m.spin.View(), filepath.Base(m.input))
	case StepDone:
		body = m.renderOutcome()
		help = "c other classifier • enter new file • q quit"
	}

	out := lipgloss.JoinVertical(lipgloss.Left, banner(), panelStyle.Render(body))
	if help != "" {
		out += "\n" + hintStyle.Render(help)
	}
	return out
}

func renderChoices(title string, choices []choice, cursor int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n\n")
	for i, c := range choices {
		if i == cursor {
			b.WriteString(cursorStyle.Render("» " + c.label))
			if c.note != "" {
				b.WriteString("  " + noteStyle.Render(c.note))
			}
		} else {
			b.WriteString(itemStyle.Render("  " + c.label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderOutcome() string {
	o := m.outcome
	if o == nil {
		return ""
	}
	if o.err != nil {
		return failStyle.Render("conversion failed") + "\n\n" + o.err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s → %s\n", filepath.Base(m.input), outputLabel(o.output))
	fmt.Fprintf(&b, "classifier: %s\n\n", o.classifier)
	b.WriteString(laneBar(o.summary))
	b.WriteString("\n\n")
	b.WriteString(o.summary.String())
	return b.String()
}

func outputLabel(output string) string {
	if output == "" {
		return "statistics only"
	}
	return filepath.Base(output)
}

// laneBar draws the share of laned objects in each lane
func laneBar(s chart.Summary) string {
	ground := s.Lanes[converter.Ground.String()]
	air := s.Lanes[converter.Air.String()]
	total := ground + air
	if total == 0 {
		return hintStyle.Render(strings.Repeat("·", laneBarWidth)) + " no laned objects"
	}
	g := (ground*laneBarWidth + total/2) / total
	return groundStyle.Render(strings.Repeat("█", g)) +
		airStyle.Render(strings.Repeat("█", laneBarWidth-g)) +
		fmt.Sprintf(" ground %d / air %d", ground, air)
}

func banner() string {
	return groundStyle.Bold(true).Render("osu2rush") + hintStyle.Render("  ground ") +
		groundStyle.Render("▬") + hintStyle.Render("  air ") + airStyle.Render("▬")
}

// Run starts the wizard in the alternate screen
func Run(base chart.Options) error {
	_, err := tea.NewProgram(New(base), tea.WithAltScreen()).Run()
	return err
}

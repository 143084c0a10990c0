// Package tui is the interactive terminal dashboard.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ejiviz/internal/data"
	"ejiviz/internal/eji"
	"ejiviz/internal/guide"
	"ejiviz/internal/logging"
	"ejiviz/internal/metrics"
	"ejiviz/internal/render"
)

type view int

const (
	menuView view = iota
	yearView
	baselineView
	otherView
	geoView
	countyView
	resultView
	savePromptView
)

type mode int

const (
	singleMode mode = iota
	compareMode
	guideMode
)

// Explainer narrates a comparison in prose.
type Explainer interface {
	Explain(ctx context.Context, view eji.ComparisonView) (string, error)
	Model() string
}

// Options configures the dashboard.
type Options struct {
	Loader    data.Loader
	Years     []string
	Explainer Explainer
	Threshold float64
	Logger    *slog.Logger
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	loader    data.Loader
	years     []string
	explainer Explainer
	threshold float64
	logger    *slog.Logger

	currentView view
	mode        mode
	list        list.Model
	saveInput   textinput.Model
	viewport    viewport.Model

	year     string
	baseline string
	other    string
	geo      eji.Geography
	county   string
	counties []string

	single     *eji.YearView
	comparison *eji.ComparisonView
	narration  string
	guidePage  *guide.Page

	width         int
	height        int
	err           error
	loading       bool
	explaining    bool
	status        string
	viewportReady bool
}

type choice struct {
	title string
	desc  string
	value string
}

func (c choice) Title() string       { return c.title }
func (c choice) Description() string { return c.desc }
func (c choice) FilterValue() string { return c.title }

const (
	menuSingle  = "single"
	menuCompare = "compare"
	guidePrefix = "guide:"
)

type yearMsg struct {
	data eji.YearData
	err  error
}

type compareMsg struct {
	baseline eji.YearData
	other    eji.YearData
	err      error
}

type narrationMsg struct {
	text string
	err  error
}

type saveMsg struct {
	filename string
	err      error
}

func loadYear(loader data.Loader, year string) tea.Cmd {
	return func() tea.Msg {
		yd, err := loader.Year(context.Background(), year)
		return yearMsg{data: yd, err: err}
	}
}

func loadComparison(loader data.Loader, baseline, other string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		b, err := loader.Year(ctx, baseline)
		if err != nil {
			return compareMsg{err: err}
		}
		o, err := loader.Year(ctx, other)
		return compareMsg{baseline: b, other: o, err: err}
	}
}

func explain(explainer Explainer, v eji.ComparisonView) tea.Cmd {
	return func() tea.Msg {
		text, err := explainer.Explain(context.Background(), v)
		return narrationMsg{text: text, err: err}
	}
}

func saveViewData(v any, filename string) tea.Cmd {
	return func() tea.Msg {
		jsonData, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return saveMsg{err: fmt.Errorf("failed to marshal data: %w", err)}
		}
		if err := os.WriteFile(filename, jsonData, 0644); err != nil {
			return saveMsg{err: fmt.Errorf("failed to write file: %w", err)}
		}
		return saveMsg{filename: filename}
	}
}

// New builds the dashboard at its menu.
func New(opts Options) Model {
	si := textinput.New()
	si.Placeholder = "Enter filename (e.g., eji_view.json)"
	si.CharLimit = 200
	si.Width = 60

	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowStatusBar(false)
	l.Styles.Title = lipgloss.NewStyle().
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("230")).
		Padding(0, 1)

	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	years := opts.Years
	if len(years) == 0 {
		years = data.SupportedYears
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = eji.HighlightThreshold
	}

	m := Model{
		loader:    opts.Loader,
		years:     years,
		explainer: opts.Explainer,
		threshold: threshold,
		logger:    logging.OrDiscard(opts.Logger),
		saveInput: si,
		viewport:  vp,
		list:      l,
		geo:       eji.GeoState,
	}
	m.showMenu()
	return m
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(
		New(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func (m *Model) setChoices(title string, choices []choice, filter bool) {
	items := make([]list.Item, len(choices))
	for i, c := range choices {
		items[i] = c
	}
	m.list.ResetFilter()
	m.list.Title = title
	m.list.SetFilteringEnabled(filter)
	m.list.SetShowStatusBar(filter)
	m.list.SetItems(items)
	m.list.Select(0)
}

func yearChoices(years []string) []choice {
	out := make([]choice, len(years))
	for i, y := range years {
		out[i] = choice{title: y, desc: "EJI release " + y, value: y}
	}
	return out
}

func (m *Model) showMenu() {
	m.currentView = menuView
	m.single, m.comparison, m.guidePage = nil, nil, nil
	m.narration, m.status, m.err = "", "", nil
	choices := []choice{
		{title: "📊 EJI Visualization", desc: "One year for New Mexico or a county", value: menuSingle},
		{title: "📈 Change Over Years", desc: "Compare two years side by side", value: menuCompare},
	}
	for _, p := range guide.Pages() {
		choices = append(choices, choice{title: p.Title, desc: "Guide", value: guidePrefix + p.Slug})
	}
	m.setChoices("Environmental Justice in New Mexico", choices, false)
}

func (m *Model) showGeography() {
	m.currentView = geoView
	m.setChoices("View EJI data for", []choice{
		{title: eji.StateName, desc: "Statewide values", value: string(eji.GeoState)},
		{title: "County", desc: "Pick a New Mexico county", value: string(eji.GeoCounty)},
	}, false)
}

func (m *Model) showCounties() {
	m.currentView = countyView
	choices := make([]choice, len(m.counties))
	for i, c := range m.counties {
		choices[i] = choice{title: c, desc: c + " County", value: c}
	}
	m.setChoices("Select a New Mexico County", choices, true)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-6)

		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 6
		m.viewportReady = true

		if m.currentView == resultView {
			m.updateResultViewport()
		}
		return m, nil

	case tea.KeyMsg:
		switch m.currentView {
		case resultView:
			return m.handleResultKeys(msg)
		case savePromptView:
			return m.handleSavePromptKeys(msg)
		}
		return m.handleListKeys(msg)

	case tea.MouseMsg:
		if m.currentView == resultView {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case yearMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.logger.Error("Year load failed", "year", m.year, "error", msg.err)
			return m, nil
		}
		m.counties = msg.data.Counties()
		if m.geo == eji.GeoCounty && m.county == "" {
			m.showCounties()
			return m, nil
		}
		v := eji.BuildYearView(msg.data, m.geo, m.county, eji.WithThreshold(m.threshold))
		m.single = &v
		recordView("single", v.Notice)
		m.showResult()
		return m, nil

	case compareMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.logger.Error("Comparison load failed", "baseline", m.baseline, "other", m.other, "error", msg.err)
			return m, nil
		}
		m.counties = msg.baseline.Counties()
		if m.geo == eji.GeoCounty && m.county == "" {
			m.showCounties()
			return m, nil
		}
		v := eji.BuildComparisonView(msg.baseline, msg.other, m.geo, m.county, eji.WithThreshold(m.threshold))
		m.comparison = &v
		recordView("comparison", v.Notice)
		m.showResult()
		return m, nil

	case narrationMsg:
		m.explaining = false
		if msg.err != nil {
			m.err = fmt.Errorf("narration failed: %w", msg.err)
			return m, nil
		}
		m.narration = msg.text
		m.updateResultViewport()
		return m, nil

	case saveMsg:
		m.currentView = resultView
		if msg.err != nil {
			m.err = fmt.Errorf("save failed: %w", msg.err)
			m.logger.Error("Failed to save view", "error", msg.err, "filename", m.saveInput.Value())
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("Saved to: %s", msg.filename)
		m.saveInput.SetValue("")
		m.logger.Info("View saved", "filename", msg.filename)
		return m, nil
	}

	var cmd tea.Cmd
	if m.currentView != resultView && m.currentView != savePromptView {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func recordView(kind, notice string) {
	metrics.RecordView(kind, "tui")
	if notice != "" {
		metrics.RecordNotice(kind)
	}
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEsc:
		if m.currentView == menuView {
			return m, tea.Quit
		}
		m.showMenu()
		return m, nil

	case tea.KeyEnter:
		if m.loading {
			return m, nil
		}
		item, ok := m.list.SelectedItem().(choice)
		if !ok {
			return m, nil
		}
		return m.choose(item)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// choose advances the selection flow from the current screen.
func (m Model) choose(item choice) (tea.Model, tea.Cmd) {
	m.err = nil
	switch m.currentView {
	case menuView:
		switch {
		case item.value == menuSingle:
			m.mode = singleMode
			m.currentView = yearView
			m.setChoices("Select year", yearChoices(m.years), false)
		case item.value == menuCompare:
			m.mode = compareMode
			m.currentView = baselineView
			m.setChoices("Select baseline year", yearChoices(m.years), false)
		case strings.HasPrefix(item.value, guidePrefix):
			p, err := guide.Get(strings.TrimPrefix(item.value, guidePrefix))
			if err != nil {
				m.err = err
				return m, nil
			}
			m.mode = guideMode
			m.guidePage = &p
			m.showResult()
		}

	case yearView:
		m.year = item.value
		m.showGeography()

	case baselineView:
		m.baseline = item.value
		m.currentView = otherView
		m.setChoices("Select comparison year", yearChoices(eji.OtherYears(m.years, m.baseline)), false)

	case otherView:
		m.other = item.value
		m.showGeography()

	case geoView:
		m.geo = eji.Geography(item.value)
		m.county = ""
		return m, m.load()

	case countyView:
		m.county = item.value
		return m, m.load()
	}
	return m, nil
}

func (m *Model) load() tea.Cmd {
	m.loading = true
	if m.mode == compareMode {
		return loadComparison(m.loader, m.baseline, m.other)
	}
	return loadYear(m.loader, m.year)
}

func (m *Model) showResult() {
	m.currentView = resultView
	m.status = ""
	m.narration = ""
	m.viewport.GotoTop()
	m.updateResultViewport()
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEsc:
		m.showMenu()
		return m, nil

	case tea.KeyCtrlY:
		if text := m.plainText(); text != "" {
			if err := clipboard.WriteAll(text); err != nil {
				m.err = fmt.Errorf("copy failed: %w", err)
				return m, nil
			}
			m.status = "Copied table to clipboard"
		}
		return m, nil

	case tea.KeyCtrlW:
		if m.savable() != nil {
			m.currentView = savePromptView
			m.saveInput.Focus()
			m.err = nil
			m.status = ""
			m.saveInput.SetValue(m.defaultFilename())
			return m, textinput.Blink
		}
		return m, nil

	case tea.KeyCtrlE:
		if m.explainer != nil && m.comparison != nil && m.comparison.Found && !m.explaining {
			m.explaining = true
			m.err = nil
			return m, explain(m.explainer, *m.comparison)
		}
		return m, nil

	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown, tea.KeyHome, tea.KeyEnd:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleSavePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.currentView = resultView
		m.saveInput.SetValue("")
		return m, nil

	case tea.KeyEnter:
		filename := m.saveInput.Value()
		if filename == "" {
			m.err = fmt.Errorf("filename cannot be empty")
			return m, nil
		}
		return m, saveViewData(m.savable(), filename)
	}

	var cmd tea.Cmd
	m.saveInput, cmd = m.saveInput.Update(msg)
	return m, cmd
}

// savable is the view written by Ctrl+W, or nil on guide pages.
func (m Model) savable() any {
	switch {
	case m.single != nil:
		return m.single
	case m.comparison != nil:
		return struct {
			*eji.ComparisonView
			Narration string `json:"narration,omitempty"`
		}{m.comparison, m.narration}
	}
	return nil
}

func (m Model) defaultFilename() string {
	area := strings.ReplaceAll(strings.ToLower(eji.StateName), " ", "_")
	if m.geo == eji.GeoCounty && m.county != "" {
		area = strings.ReplaceAll(strings.ToLower(m.county), " ", "_")
	}
	if m.comparison != nil {
		return fmt.Sprintf("eji_%s_%s_vs_%s.json", area, m.baseline, m.other)
	}
	return fmt.Sprintf("eji_%s_%s.json", area, m.year)
}

// plainText is what Ctrl+Y copies.
func (m Model) plainText() string {
	switch {
	case m.single != nil && m.single.Found:
		return render.PlainTable(*m.single.Table)
	case m.comparison != nil && m.comparison.Found:
		return render.PlainTable(*m.comparison.Table) + "\n" + render.PlainDiscrepancies(m.comparison.Discrepancies)
	}
	return ""
}

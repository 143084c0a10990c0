package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ejiviz/internal/eji"
	"ejiviz/internal/guide"
	"ejiviz/internal/render"
)

// View implements tea.Model.
func (m Model) View() string {
	switch m.currentView {
	case resultView:
		return m.resultViewRender()
	case savePromptView:
		return m.savePromptView()
	}
	return m.listViewRender()
}

func (m Model) listViewRender() string {
	var b strings.Builder
	b.WriteString(m.list.View())
	b.WriteString("\n")

	if m.loading {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true).
			Render("⏳ Loading EJI data..."))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Render(fmt.Sprintf("❌ Error: %v", m.err)))
		b.WriteString("\n")
	}

	help := "Enter: Select | Esc: Back | Ctrl+C: Quit"
	if m.currentView == menuView {
		help = "Enter: Select | Esc/Ctrl+C: Quit"
	} else if m.currentView == countyView {
		help = "/: Filter | Enter: Select | Esc: Back | Ctrl+C: Quit"
	}
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(help))
	return b.String()
}

func (m Model) chartWidth() int {
	w := m.width - 40
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	return w
}

// resultContent is the scrollable body of the result screen.
func (m Model) resultContent() string {
	switch {
	case m.guidePage != nil:
		return guideContent(*m.guidePage, m.width)
	case m.single != nil:
		return m.singleContent(*m.single)
	case m.comparison != nil:
		return m.comparisonContent(*m.comparison)
	}
	return ""
}

var (
	infoStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
	captionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)
	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))
)

func guideContent(p guide.Page, width int) string {
	rendered, err := p.Terminal(width)
	if err != nil {
		return p.Markdown
	}
	return rendered
}

func (m Model) info(text string) string {
	style := infoStyle
	if m.width > 10 {
		style = style.Width(m.width - 6)
	}
	return style.Render("ℹ " + text)
}

func (m Model) singleContent(v eji.YearView) string {
	var b strings.Builder
	b.WriteString(m.info(eji.SingleInfo))
	b.WriteString("\n\n")

	if !v.Found {
		b.WriteString(noticeStyle.Render(v.Notice))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(render.TerminalTable(*v.Table))
	b.WriteString("\n\n")
	b.WriteString(render.TerminalChart(*v.Chart, m.chartWidth()))
	b.WriteString("\n\n")
	b.WriteString(captionStyle.Render(eji.Caption))
	b.WriteString("\n")
	return b.String()
}

func (m Model) comparisonContent(v eji.ComparisonView) string {
	var b strings.Builder
	b.WriteString(m.info(eji.ComparisonInfo))
	b.WriteString("\n\n")

	if !v.Found {
		b.WriteString(noticeStyle.Render(v.Notice))
		b.WriteString("\n")
		return b.String()
	}

	if note := v.DroppedNote(); note != "" {
		b.WriteString(captionStyle.Render(note))
		b.WriteString("\n\n")
	}

	b.WriteString(render.TerminalChart(*v.Chart, m.chartWidth()))
	b.WriteString("\n\n")
	b.WriteString(render.TerminalTable(*v.Table))
	b.WriteString("\n\n")
	b.WriteString(sectionStyle.Render("Change by metric"))
	b.WriteString("\n")
	b.WriteString(render.PlainDiscrepancies(v.Discrepancies))
	b.WriteString("\n")

	if m.narration != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("201")).
			Render("🤖 What changed"))
		b.WriteString("\n\n")
		rendered, err := guide.RenderMarkdown(m.narration, m.width)
		if err != nil {
			rendered = m.narration
		}
		b.WriteString(rendered)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(captionStyle.Render(eji.Caption))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) updateResultViewport() {
	if !m.viewportReady {
		return
	}
	m.viewport.SetContent(m.resultContent())
}

func (m Model) resultViewRender() string {
	if !m.viewportReady {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.viewport.TotalLineCount() > m.viewport.Height {
		scrollPercent := int(m.viewport.ScrollPercent() * 100)
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render(fmt.Sprintf("─── %d%% ───", scrollPercent)))
		b.WriteString("\n")
	}

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("226")).
		Bold(true)
	if m.explaining {
		b.WriteString(statusStyle.Render("⏳ Asking the model what changed..."))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true).
			Render("✓ " + m.status))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Render(fmt.Sprintf("❌ Error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(m.resultHelp()))
	return b.String()
}

func (m Model) resultHelp() string {
	if m.guidePage != nil {
		return "↑/↓/PgUp/PgDn: Scroll | Esc: Back | Ctrl+C: Quit"
	}
	parts := []string{"↑/↓/PgUp/PgDn: Scroll", "Ctrl+W: Save", "Ctrl+Y: Copy Table"}
	if m.explainer != nil && m.comparison != nil && m.comparison.Found {
		parts = append(parts, "Ctrl+E: Explain")
	}
	parts = append(parts, "Esc: Back", "Ctrl+C: Quit")
	return strings.Join(parts, " | ")
}

func (m Model) savePromptView() string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		MarginBottom(1).
		Render("💾 Save EJI View"))
	b.WriteString("\n\n")

	infoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	if m.single != nil {
		b.WriteString(infoStyle.Render(fmt.Sprintf("Saving %s, %s", m.single.Area, m.single.Year)))
		b.WriteString("\n\n")
	} else if m.comparison != nil {
		b.WriteString(infoStyle.Render(fmt.Sprintf("Saving %s, %s vs %s", m.comparison.Area, m.comparison.Baseline, m.comparison.Other)))
		b.WriteString("\n\n")
	}

	inputStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)

	b.WriteString("Filename: ")
	b.WriteString(inputStyle.Render(m.saveInput.View()))
	b.WriteString("\n\n")

	info := "The file will contain:\n"
	info += "  • Selected metrics and values\n"
	info += "  • Table and chart layout\n"
	if m.comparison != nil {
		info += "  • Per-metric change between the years\n"
		if m.narration != "" {
			info += "  • Generated explanation\n"
		}
	}
	info += "\nFormat: JSON"
	b.WriteString(infoStyle.Render(info))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf("Error: %v\n", m.err)))
	}

	b.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1).
		Render("Enter: Save | Esc: Cancel | Ctrl+C: Quit"))
	return b.String()
}

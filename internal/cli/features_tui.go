package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/cratemod/pkg/errors"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// featurePickerModel - Interactive feature selection
// =============================================================================

// featurePickerModel is the bubbletea model for picking crate features.
type featurePickerModel struct {
	crate    string
	features []string // sorted feature names
	checked  map[string]bool
	cursor   int
	done     bool
	aborted  bool
}

func newFeaturePickerModel(crate string, available map[string][]string, preselected []string) featurePickerModel {
	checked := make(map[string]bool, len(preselected))
	for _, f := range preselected {
		checked[f] = true
	}
	return featurePickerModel{
		crate:    crate,
		features: sortedFeatureNames(available),
		checked:  checked,
	}
}

func (m featurePickerModel) Init() tea.Cmd {
	return nil
}

func (m featurePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.features)-1 {
				m.cursor++
			}
		case " ":
			f := m.features[m.cursor]
			m.checked[f] = !m.checked[f]
		case "enter":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m featurePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Features of %s", m.crate)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  ⏎ confirm  q abort"))
	b.WriteString("\n\n")

	for i, f := range m.features {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		box := "[ ]"
		if m.checked[f] {
			box = "[x]"
		}

		line := fmt.Sprintf("%s%s %s", cursor, box, f)
		switch {
		case i == m.cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case m.checked[f]:
			b.WriteString(StyleSuccess.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.features))))

	return b.String()
}

// selection returns the checked features in display order.
func (m featurePickerModel) selection() []string {
	var out []string
	for _, f := range m.features {
		if m.checked[f] {
			out = append(out, f)
		}
	}
	return out
}

// pickFeatures runs the interactive picker and returns the chosen
// feature set.
func pickFeatures(crate string, available map[string][]string, preselected []string) ([]string, error) {
	program := tea.NewProgram(newFeaturePickerModel(crate, available, preselected))
	final, err := program.Run()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "feature selection failed")
	}
	model, ok := final.(featurePickerModel)
	if !ok || model.aborted {
		return nil, errors.New(errors.ErrCodeInvalidInput, "feature selection aborted")
	}
	return model.selection(), nil
}

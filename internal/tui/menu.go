package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderMenu renders the main menu screen
func (m Model) renderMenu() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d7ff")).MarginBottom(1)
	menuItemStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff"))
	menuItemSelectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#00d7ff")).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")).PaddingLeft(2)
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafff")).MarginTop(1)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f")).Bold(true).MarginTop(1)

	b.WriteString(titleStyle.Render("agentenv — Main Menu"))
	b.WriteString("\n\n")

	menuItems := DefaultMenuItems()

	for i, item := range menuItems {
		prefix := fmt.Sprintf("[%s] ", item.Key)

		var itemText string
		if i == m.selection {
			itemText = menuItemSelectedStyle.Render(prefix + item.Label)
		} else {
			itemText = menuItemStyle.Render(prefix + item.Label)
		}

		b.WriteString(itemText)
		b.WriteString("\n")
		b.WriteString(descStyle.Render(item.Description))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Navigate: ↑/↓ or numbers | Select: Enter/Space | Back: Esc | Quit: q"))
	b.WriteString("\n")

	if m.lastError != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("⚠ " + m.lastError))
		b.WriteString("\n")
	}

	return b.String()
}

// renderStatusScreen renders the environment status screen
func (m Model) renderStatusScreen() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d7ff")).MarginBottom(1)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd700")).MarginTop(1)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#87d7af"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafff")).MarginTop(1)

	b.WriteString(titleStyle.Render("Environment Status"))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Virtual Environment"))
	b.WriteString("\n")
	b.WriteString(m.renderEnvSection(labelStyle, valueStyle, errorStyle))

	b.WriteString(sectionStyle.Render("Notebook Kernel"))
	b.WriteString("\n")
	b.WriteString(m.renderKernelSection(labelStyle, valueStyle, errorStyle))

	b.WriteString(sectionStyle.Render("Secrets"))
	b.WriteString("\n")
	b.WriteString(m.renderSecretsSection(labelStyle, valueStyle, errorStyle))

	b.WriteString(sectionStyle.Render("Last Setup Run"))
	b.WriteString("\n")
	b.WriteString(m.renderLastRunSection(labelStyle, valueStyle))

	if m.statusMessage != "" {
		b.WriteString("\n")
		b.WriteString(valueStyle.Render(m.statusMessage))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Press 'r' to refresh, Esc to return to menu, 'q' to quit"))
	b.WriteString("\n")

	return b.String()
}

// renderSetupScreen renders the setup screen
func (m Model) renderSetupScreen() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d7ff")).MarginBottom(1)
	textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).MarginTop(1)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f")).Bold(true).MarginTop(1)
	outputStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#d0d0d0")).MarginTop(1)
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafff")).MarginTop(2)

	b.WriteString(titleStyle.Render("Environment Setup"))
	b.WriteString("\n\n")
	b.WriteString(textStyle.Render("Creates the virtual environment, installs dependencies,"))
	b.WriteString("\n")
	b.WriteString(textStyle.Render("registers the Jupyter kernel, and checks the secrets file."))
	b.WriteString("\n")

	if m.setupInProgress {
		b.WriteString(textStyle.Render("Running setup..."))
		b.WriteString("\n")
	}

	if m.setupResult != "" {
		b.WriteString("\n")
		if strings.HasPrefix(m.setupResult, "Setup failed") {
			b.WriteString(errorStyle.Render(m.setupResult))
		} else {
			b.WriteString(textStyle.Render("✓ " + m.setupResult))
		}
		b.WriteString("\n")
	}

	if m.setupOutput != "" {
		b.WriteString("\n")
		b.WriteString(outputStyle.Render(strings.TrimRight(m.setupOutput, "\n")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Press 's' to run setup, Esc to return to menu, 'q' to quit"))
	b.WriteString("\n")

	return b.String()
}

// renderHealthScreen renders the readiness check screen
func (m Model) renderHealthScreen() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d7ff")).MarginBottom(1)
	textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).MarginTop(1)
	outputStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#d0d0d0")).MarginTop(1)
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafff")).MarginTop(2)

	b.WriteString(titleStyle.Render("Readiness Checks"))
	b.WriteString("\n\n")

	if m.healthOutput == "" {
		b.WriteString(textStyle.Render("No checks run yet."))
		b.WriteString("\n")
	} else {
		b.WriteString(outputStyle.Render(strings.TrimRight(m.healthOutput, "\n")))
		b.WriteString("\n")
	}

	if m.healthMessage != "" {
		b.WriteString("\n")
		b.WriteString(textStyle.Render(m.healthMessage))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Press 'r' to run checks, Esc to return to menu, 'q' to quit"))
	b.WriteString("\n")

	return b.String()
}

// renderHelpScreen renders the help screen
func (m Model) renderHelpScreen() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d7ff")).MarginBottom(1)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd700")).MarginTop(1)
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#87d7af")).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff"))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafff")).MarginTop(2)

	b.WriteString(titleStyle.Render("Help — Keyboard Shortcuts"))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Navigation"))
	b.WriteString("\n")
	b.WriteString(keyStyle.Render("1-3, ?      "))
	b.WriteString(descStyle.Render("Quick menu selection by number/key"))
	b.WriteString("\n")
	b.WriteString(keyStyle.Render("↑ / ↓       "))
	b.WriteString(descStyle.Render("Navigate menu items"))
	b.WriteString("\n")
	b.WriteString(keyStyle.Render("Enter/Space "))
	b.WriteString(descStyle.Render("Select highlighted item"))
	b.WriteString("\n")
	b.WriteString(keyStyle.Render("Esc         "))
	b.WriteString(descStyle.Render("Return to main menu"))
	b.WriteString("\n")
	b.WriteString(keyStyle.Render("q / Ctrl+C  "))
	b.WriteString(descStyle.Render("Quit agentenv"))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Screens"))
	b.WriteString("\n")
	b.WriteString(keyStyle.Render("s           "))
	b.WriteString(descStyle.Render("Run setup (Setup screen)"))
	b.WriteString("\n")
	b.WriteString(keyStyle.Render("r           "))
	b.WriteString(descStyle.Render("Refresh status / run checks (Status, Health)"))
	b.WriteString("\n")

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Press Esc to return to menu"))
	b.WriteString("\n")

	return b.String()
}

// renderEnvSection renders the virtual environment section
func (m Model) renderEnvSection(labelStyle, valueStyle, errorStyle lipgloss.Style) string {
	if m.envError != "" {
		return errorStyle.Render(m.envError) + "\n"
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("Python: "))
	b.WriteString(valueStyle.Render(m.envPython))
	b.WriteString("\n")
	return b.String()
}

// renderKernelSection renders the notebook kernel section
func (m Model) renderKernelSection(labelStyle, valueStyle, errorStyle lipgloss.Style) string {
	if !m.cfg.Kernel.Register {
		return valueStyle.Render("Registration disabled") + "\n"
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("Kernel: "))
	b.WriteString(valueStyle.Render(m.cfg.Kernel.Name))
	b.WriteString("  ")
	if m.kernelRegistered {
		b.WriteString(valueStyle.Render("registered"))
	} else {
		b.WriteString(errorStyle.Render("not registered"))
	}
	b.WriteString("\n")
	return b.String()
}

// renderSecretsSection renders the secrets section
func (m Model) renderSecretsSection(labelStyle, valueStyle, errorStyle lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("State: "))
	if m.secretsState == "configured" {
		b.WriteString(valueStyle.Render(m.secretsState))
	} else {
		b.WriteString(errorStyle.Render(m.secretsState))
		b.WriteString("  ")
		b.WriteString(valueStyle.Render(fmt.Sprintf("(set %s in %s)", m.cfg.Secrets.KeyName, m.cfg.Secrets.File)))
	}
	b.WriteString("\n")
	return b.String()
}

// renderLastRunSection renders the last setup run section
func (m Model) renderLastRunSection(labelStyle, valueStyle lipgloss.Style) string {
	if !m.hasLastRun {
		return valueStyle.Render("No runs recorded yet") + "\n"
	}

	outcome := "ok"
	if !m.lastRun.Ok {
		outcome = "failed"
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("Outcome: "))
	b.WriteString(valueStyle.Render(outcome))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("When: "))
	b.WriteString(valueStyle.Render(m.lastRun.Timestamp.Format("2006-01-02 15:04")))
	b.WriteString("\n")
	return b.String()
}

// navigateUp moves selection up in the menu
func (m Model) navigateUp() Model {
	if m.selection > 0 {
		m.selection--
	} else {
		// Wrap to bottom
		m.selection = len(DefaultMenuItems()) - 1
	}
	return m
}

// navigateDown moves selection down in the menu
func (m Model) navigateDown() Model {
	maxIndex := len(DefaultMenuItems()) - 1
	if m.selection < maxIndex {
		m.selection++
	} else {
		// Wrap to top
		m.selection = 0
	}
	return m
}

// selectMenuItem handles menu item selection
func (m Model) selectMenuItem() Model {
	menuItems := DefaultMenuItems()
	if m.selection >= 0 && m.selection < len(menuItems) {
		m.currentScreen = menuItems[m.selection].Screen
		m.lastError = "" // Clear error on screen change
		if m.currentScreen == ScreenStatus {
			m.loadEnvironment()
			m.loadSecrets()
			m.loadLastRun()
		}
	}
	return m
}

// selectMenuByKey handles direct menu selection by key press
func (m Model) selectMenuByKey(key string) Model {
	menuItems := DefaultMenuItems()
	for i, item := range menuItems {
		if item.Key == key {
			m.selection = i
			m.currentScreen = item.Screen
			m.lastError = "" // Clear error on screen change
			if m.currentScreen == ScreenStatus {
				m.loadEnvironment()
				m.loadSecrets()
				m.loadLastRun()
			}
			break
		}
	}
	return m
}

// returnToMenu returns to the main menu
func (m Model) returnToMenu() Model {
	m.currentScreen = ScreenMenu
	m.lastError = "" // Clear error when returning to menu
	return m
}

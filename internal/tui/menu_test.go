package tui

import (
	"strings"
	"testing"
)

func TestModel_NavigateUp(t *testing.T) {
	m := newTestModel(t)
	m.selection = 2

	// Navigate up
	m = m.navigateUp()

	if m.selection != 1 {
		t.Errorf("Expected selection 1, got %d", m.selection)
	}
}

func TestModel_NavigateUp_WrapAround(t *testing.T) {
	m := newTestModel(t)
	m.selection = 0

	// Navigate up from top should wrap to bottom
	m = m.navigateUp()

	expectedIndex := len(DefaultMenuItems()) - 1
	if m.selection != expectedIndex {
		t.Errorf("Expected selection %d (wrap to bottom), got %d", expectedIndex, m.selection)
	}
}

func TestModel_NavigateDown(t *testing.T) {
	m := newTestModel(t)
	m.selection = 1

	// Navigate down
	m = m.navigateDown()

	if m.selection != 2 {
		t.Errorf("Expected selection 2, got %d", m.selection)
	}
}

func TestModel_NavigateDown_WrapAround(t *testing.T) {
	m := newTestModel(t)
	maxIndex := len(DefaultMenuItems()) - 1
	m.selection = maxIndex

	// Navigate down from bottom should wrap to top
	m = m.navigateDown()

	if m.selection != 0 {
		t.Errorf("Expected selection 0 (wrap to top), got %d", m.selection)
	}
}

func TestModel_SelectMenuItem(t *testing.T) {
	m := newTestModel(t)
	m.currentScreen = ScreenMenu
	m.selection = 0 // First item (Status)

	// Select menu item
	m = m.selectMenuItem()

	if m.currentScreen != ScreenStatus {
		t.Errorf("Expected screen status, got %s", m.currentScreen)
	}

	// Should clear error
	if m.lastError != "" {
		t.Errorf("Expected empty error after selection, got %s", m.lastError)
	}
}

func TestModel_SelectMenuByKey(t *testing.T) {
	tests := []struct {
		key            string
		expectedScreen Screen
	}{
		{"1", ScreenStatus},
		{"2", ScreenSetup},
		{"3", ScreenHealth},
		{"?", ScreenHelp},
	}

	for _, tt := range tests {
		t.Run("key_"+tt.key, func(t *testing.T) {
			m := newTestModel(t)
			m.currentScreen = ScreenMenu

			// Select by key
			m = m.selectMenuByKey(tt.key)

			if m.currentScreen != tt.expectedScreen {
				t.Errorf("Key %s: expected screen %s, got %s", tt.key, tt.expectedScreen, m.currentScreen)
			}

			// Should clear error
			if m.lastError != "" {
				t.Errorf("Expected empty error after selection, got %s", m.lastError)
			}
		})
	}
}

func TestModel_ReturnToMenu(t *testing.T) {
	m := newTestModel(t)
	m.currentScreen = ScreenStatus
	m.lastError = "some error"

	// Return to menu
	m = m.returnToMenu()

	if m.currentScreen != ScreenMenu {
		t.Errorf("Expected screen menu, got %s", m.currentScreen)
	}

	// Should clear error
	if m.lastError != "" {
		t.Errorf("Expected empty error after returning to menu, got %s", m.lastError)
	}
}

func TestModel_RenderMenu(t *testing.T) {
	m := newTestModel(t)
	m.currentScreen = ScreenMenu

	output := m.renderMenu()

	// Should contain title
	if !strings.Contains(output, "Main Menu") {
		t.Errorf("Menu output should contain 'Main Menu'")
	}

	// Should contain menu items
	menuItems := DefaultMenuItems()
	for _, item := range menuItems {
		if !strings.Contains(output, item.Label) {
			t.Errorf("Menu output should contain '%s'", item.Label)
		}
	}

	// Should contain navigation hints
	if !strings.Contains(output, "Navigate") {
		t.Errorf("Menu output should contain navigation hints")
	}
}

func TestModel_RenderMenu_WithError(t *testing.T) {
	m := newTestModel(t)
	m.currentScreen = ScreenMenu
	m.lastError = "Test error message"

	output := m.renderMenu()

	// Should contain error message
	if !strings.Contains(output, "Test error message") {
		t.Errorf("Menu output should contain error message")
	}
}

func TestModel_RenderStatusScreen(t *testing.T) {
	m := newTestModel(t)
	m.currentScreen = ScreenStatus

	output := m.renderStatusScreen()

	// Should contain title
	if !strings.Contains(output, "Environment Status") {
		t.Errorf("Status output should contain 'Environment Status'")
	}

	// Should contain sections
	if !strings.Contains(output, "Virtual Environment") {
		t.Errorf("Status output should contain 'Virtual Environment'")
	}

	if !strings.Contains(output, "Notebook Kernel") {
		t.Errorf("Status output should contain 'Notebook Kernel'")
	}

	if !strings.Contains(output, "Secrets") {
		t.Errorf("Status output should contain 'Secrets'")
	}

	if !strings.Contains(output, "Last Setup Run") {
		t.Errorf("Status output should contain 'Last Setup Run'")
	}

	// Should contain hints
	if !strings.Contains(output, "refresh") {
		t.Errorf("Status output should contain refresh hint")
	}
}

func TestModel_RenderStatusScreen_NoRuns(t *testing.T) {
	m := newTestModel(t)
	m.currentScreen = ScreenStatus

	output := m.renderStatusScreen()

	if !strings.Contains(output, "No runs recorded yet") {
		t.Errorf("Status output should report missing run history")
	}
}

func TestModel_RenderSetupScreen(t *testing.T) {
	m := newTestModel(t)
	m.currentScreen = ScreenSetup

	output := m.renderSetupScreen()

	// Should contain title
	if !strings.Contains(output, "Environment Setup") {
		t.Errorf("Setup output should contain 'Environment Setup'")
	}

	// Should contain run hint
	if !strings.Contains(output, "'s'") {
		t.Errorf("Setup output should contain the run hint")
	}
}

func TestModel_RenderSetupScreen_WithResult(t *testing.T) {
	m := newTestModel(t)
	m.currentScreen = ScreenSetup
	m.setupResult = "Setup finished"
	m.setupOutput = "=== Agent Environment Setup ===\n✓ Environment created"

	output := m.renderSetupScreen()

	if !strings.Contains(output, "Setup finished") {
		t.Errorf("Setup output should contain the result message")
	}

	if !strings.Contains(output, "Environment created") {
		t.Errorf("Setup output should contain the captured transcript")
	}
}

func TestModel_RenderHealthScreen(t *testing.T) {
	m := newTestModel(t)
	m.currentScreen = ScreenHealth

	output := m.renderHealthScreen()

	// Should contain title
	if !strings.Contains(output, "Readiness Checks") {
		t.Errorf("Health output should contain 'Readiness Checks'")
	}

	// No checks were run yet
	if !strings.Contains(output, "No checks run yet") {
		t.Errorf("Health output should report that no checks ran")
	}
}

func TestModel_RenderHealthScreen_WithResults(t *testing.T) {
	m := newTestModel(t)
	m.currentScreen = ScreenHealth
	m.healthOutput = "✓ interpreter   Python 3.11.9"
	m.healthMessage = "All checks passed"

	output := m.renderHealthScreen()

	if !strings.Contains(output, "interpreter") {
		t.Errorf("Health output should contain the rendered probe table")
	}

	if !strings.Contains(output, "All checks passed") {
		t.Errorf("Health output should contain the status message")
	}
}

func TestModel_RenderHelpScreen(t *testing.T) {
	m := newTestModel(t)
	m.currentScreen = ScreenHelp

	output := m.renderHelpScreen()

	// Should contain title
	if !strings.Contains(output, "Help") {
		t.Errorf("Help output should contain 'Help'")
	}

	// Should contain keyboard shortcuts
	shortcuts := []string{"↑ / ↓", "Enter/Space", "Esc", "q / Ctrl+C"}
	for _, shortcut := range shortcuts {
		if !strings.Contains(output, shortcut) {
			t.Errorf("Help output should contain shortcut '%s'", shortcut)
		}
	}
}

package tui

import "time"

// Screen represents different TUI screens
type Screen string

const (
	// ScreenMenu is the main menu screen
	ScreenMenu Screen = "menu"
	// ScreenStatus shows the environment status
	ScreenStatus Screen = "status"
	// ScreenSetup runs the environment setup
	ScreenSetup Screen = "setup"
	// ScreenHealth runs readiness checks
	ScreenHealth Screen = "health"
	// ScreenHelp shows help overlay
	ScreenHelp Screen = "help"
)

// MenuItem represents a menu item
type MenuItem struct {
	Key         string // Number key or letter
	Label       string // Display label
	Description string // Short description
	Screen      Screen // Target screen
}

// UIState represents the persisted UI state in ui_state.json
type UIState struct {
	CurrentScreen Screen    `json:"menu"`       // Current screen
	Selection     int       `json:"selection"`  // Current menu selection index
	LastError     string    `json:"last_error"` // Last error message
	Updated       time.Time `json:"updated"`    // Last update timestamp
}

// DefaultMenuItems returns the default main menu items
func DefaultMenuItems() []MenuItem {
	return []MenuItem{
		{Key: "1", Label: "Status", Description: "View environment status", Screen: ScreenStatus},
		{Key: "2", Label: "Setup", Description: "Set up the agent environment", Screen: ScreenSetup},
		{Key: "3", Label: "Health", Description: "Run readiness checks", Screen: ScreenHealth},
		{Key: "?", Label: "Help", Description: "Show help", Screen: ScreenHelp},
	}
}

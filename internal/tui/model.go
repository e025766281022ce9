package tui

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"agentenv/internal/bootstrap"
	"agentenv/internal/config"
	"agentenv/internal/envfile"
	"agentenv/internal/fsutil"
	"agentenv/internal/health"
	"agentenv/internal/history"
	"agentenv/internal/pyenv"
)

// Model represents the TUI application state
type Model struct {
	quitting bool

	logger     *zap.Logger
	cfg        config.Config
	projectDir string
	stateDir   string

	// UI State
	currentScreen Screen
	selection     int
	lastError     string
	stateManager  *UIStateManager

	// Status Screen State
	envPython        string // Interpreter path when the environment is usable
	envError         string // Activation error otherwise
	kernelRegistered bool
	secretsState     string
	lastRun          history.Record
	hasLastRun       bool
	statusMessage    string

	// Setup Screen State
	setupInProgress bool   // Operation in progress
	setupResult     string // Result message
	setupOutput     string // Captured setup transcript

	// Health Screen State
	healthOutput  string // Rendered probe table
	healthMessage string // Status message
}

const down = "down"

// NewModel creates a new TUI model with preloaded environment state
func NewModel(cfg config.Config, projectDir string, logger *zap.Logger) Model {
	stateDir := fsutil.StateDir()

	m := Model{
		logger:        logger,
		cfg:           cfg,
		projectDir:    projectDir,
		stateDir:      stateDir,
		currentScreen: ScreenMenu,
		selection:     0,
		stateManager:  NewUIStateManager(stateDir, logger),
	}

	// Load persisted UI state
	if state, err := m.stateManager.Load(); err == nil {
		m.currentScreen = state.CurrentScreen
		m.selection = state.Selection
		m.lastError = state.LastError
	}

	// Load environment state
	m.loadEnvironment()
	m.loadSecrets()
	m.loadLastRun()

	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if next, handled, cmd := m.handleQuitKeys(keyMsg.String()); handled {
		return next, cmd
	}

	if next, handled := m.handleEscapeKey(keyMsg.String()); handled {
		return next, nil
	}

	if next, handled := m.handleMenuNavigationKeys(keyMsg.String()); handled {
		return next, nil
	}

	if next, handled := m.handleMenuSelectionKey(keyMsg.String()); handled {
		return next, nil
	}

	if next, handled := m.handleShortcutKeys(keyMsg.String()); handled {
		return next, nil
	}

	if next, handled := m.handleStatusScreenKeys(keyMsg.String()); handled {
		return next, nil
	}

	if next, handled := m.handleSetupScreenKeys(keyMsg.String()); handled {
		return next, nil
	}

	if next, handled := m.handleHealthScreenKeys(keyMsg.String()); handled {
		return next, nil
	}

	return m, nil
}

func (m Model) handleQuitKeys(key string) (tea.Model, bool, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		m.quitting = true
		m.saveState()
		return m, true, tea.Quit
	}
	return m, false, nil
}

func (m Model) handleEscapeKey(key string) (tea.Model, bool) {
	if key == "esc" && m.currentScreen != ScreenMenu {
		m = m.returnToMenu()
		m.saveState()
		return m, true
	}
	return m, false
}

func (m Model) handleMenuNavigationKeys(key string) (tea.Model, bool) {
	if m.currentScreen != ScreenMenu {
		return m, false
	}

	switch key {
	case "up", "k":
		return m.navigateUp(), true
	case down, "j":
		return m.navigateDown(), true
	}
	return m, false
}

func (m Model) handleMenuSelectionKey(key string) (tea.Model, bool) {
	if m.currentScreen != ScreenMenu {
		return m, false
	}

	if key == "enter" || key == " " {
		updated := m.selectMenuItem()
		updated.saveState()
		return updated, true
	}
	return m, false
}

func (m Model) handleShortcutKeys(key string) (tea.Model, bool) {
	switch key {
	case "1", "2", "3", "?":
		updated := m.selectMenuByKey(key)
		updated.saveState()
		return updated, true
	}
	return m, false
}

func (m Model) handleStatusScreenKeys(key string) (tea.Model, bool) {
	if m.currentScreen != ScreenStatus {
		return m, false
	}

	if key == "r" {
		return m.refreshStatus(), true
	}
	return m, false
}

func (m Model) handleSetupScreenKeys(key string) (tea.Model, bool) {
	if m.currentScreen != ScreenSetup {
		return m, false
	}

	// Don't handle keys while setup is running
	if m.setupInProgress {
		return m, false
	}

	if key == "s" {
		return m.runSetup(), true
	}
	return m, false
}

func (m Model) handleHealthScreenKeys(key string) (tea.Model, bool) {
	if m.currentScreen != ScreenHealth {
		return m, false
	}

	if key == "r" {
		return m.runHealth(), true
	}
	return m, false
}

// View renders the current screen
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.currentScreen {
	case ScreenMenu:
		return m.renderMenu()
	case ScreenStatus:
		return m.renderStatusScreen()
	case ScreenSetup:
		return m.renderSetupScreen()
	case ScreenHealth:
		return m.renderHealthScreen()
	case ScreenHelp:
		return m.renderHelpScreen()
	default:
		return m.renderMenu()
	}
}

// saveState persists the current UI state
func (m *Model) saveState() {
	state := &UIState{
		CurrentScreen: m.currentScreen,
		Selection:     m.selection,
		LastError:     m.lastError,
	}

	if err := m.stateManager.Save(state); err != nil {
		m.logger.Warn("failed to save ui state", zap.Error(err))
	}
}

// loadEnvironment loads virtual environment and kernel state
func (m *Model) loadEnvironment() {
	envPath := filepath.Join(m.projectDir, m.cfg.Python.EnvDir)

	env, err := pyenv.Activate(envPath)
	if err != nil {
		m.envPython = ""
		m.envError = err.Error()
	} else {
		m.envPython = env.Python
		m.envError = ""
	}

	m.kernelRegistered = pyenv.KernelRegistered(m.cfg.Kernel.Name)
}

// loadSecrets classifies the secrets file without reading it into the UI
func (m *Model) loadSecrets() {
	path := filepath.Join(m.projectDir, m.cfg.Secrets.File)
	m.secretsState = envfile.Inspect(path, m.cfg.Secrets.KeyName, m.cfg.Secrets.Placeholder).String()
}

// loadLastRun loads the most recent setup run from history
func (m *Model) loadLastRun() {
	records, err := history.ReadLast(history.DefaultPath(), 1)
	if err != nil || len(records) == 0 {
		m.hasLastRun = false
		return
	}
	m.lastRun = records[len(records)-1]
	m.hasLastRun = true
}

// refreshStatus reloads all environment state
func (m Model) refreshStatus() Model {
	m.loadEnvironment()
	m.loadSecrets()
	m.loadLastRun()
	m.statusMessage = "Refreshed environment state"
	m.lastError = "" // Clear error on refresh
	return m
}

// runSetup executes the setup sequence and captures its transcript
func (m Model) runSetup() Model {
	m.setupInProgress = true
	m.setupOutput = ""

	var out bytes.Buffer
	toolchain := pyenv.NewLazyToolchain(m.cfg.Python.Version)
	bootstrapper := bootstrap.New(m.cfg, toolchain, m.projectDir, &out, m.logger)
	report, err := bootstrapper.Run(context.Background())
	m.setupOutput = out.String()

	if report != nil {
		writer := history.NewWriter(history.DefaultPath())
		if histErr := writer.Append(history.FromReport(report)); histErr != nil {
			m.logger.Warn("failed to record run history", zap.Error(histErr))
		}
	}

	if err != nil {
		m.setupResult = fmt.Sprintf("Setup failed: %v", err)
		m.lastError = m.setupResult
	} else {
		m.setupResult = "Setup finished"
		m.lastError = "" // Clear error on success
	}

	m.setupInProgress = false

	// The run changed the environment; reload what the other screens show.
	m.loadEnvironment()
	m.loadSecrets()
	m.loadLastRun()
	return m
}

// runHealth runs the readiness probes and renders their results
func (m Model) runHealth() Model {
	toolchain := pyenv.NewLazyToolchain(m.cfg.Python.Version)
	checker := health.NewChecker(m.cfg, toolchain, m.projectDir, m.logger)
	report := checker.Run(context.Background())

	var out bytes.Buffer
	health.Render(&out, report)
	m.healthOutput = out.String()

	if report.Healthy {
		m.healthMessage = "All checks passed"
		m.lastError = ""
	} else {
		m.healthMessage = "Some checks failed"
	}
	return m
}

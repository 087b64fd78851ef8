package comfyui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"
)

const (
	defaultStartupTimeout = 60 * time.Second
	defaultProbeInterval  = 500 * time.Millisecond
)

// ProcessState is the lifecycle state of the managed engine process.
type ProcessState string

const (
	StateStopped  ProcessState = "stopped"
	StateStarting ProcessState = "starting"
	StateReady    ProcessState = "ready"
)

// ProcessConfig describes how to launch and probe a local engine process.
type ProcessConfig struct {
	// Command is the full argv used to launch the engine.
	Command []string
	// Dir is the working directory the engine runs in.
	Dir string
	// BaseURL is the HTTP address probed for readiness.
	BaseURL string
	// StartupTimeout bounds how long Start waits for the first successful
	// probe before killing the process.
	StartupTimeout time.Duration
	// ProbeInterval is the delay between readiness probes.
	ProbeInterval time.Duration
}

// DefaultProcessConfig launches a headless engine on the default local port
// with previews and browser auto-launch disabled.
func DefaultProcessConfig() ProcessConfig {
	return ProcessConfig{
		Command: []string{
			"uv", "run", "comfy", "launch",
			"--listen", "127.0.0.1",
			"--port", "8188",
			"--disable-auto-launch",
			"--preview-method", "none",
		},
		BaseURL:        DefaultBaseURL,
		StartupTimeout: defaultStartupTimeout,
		ProbeInterval:  defaultProbeInterval,
	}
}

// ProcessManager owns the local engine process lifecycle. It is safe for
// concurrent use. Job execution never drives the lifecycle; callers decide
// when the engine starts and stops.
type ProcessManager struct {
	config     ProcessConfig
	logger     *slog.Logger
	httpClient *http.Client

	mu    sync.RWMutex
	state ProcessState
	cmd   *exec.Cmd
}

// NewProcessManager creates a manager in the stopped state. Zero config
// fields fall back to DefaultProcessConfig values.
func NewProcessManager(config ProcessConfig, logger *slog.Logger) *ProcessManager {
	defaults := DefaultProcessConfig()

	if len(config.Command) == 0 {
		config.Command = defaults.Command
	}

	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}

	if config.StartupTimeout <= 0 {
		config.StartupTimeout = defaults.StartupTimeout
	}

	if config.ProbeInterval <= 0 {
		config.ProbeInterval = defaults.ProbeInterval
	}

	return &ProcessManager{
		config:     config,
		logger:     logger.With("module", "comfyui_process"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
		state:      StateStopped,
	}
}

// State returns the current lifecycle state.
func (m *ProcessManager) State() ProcessState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state
}

// Pid returns the engine process id, or zero when no process is running.
func (m *ProcessManager) Pid() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cmd == nil || m.cmd.Process == nil {
		return 0
	}

	return m.cmd.Process.Pid
}

// Start launches the engine process and blocks until it answers the
// readiness probe. Calling Start while the engine is already starting or
// ready is a no-op.
func (m *ProcessManager) Start(ctx context.Context) error {
	m.mu.Lock()

	if m.state != StateStopped {
		m.mu.Unlock()

		return nil
	}

	cmd := exec.Command(m.config.Command[0], m.config.Command[1:]...)
	cmd.Dir = m.config.Dir

	if err := cmd.Start(); err != nil {
		m.mu.Unlock()

		return fmt.Errorf("failed to launch engine process: %w", err)
	}

	m.cmd = cmd
	m.state = StateStarting
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "Engine process launched", "pid", cmd.Process.Pid)

	if err := m.waitReady(ctx); err != nil {
		if stopErr := m.Stop(ctx); stopErr != nil {
			m.logger.ErrorContext(ctx, "Failed to stop engine after startup failure", "error", stopErr)
		}

		return err
	}

	m.mu.Lock()
	m.state = StateReady
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "Engine ready", "base_url", m.config.BaseURL)

	return nil
}

// Stop kills the engine process if one is running. Safe to call in any
// state.
func (m *ProcessManager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd == nil {
		m.state = StateStopped

		return nil
	}

	err := m.cmd.Process.Kill()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to stop engine process: %w", err)
	}

	_ = m.cmd.Wait()

	m.cmd = nil
	m.state = StateStopped

	m.logger.InfoContext(ctx, "Engine process stopped")

	return nil
}

func (m *ProcessManager) waitReady(ctx context.Context) error {
	deadline := time.Now().Add(m.config.StartupTimeout)

	ticker := time.NewTicker(m.config.ProbeInterval)
	defer ticker.Stop()

	for {
		if err := m.probe(ctx); err == nil {
			return nil
		}

		if m.State() == StateStopped {
			return fmt.Errorf("%w: engine was stopped during startup", ErrStartTimeout)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: no successful probe within %s", ErrStartTimeout, m.config.StartupTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *ProcessManager) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.config.BaseURL+"/system_stats", nil)
	if err != nil {
		return fmt.Errorf("failed to build probe request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: probe returned status %d", ErrLocalNotAvailable, resp.StatusCode)
	}

	return nil
}

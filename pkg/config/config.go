// Package config provides configuration loading for the gateway, runner, and
// operator CLI.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/comfyui"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/fal"
)

// Duration is a time.Duration that unmarshals from Go duration strings like
// "90s" or "10m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"90s\": %w", err)
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)

	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full settings file shared by every binary. Zero sections fall
// back to production defaults, so a missing or partial file still yields a
// runnable configuration.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Cloud     CloudConfig     `yaml:"cloud"`
	Retention RetentionConfig `yaml:"retention"`
}

// EngineConfig describes the local generation engine.
type EngineConfig struct {
	// BaseURL is the HTTP address of a running engine.
	BaseURL string `yaml:"base_url"`
	// StartCommand is the argv the operator CLI uses to launch the engine.
	StartCommand []string `yaml:"start_command"`
	// WorkDir is the directory the engine process runs in.
	WorkDir string `yaml:"work_dir"`
	// ReadyTimeout bounds how long a launch waits for the first successful
	// readiness probe.
	ReadyTimeout Duration `yaml:"ready_timeout"`
	// ProbeInterval is the delay between readiness probes.
	ProbeInterval Duration `yaml:"probe_interval"`
}

// ProcessConfig translates the engine section into a launch description.
func (e EngineConfig) ProcessConfig() comfyui.ProcessConfig {
	pc := comfyui.DefaultProcessConfig()

	if e.BaseURL != "" {
		pc.BaseURL = e.BaseURL
	}

	if len(e.StartCommand) > 0 {
		pc.Command = e.StartCommand
	}

	if e.WorkDir != "" {
		pc.Dir = e.WorkDir
	}

	if e.ReadyTimeout > 0 {
		pc.StartupTimeout = e.ReadyTimeout.Std()
	}

	if e.ProbeInterval > 0 {
		pc.ProbeInterval = e.ProbeInterval.Std()
	}

	return pc
}

// CloudConfig describes the serverless queue client.
type CloudConfig struct {
	BaseURL string `yaml:"base_url"`
	// APIKeyEnv names the environment variable holding the queue API key.
	// The key itself never lives in the file.
	APIKeyEnv string     `yaml:"api_key_env"`
	Poll      PollConfig `yaml:"poll"`
}

// PollConfig shapes the status polling schedule for queued cloud jobs.
type PollConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	Growth    float64  `yaml:"growth"`
	MaxDelay  Duration `yaml:"max_delay"`
	// Timeout bounds one uninterrupted poll session per job.
	Timeout Duration `yaml:"timeout"`
}

// ClientConfig translates the cloud section into queue client settings,
// reading the API key from the configured environment variable.
func (c CloudConfig) ClientConfig() fal.Config {
	backoff := fal.DefaultBackoff()

	if c.Poll.BaseDelay > 0 {
		backoff.Base = c.Poll.BaseDelay.Std()
	}

	if c.Poll.Growth >= 1 {
		backoff.Growth = c.Poll.Growth
	}

	if c.Poll.MaxDelay > 0 {
		backoff.Cap = c.Poll.MaxDelay.Std()
	}

	return fal.Config{
		BaseURL: c.BaseURL,
		APIKey:  os.Getenv(c.APIKeyEnv),
		Backoff: backoff,
	}
}

// RetentionConfig schedules the janitor that removes old terminal jobs.
type RetentionConfig struct {
	// Schedule is a standard five-field cron expression.
	Schedule string `yaml:"schedule"`
	// MaxAge is how long terminal jobs are kept.
	MaxAge Duration `yaml:"max_age"`
}

// Default returns the production configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			BaseURL:       comfyui.DefaultBaseURL,
			ReadyTimeout:  Duration(120 * time.Second),
			ProbeInterval: Duration(500 * time.Millisecond),
		},
		Cloud: CloudConfig{
			BaseURL:   fal.DefaultBaseURL,
			APIKeyEnv: "FAL_KEY",
			Poll: PollConfig{
				BaseDelay: Duration(500 * time.Millisecond),
				Growth:    1.5,
				MaxDelay:  Duration(5 * time.Second),
				Timeout:   Duration(10 * time.Minute),
			},
		},
		Retention: RetentionConfig{
			Schedule: "0 * * * *",
			MaxAge:   Duration(30 * 24 * time.Hour),
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// LoadOrDefault loads the file when it exists and falls back to the default
// configuration otherwise. A file that exists but fails to parse or validate
// is still an error.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	return Load(path)
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := validateEngine(c.Engine); err != nil {
		return err
	}

	if err := validateCloud(c.Cloud); err != nil {
		return err
	}

	return validateRetention(c.Retention)
}

func validateEngine(engine EngineConfig) error {
	if err := validateHTTPURL("engine.base_url", engine.BaseURL); err != nil {
		return err
	}

	if engine.ReadyTimeout <= 0 {
		return fmt.Errorf("engine.ready_timeout must be positive")
	}

	return nil
}

func validateCloud(cloud CloudConfig) error {
	if err := validateHTTPURL("cloud.base_url", cloud.BaseURL); err != nil {
		return err
	}

	if cloud.APIKeyEnv == "" {
		return fmt.Errorf("cloud.api_key_env is required")
	}

	poll := cloud.Poll
	if poll.BaseDelay <= 0 {
		return fmt.Errorf("cloud.poll.base_delay must be positive")
	}

	if poll.Growth < 1 {
		return fmt.Errorf("cloud.poll.growth must be at least 1")
	}

	if poll.MaxDelay < poll.BaseDelay {
		return fmt.Errorf("cloud.poll.max_delay must be at least the base delay")
	}

	if poll.Timeout <= 0 {
		return fmt.Errorf("cloud.poll.timeout must be positive")
	}

	return nil
}

func validateRetention(retention RetentionConfig) error {
	if _, err := cron.ParseStandard(retention.Schedule); err != nil {
		return fmt.Errorf("retention.schedule is not a valid cron expression: %w", err)
	}

	if retention.MaxAge <= 0 {
		return fmt.Errorf("retention.max_age must be positive")
	}

	return nil
}

func validateHTTPURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, raw)
	}

	return nil
}

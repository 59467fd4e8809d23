// Package config defines default configuration for the planners, the return policy,
// state locations, logging, telemetry and alerts.
package config

// PlannerConfig bounds the placement and rearrangement search.
type PlannerConfig struct {
	// MaxRearrangeItems caps how many stored items a single rearrangement may relocate.
	MaxRearrangeItems int `mapstructure:"max_rearrange_items"`
	// MaxRearrangeCandidates caps how many blocking candidates are considered per container.
	MaxRearrangeCandidates int `mapstructure:"max_rearrange_candidates"`
}

// ReturnConfig constrains return planning.
type ReturnConfig struct {
	// MaxReturnMass is the ceiling any requested weight budget must respect.
	MaxReturnMass float64 `mapstructure:"max_return_mass"`
	// RulesFile points at a YAML list of CEL admission rules.
	RulesFile string `mapstructure:"rules_file"`
}

// StateConfig locates persisted state.
type StateConfig struct {
	// URL is a local path or "s3://bucket/key" for the warehouse snapshot.
	URL string `mapstructure:"url"`
	// HistoryPath is the JSONL activity ledger.
	HistoryPath string `mapstructure:"history_path"`
	// ArchiveDir receives undocking tombstones.
	ArchiveDir string `mapstructure:"archive_dir"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	// Endpoint is an OTLP/HTTP URL; empty disables export.
	Endpoint string `mapstructure:"endpoint"`
	Disabled bool   `mapstructure:"disabled"`
}

// NotifyConfig routes waste and return alerts.
type NotifyConfig struct {
	// SlackWebhook is an incoming webhook URL; empty disables alerts.
	SlackWebhook string `mapstructure:"slack_webhook"`
	SlackChannel string `mapstructure:"slack_channel"`
}

// Config is the full application configuration.
type Config struct {
	Planner   PlannerConfig   `mapstructure:"planner"`
	Return    ReturnConfig    `mapstructure:"return"`
	State     StateConfig     `mapstructure:"state"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Notify    NotifyConfig    `mapstructure:"notify"`
}

// Defaults.
const (
	DefaultStateURL    = ".stowage/state.json"
	DefaultHistoryPath = ".stowage/history.jsonl"
	DefaultArchiveDir  = ".stowage/archive"
)

// DefaultPlannerConfig returns default search bounds.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		MaxRearrangeItems:      3,
		MaxRearrangeCandidates: 16,
	}
}

// DefaultReturnConfig returns default return constraints.
func DefaultReturnConfig() ReturnConfig {
	return ReturnConfig{
		MaxReturnMass: 10000.0,
	}
}

// DefaultStateConfig returns default local paths.
func DefaultStateConfig() StateConfig {
	return StateConfig{
		URL:         DefaultStateURL,
		HistoryPath: DefaultHistoryPath,
		ArchiveDir:  DefaultArchiveDir,
	}
}

// DefaultLogConfig logs at info level in text form.
func DefaultLogConfig() LogConfig {
	return LogConfig{Level: "info", Format: "text"}
}

// DefaultTelemetryConfig keeps tracing local until an endpoint is set.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{}
}

// Default returns a complete configuration.
func Default() Config {
	return Config{
		Planner:   DefaultPlannerConfig(),
		Return:    DefaultReturnConfig(),
		State:     DefaultStateConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

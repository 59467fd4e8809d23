package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/config"
	"github.com/DrSkyle/stowage/pkg/version"
)

var (
	cfgFile   string
	configErr error
	cfg       = config.Default()
	jsonOut   bool
	userID    string
)

var rootCmd = &cobra.Command{
	Use:   "stowage",
	Short: "Cargo stowage planner",
	Long: `Stowage - Cargo Placement and Return Planning

Place. Retrieve. Return.`,
	Example: `  stowage import cargo.yaml                     # Register containers, stow items
  stowage retrieve kit-01 --user ops            # Take an item out
  stowage simulate --days 7 --use kit-01        # Advance the clock
  stowage return --container R1 --max-weight 120`,
	Version:       version.Current,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent Flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default ~/.stowage.yaml)")
	flags.String("state", config.DefaultStateURL, "Warehouse state location (path or s3://bucket/key)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
	flags.BoolVar(&jsonOut, "json", false, "Print results as JSON")
	flags.StringVar(&userID, "user", os.Getenv("USER"), "User recorded in the activity log")
	flags.String("slack-webhook", "", "Slack webhook for waste and return alerts")

	_ = viper.BindPFlag("state.url", flags.Lookup("state"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("notify.slack_webhook", flags.Lookup("slack-webhook"))

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd)
	})

	rootCmd.AddCommand(importCmd, placeCmd, retrieveCmd, searchCmd, simulateCmd, wasteCmd,
		returnCmd, undockCmd, removeCmd, statusCmd, exportCmd, dashboardCmd, logsCmd)
}

func initConfig() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.SetConfigFile(filepath.Join(home, ".stowage.yaml"))
			viper.SetConfigType("yaml")
		}
	}
	viper.SetEnvPrefix("STOWAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(config.Default())
	configErr = viper.ReadInConfig()
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(d config.Config) {
	viper.SetDefault("planner.max_rearrange_items", d.Planner.MaxRearrangeItems)
	viper.SetDefault("planner.max_rearrange_candidates", d.Planner.MaxRearrangeCandidates)
	viper.SetDefault("return.max_return_mass", d.Return.MaxReturnMass)
	viper.SetDefault("return.rules_file", d.Return.RulesFile)
	viper.SetDefault("state.url", d.State.URL)
	viper.SetDefault("state.history_path", d.State.HistoryPath)
	viper.SetDefault("state.archive_dir", d.State.ArchiveDir)
	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.format", d.Log.Format)
	viper.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	viper.SetDefault("telemetry.disabled", d.Telemetry.Disabled)
	viper.SetDefault("notify.slack_webhook", d.Notify.SlackWebhook)
	viper.SetDefault("notify.slack_channel", d.Notify.SlackChannel)
}

func loadConfig() error {
	// Only an explicitly requested config file has to exist.
	if cfgFile != "" && configErr != nil {
		return fmt.Errorf("failed to read config %s: %w", cfgFile, configErr)
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	slog.SetDefault(newLogger(cfg.Log))
	return nil
}

// newLogger writes to stderr so --json output stays parseable.
func newLogger(lc config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(lc.Level)}
	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, cargo.ErrInvalidInput):
		return 2
	case errors.Is(err, cargo.ErrNotFound):
		return 3
	case errors.Is(err, cargo.ErrNoCapacity), errors.Is(err, cargo.ErrInfeasible):
		return 4
	case errors.Is(err, cargo.ErrConflictingState):
		return 5
	}
	return 1
}

func renderHelp(cmd *cobra.Command) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF99")).
		MarginBottom(1)

	flagStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s %s", strings.ToUpper(version.AppName), version.Current)))
	if cmd.Long != "" {
		fmt.Fprintln(out, cmd.Long)
	} else {
		fmt.Fprintln(out, cmd.Short)
	}

	fmt.Fprintln(out, titleStyle.Render("USAGE"))
	fmt.Fprintf(out, "  %s\n\n", cmd.UseLine())

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintln(out, titleStyle.Render("COMMANDS"))
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() {
				fmt.Fprintf(out, "  %-12s %s\n", c.Name(), c.Short)
			}
		}
		fmt.Fprintln(out)
	}

	if cmd.Example != "" {
		fmt.Fprintln(out, titleStyle.Render("EXAMPLES"))
		fmt.Fprintln(out, cmd.Example)
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, titleStyle.Render("FLAGS"))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-15s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "[]" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Fprintln(out, flagStyle.Render(output))
	})
	fmt.Fprintln(out)
}

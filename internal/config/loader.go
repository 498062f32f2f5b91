package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quietsignal/persona-core/internal/domain/schedule"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "persona.yaml"

// CLIFlags holds command-line flag values. Nil pointers indicate unset flags
// that should not override the config. Use ParseFlags to populate this struct.
type CLIFlags struct {
	ConfigPath *string
	ListenAddr *string
	LogLevel   *string
	DSN        *string
	NatsURL    *string

	// Args holds the positional arguments left over after flag parsing,
	// i.e. the CLI subcommand and its operands (spec.md §6.5), such as
	// ["run", "pipeline"] or ["set", "quiet", "6"].
	Args []string
}

// ParseFlags parses command-line arguments into CLIFlags.
// Call this before Load/LoadWithCLI. Passing nil args parses os.Args[1:].
func ParseFlags(args []string) (CLIFlags, error) {
	var flags CLIFlags

	fs := flag.NewFlagSet("persona-core", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	fs.StringVar(configPath, "c", "", "path to YAML config file (shorthand)")
	listenAddr := fs.String("listen", "", "HTTP listen address for A2A/AGUI routes")
	logLevel := fs.String("log-level", "", "logging level (debug, info, warn, error)")
	dsn := fs.String("dsn", "", "PostgreSQL connection string")
	natsURL := fs.String("nats-url", "", "NATS server URL")

	if err := fs.Parse(args); err != nil {
		return flags, fmt.Errorf("parse flags: %w", err)
	}

	// Only set pointers for flags that were explicitly provided.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "config", "c":
			flags.ConfigPath = configPath
		case "listen":
			flags.ListenAddr = listenAddr
		case "log-level":
			flags.LogLevel = logLevel
		case "dsn":
			flags.DSN = dsn
		case "nats-url":
			flags.NatsURL = natsURL
		}
	})

	flags.Args = fs.Args()
	return flags, nil
}

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadWithCLI returns a Config using the full hierarchy:
// defaults < YAML < ENV < CLI flags. The YAML path can be overridden
// via CLIFlags.ConfigPath.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	yamlPath := DefaultConfigFile
	if flags.ConfigPath != nil {
		yamlPath = *flags.ConfigPath
	}

	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, "", fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, "", fmt.Errorf("config validate: %w", err)
	}

	return &cfg, yamlPath, nil
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// applyCLI overlays CLI flag values onto cfg. Only non-nil flags override.
func applyCLI(cfg *Config, flags CLIFlags) {
	if flags.ListenAddr != nil {
		cfg.Agent.ListenAddr = *flags.ListenAddr
	}
	if flags.LogLevel != nil {
		cfg.Logging.Level = *flags.LogLevel
	}
	if flags.DSN != nil {
		cfg.Postgres.DSN = *flags.DSN
	}
	if flags.NatsURL != nil {
		cfg.NATS.URL = *flags.NatsURL
	}
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Agent.Name, "PERSONA_AGENT_NAME")
	setString(&cfg.Agent.ListenAddr, "PERSONA_LISTEN_ADDR")
	setString(&cfg.State.Dir, "PERSONA_STATE_DIR")

	setDuration(&cfg.Scheduler.TickInterval, "PERSONA_SCHEDULER_TICK_INTERVAL")
	setString(&cfg.Scheduler.QuietWindow, "PERSONA_SCHEDULER_QUIET_WINDOW")

	setString(&cfg.Policy.Profile, "PERSONA_POLICY_PROFILE")

	setInt(&cfg.Memory.SummaryEventCount, "PERSONA_MEMORY_SUMMARY_EVENT_COUNT")
	setDuration(&cfg.Memory.SummaryWindow, "PERSONA_MEMORY_SUMMARY_WINDOW")

	setBool(&cfg.Postgres.Enabled, "PERSONA_POSTGRES_ENABLED")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "PERSONA_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "PERSONA_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "PERSONA_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "PERSONA_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "PERSONA_PG_HEALTH_CHECK")

	setBool(&cfg.NATS.Enabled, "PERSONA_NATS_ENABLED")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Bucket, "PERSONA_NATS_BUCKET")

	setInt64(&cfg.Cache.MaxCostBytes, "PERSONA_CACHE_MAX_COST_BYTES")

	setString(&cfg.Logging.Level, "PERSONA_LOG_LEVEL")
	setString(&cfg.Logging.Service, "PERSONA_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "PERSONA_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "PERSONA_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "PERSONA_BREAKER_TIMEOUT")

	setBool(&cfg.OTEL.Enabled, "PERSONA_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "PERSONA_OTEL_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "PERSONA_OTEL_SERVICE_NAME")
	setBool(&cfg.OTEL.Insecure, "PERSONA_OTEL_INSECURE")
	setFloat64(&cfg.OTEL.SampleRate, "PERSONA_OTEL_SAMPLE_RATE")

	setBool(&cfg.A2A.Enabled, "PERSONA_A2A_ENABLED")
	setBool(&cfg.AGUI.Enabled, "PERSONA_AGUI_ENABLED")

	setBool(&cfg.MCP.Enabled, "PERSONA_MCP_ENABLED")
	setString(&cfg.MCP.ServerAddr, "PERSONA_MCP_SERVER_ADDR")
}

// validate checks that required fields are set and security constraints are met.
func validate(cfg *Config) error {
	if cfg.Agent.Name == "" {
		return errors.New("agent.name is required")
	}
	if cfg.State.Dir == "" {
		return errors.New("state.dir is required")
	}
	if cfg.Scheduler.TickInterval <= 0 {
		return errors.New("scheduler.tick_interval must be > 0")
	}
	if cfg.Postgres.Enabled && cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required when postgres.enabled is true")
	}
	if cfg.Postgres.Enabled && cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.NATS.Enabled && cfg.NATS.URL == "" {
		return errors.New("nats.url is required when nats.enabled is true")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}

	if _, err := parseQuietWindow(cfg.Scheduler.QuietWindow); err != nil {
		return fmt.Errorf("scheduler.quiet_window: %w", err)
	}

	return nil
}

// parseQuietWindow validates the quiet-window string with
// schedule.ParseQuietWindow without retaining the parsed result; main
// parses it again when it builds the scheduler.
func parseQuietWindow(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	if _, err := schedule.ParseQuietWindow(s); err != nil {
		return false, err
	}
	return true, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for sentiboard.
type Config struct {
	API       API       `yaml:"api"`
	Dashboard Dashboard `yaml:"dashboard"`
	Batch     Batch     `yaml:"batch"`
	Startup   Startup   `yaml:"startup"`
	Storage   Storage   `yaml:"storage"`
	Logging   Logging   `yaml:"logging"`
}

// API locates the sentiment-analysis backend.
type API struct {
	BaseURL string        `yaml:"base_url" default:"http://localhost:5000/api" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
}

// Dashboard controls the trend view and TUI behaviour.
type Dashboard struct {
	PageSize        int           `yaml:"page_size" default:"10" validate:"oneof=5 10 15 20"`
	ResetOnChange   bool          `yaml:"reset_on_change" default:"true"`
	RefreshInterval time.Duration `yaml:"refresh_interval" default:"0s" validate:"gte=0"`
	TimelinePoints  int           `yaml:"timeline_points" default:"20" validate:"gte=1"`
	DefaultModel    string        `yaml:"default_model" default:"logistic_regression" validate:"required"`
	ToastDuration   time.Duration `yaml:"toast_duration" default:"3s" validate:"gt=0"`
}

// Batch controls chunked batch analysis.
type Batch struct {
	ChunkSize       int `yaml:"chunk_size" default:"50" validate:"gte=1"`
	RateLimitPerMin int `yaml:"rate_limit_per_min" default:"120" validate:"gte=0"`
}

// Startup controls the health probe run by both binaries.
type Startup struct {
	HealthAttempts int           `yaml:"health_attempts" default:"3" validate:"gte=1"`
	HealthDelay    time.Duration `yaml:"health_delay" default:"500ms" validate:"gte=0"`
}

// Storage holds paths for local snapshots and exports.
type Storage struct {
	DataDir       string `yaml:"data_dir" default:".sentiboard" validate:"required"`
	SQLitePath    string `yaml:"sqlite_path"`
	KeepSnapshots int    `yaml:"keep_snapshots" default:"50" validate:"gte=1"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"text" validate:"oneof=text json"`
	File   string `yaml:"file"`
}

// SnapshotDB returns the SQLite path, defaulting to a file inside DataDir.
func (s Storage) SnapshotDB() string {
	if s.SQLitePath != "" {
		return s.SQLitePath
	}
	return filepath.Join(s.DataDir, "snapshots.db")
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

var validate = validator.New()

// Load builds the configuration: struct defaults, then the YAML file at
// path, then environment overrides, then validation. An empty path skips the
// file. When explicit is false a missing file is not an error.
func Load(path string, explicit bool) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("setting defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolvePath picks the config file from the -config flag value or the
// SENTIBOARD_CONFIG variable, falling back to sentiboard.yaml. explicit
// reports whether the user named the file.
func ResolvePath(flagValue string) (path string, explicit bool) {
	if flagValue != "" {
		return flagValue, true
	}
	if v := os.Getenv("SENTIBOARD_CONFIG"); v != "" {
		return v, true
	}
	return "sentiboard.yaml", false
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SENTIBOARD_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}

	if v := os.Getenv("SENTIBOARD_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SENTIBOARD_PAGE_SIZE: %w", err)
		}
		cfg.Dashboard.PageSize = n
	}

	if v := os.Getenv("SENTIBOARD_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// FieldError describes one invalid configuration field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every invalid field found by Validate.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Validate checks cfg against its field rules and reports every violation.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		field := yamlPath(fe.StructNamespace())
		out.Fields = append(out.Fields, FieldError{Field: field, Message: fieldMessage(field, fe)})
	}
	return out
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// yamlPath converts a validator namespace such as "Config.API.BaseURL" into
// the YAML key path "api.base_url".
func yamlPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 0 {
		parts = parts[1:]
	}
	t := reflect.TypeOf(Config{})
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		f, ok := t.FieldByName(p)
		if !ok {
			keys = append(keys, strings.ToLower(p))
			continue
		}
		key, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		keys = append(keys, key)
		t = f.Type
	}
	return strings.Join(keys, ".")
}

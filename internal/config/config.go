// Package config provides configuration loading and validation for the server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Question generator backends
const (
	BackendTemplate = "template"
	BackendLLM      = "llm"
)

// Config is the runtime configuration. Load reads it from the environment;
// LoadFile overlays a JSON file on top.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Storage    StorageConfig    `json:"storage"`
	Mail       MailConfig       `json:"mail"`
	Redis      RedisConfig      `json:"redis"`
	Assessment AssessmentConfig `json:"assessment"`
	LLM        LLMConfig        `json:"llm"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port           int      `json:"port" validate:"gte=1,lte=65535"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
}

// DatabaseConfig configures PostgreSQL.
type DatabaseConfig struct {
	URL string `json:"url,omitempty"`
}

// StorageConfig configures the resume bucket.
type StorageConfig struct {
	Bucket          string   `json:"bucket,omitempty"`
	CredentialsFile string   `json:"credentials_file,omitempty"`
	ResumePrefix    string   `json:"resume_prefix" validate:"required"`
	ListPageSize    int      `json:"list_page_size" validate:"gte=1,lte=1000"`
	SignedURLTTL    Duration `json:"signed_url_ttl" validate:"gt=0"`
}

// MailConfig configures outbound email.
type MailConfig struct {
	SMTPHost   string `json:"smtp_host,omitempty"`
	SMTPPort   int    `json:"smtp_port" validate:"gte=1,lte=65535"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
	From       string `json:"from,omitempty" validate:"omitempty,email"`
	AppBaseURL string `json:"app_base_url" validate:"required,url"`
}

// RedisConfig configures the shared mail throttle. An empty address disables it.
type RedisConfig struct {
	Address       string `json:"address,omitempty"`
	Password      string `json:"password,omitempty"`
	DB            int    `json:"db" validate:"gte=0"`
	MailPerMinute int    `json:"mail_per_minute" validate:"gte=0"`
}

// AssessmentConfig configures generation and dispatch.
type AssessmentConfig struct {
	ExpiryWindow        Duration `json:"expiry_window" validate:"gt=0"`
	Difficulty          string   `json:"difficulty" validate:"oneof=easy medium hard"`
	GeneratorBackend    string   `json:"generator_backend" validate:"oneof=template llm"`
	SectionTimeout      Duration `json:"section_timeout" validate:"gte=0"`
	DispatchDelay       Duration `json:"dispatch_delay" validate:"gte=0"`
	DispatchConcurrency int      `json:"dispatch_concurrency" validate:"gte=1,lte=4"`
}

// LLMConfig configures the language model backend.
type LLMConfig struct {
	APIKey string `json:"api_key,omitempty"`
}

// Duration is a time.Duration that reads "90s" style strings from JSON.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080},
		Storage: StorageConfig{ResumePrefix: "resumes/", ListPageSize: 100, SignedURLTTL: Duration(time.Hour)},
		Mail:    MailConfig{SMTPPort: 587, AppBaseURL: "http://localhost:3000"},
		Redis:   RedisConfig{MailPerMinute: 60},
		Assessment: AssessmentConfig{
			ExpiryWindow:        Duration(7 * 24 * time.Hour),
			Difficulty:          "medium",
			GeneratorBackend:    BackendTemplate,
			SectionTimeout:      Duration(30 * time.Second),
			DispatchDelay:       Duration(500 * time.Millisecond),
			DispatchConcurrency: 1,
		},
	}
}

// Load reads configuration from environment variables over the defaults.
// Malformed numbers and durations are reported rather than ignored.
func Load() (*Config, error) {
	cfg := Default()
	env := envReader{}

	cfg.Server.Port = env.getInt("PORT", cfg.Server.Port)
	cfg.Server.AllowedOrigins = env.getList("CORS_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Database.URL = env.getString("DATABASE_URL", cfg.Database.URL)

	cfg.Storage.Bucket = env.getString("GCS_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.CredentialsFile = env.getString("GOOGLE_APPLICATION_CREDENTIALS", cfg.Storage.CredentialsFile)
	cfg.Storage.ResumePrefix = env.getString("RESUME_PREFIX", cfg.Storage.ResumePrefix)
	cfg.Storage.ListPageSize = env.getInt("RESUME_LIST_PAGE_SIZE", cfg.Storage.ListPageSize)
	cfg.Storage.SignedURLTTL = env.getDuration("RESUME_URL_TTL", cfg.Storage.SignedURLTTL)

	cfg.Mail.SMTPHost = env.getString("SMTP_HOST", cfg.Mail.SMTPHost)
	cfg.Mail.SMTPPort = env.getInt("SMTP_PORT", cfg.Mail.SMTPPort)
	cfg.Mail.Username = env.getString("SMTP_USERNAME", cfg.Mail.Username)
	cfg.Mail.Password = env.getString("SMTP_PASSWORD", cfg.Mail.Password)
	cfg.Mail.From = env.getString("MAIL_FROM", cfg.Mail.From)
	cfg.Mail.AppBaseURL = env.getString("APP_BASE_URL", cfg.Mail.AppBaseURL)

	cfg.Redis.Address = env.getString("REDIS_ADDR", cfg.Redis.Address)
	cfg.Redis.Password = env.getString("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = env.getInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.MailPerMinute = env.getInt("MAIL_PER_MINUTE", cfg.Redis.MailPerMinute)

	cfg.Assessment.ExpiryWindow = env.getDuration("ASSESSMENT_EXPIRY", cfg.Assessment.ExpiryWindow)
	cfg.Assessment.Difficulty = env.getString("ASSESSMENT_DIFFICULTY", cfg.Assessment.Difficulty)
	cfg.Assessment.GeneratorBackend = env.getString("QUESTION_BACKEND", cfg.Assessment.GeneratorBackend)
	cfg.Assessment.SectionTimeout = env.getDuration("QUESTION_SECTION_TIMEOUT", cfg.Assessment.SectionTimeout)
	cfg.Assessment.DispatchDelay = env.getDuration("DISPATCH_DELAY", cfg.Assessment.DispatchDelay)
	cfg.Assessment.DispatchConcurrency = env.getInt("DISPATCH_CONCURRENCY", cfg.Assessment.DispatchConcurrency)

	cfg.LLM.APIKey = env.getString("GEMINI_API_KEY", cfg.LLM.APIKey)

	if len(env.errs) > 0 {
		return nil, fmt.Errorf("config error: %w", env.errs[0])
	}
	return cfg, nil
}

// LoadFile overlays the JSON file at path onto cfg. Fields absent from the
// file keep their current values.
func LoadFile(cfg *Config, path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return nil
}

// Validate checks value ranges. Settings needed only by some commands, such
// as the database URL, are checked by the Require helpers.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.Assessment.GeneratorBackend == BackendLLM && c.LLM.APIKey == "" {
		return fmt.Errorf("config error: GEMINI_API_KEY is required when QUESTION_BACKEND=llm")
	}
	return nil
}

// RequireDatabase reports a missing database URL.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return nil
}

// RequireStorage reports a missing resume bucket.
func (c *Config) RequireStorage() error {
	if c.Storage.Bucket == "" {
		return fmt.Errorf("GCS_BUCKET environment variable is required")
	}
	return nil
}

// envReader reads typed environment variables, collecting parse errors.
type envReader struct {
	errs []error
}

func (r *envReader) getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (r *envReader) getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %v", key, err))
		return def
	}
	return n
}

func (r *envReader) getDuration(key string, def Duration) Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %v", key, err))
		return def
	}
	return Duration(d)
}

func (r *envReader) getList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

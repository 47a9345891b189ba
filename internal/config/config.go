// Package config provides configuration loading and validation for the
// service and the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
)

// Config is the full service configuration. Every field is optional in a
// config file; missing values come from environment variables or Default.
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server"`
	LLM        LLMConfig        `json:"llm" yaml:"llm"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Twilio     TwilioConfig     `json:"twilio" yaml:"twilio"`
	Archive    ArchiveConfig    `json:"archive" yaml:"archive"`
	Events     EventsConfig     `json:"events" yaml:"events"`
	Auth       AuthConfig       `json:"auth" yaml:"auth"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Verbose    bool             `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// ServerConfig configures the HTTP entry point.
type ServerConfig struct {
	Port int `json:"port,omitempty" yaml:"port,omitempty"`
	// PublicURL is the externally visible webhook base URL used to check
	// Twilio signatures, e.g. "https://cv.example.com".
	PublicURL              string `json:"public_url,omitempty" yaml:"public_url,omitempty"`
	ValidateSignature      bool   `json:"validate_signature,omitempty" yaml:"validate_signature,omitempty"`
	RateLimitPerMinute     int    `json:"rate_limit_per_minute,omitempty" yaml:"rate_limit_per_minute,omitempty"`
	RateLimitBurst         int    `json:"rate_limit_burst,omitempty" yaml:"rate_limit_burst,omitempty"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds,omitempty" yaml:"shutdown_timeout_seconds,omitempty"`
	MaxAttachmentBytes     int64  `json:"max_attachment_bytes,omitempty" yaml:"max_attachment_bytes,omitempty"`
}

// LLMConfig selects the remote extraction service.
type LLMConfig struct {
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"` // "gemini" or "openai"
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
}

// StoreConfig selects and configures the tabular store.
type StoreConfig struct {
	Backend    string `json:"backend,omitempty" yaml:"backend,omitempty"`
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
	SheetID    string `json:"sheet_id,omitempty" yaml:"sheet_id,omitempty"`
	SheetTitle string `json:"sheet_title,omitempty" yaml:"sheet_title,omitempty"`
	// CredentialsPath points at a service account JSON file.
	CredentialsPath string `json:"credentials_path,omitempty" yaml:"credentials_path,omitempty"`
	// CredentialsBase64 holds the same JSON, base64 encoded, for deployments
	// without a writable filesystem.
	CredentialsBase64 string `json:"credentials_base64,omitempty" yaml:"credentials_base64,omitempty"`
	DatabaseURL       string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
}

// TwilioConfig holds the messaging account.
type TwilioConfig struct {
	AccountSID     string `json:"account_sid,omitempty" yaml:"account_sid,omitempty"`
	AuthToken      string `json:"auth_token,omitempty" yaml:"auth_token,omitempty"`
	WhatsAppNumber string `json:"whatsapp_number,omitempty" yaml:"whatsapp_number,omitempty"`
}

// ArchiveConfig enables attachment archiving when Bucket is set.
type ArchiveConfig struct {
	Bucket    string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty"`
	PathStyle bool   `json:"path_style,omitempty" yaml:"path_style,omitempty"`
}

// EventsConfig enables event publishing when URL is set.
type EventsConfig struct {
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	Exchange string `json:"exchange,omitempty" yaml:"exchange,omitempty"`
}

// AuthConfig protects the admin API.
type AuthConfig struct {
	AdminUsername      string `json:"admin_username,omitempty" yaml:"admin_username,omitempty"`
	AdminPasswordHash  string `json:"admin_password_hash,omitempty" yaml:"admin_password_hash,omitempty"`
	PasswordPepper     string `json:"password_pepper,omitempty" yaml:"password_pepper,omitempty"`
	JWTSecret          string `json:"jwt_secret,omitempty" yaml:"jwt_secret,omitempty"`
	JWTExpirationHours int    `json:"jwt_expiration_hours,omitempty" yaml:"jwt_expiration_hours,omitempty"`
}

// ExtractionConfig tunes the remote extraction call.
type ExtractionConfig struct {
	MaxInputChars      int     `json:"max_input_chars,omitempty" yaml:"max_input_chars,omitempty"`
	Temperature        float32 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxOutputTokens    int32   `json:"max_output_tokens,omitempty" yaml:"max_output_tokens,omitempty"`
	TimeoutSeconds     int     `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	ExperienceMaxChars int     `json:"experience_max_chars,omitempty" yaml:"experience_max_chars,omitempty"`
}

// Timeout returns the extraction timeout as a duration.
func (e ExtractionConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown window as a duration.
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:                   8080,
			RateLimitPerMinute:     20,
			RateLimitBurst:         5,
			ShutdownTimeoutSeconds: 10,
			MaxAttachmentBytes:     10 << 20,
		},
		LLM: LLMConfig{Provider: "gemini"},
		Store: StoreConfig{
			Backend:    BackendSQLite,
			SQLitePath: "data/candidates.db",
			SheetTitle: "Sheet1",
		},
		Events: EventsConfig{Exchange: "cv_intake"},
		Auth: AuthConfig{
			AdminUsername:      "admin",
			JWTExpirationHours: 24,
		},
		Extraction: ExtractionConfig{
			MaxInputChars:      8000,
			Temperature:        0.1,
			MaxOutputTokens:    2000,
			TimeoutSeconds:     30,
			ExperienceMaxChars: 500,
		},
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case ".json", "":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}

	return &cfg, nil
}

// ApplyEnv overrides fields with any environment variables that are set.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"PUBLIC_URL":                &c.Server.PublicURL,
		"LLM_PROVIDER":              &c.LLM.Provider,
		"LLM_API_KEY":               &c.LLM.APIKey,
		"LLM_BASE_URL":              &c.LLM.BaseURL,
		"LLM_MODEL":                 &c.LLM.Model,
		"STORE_BACKEND":             &c.Store.Backend,
		"SQLITE_PATH":               &c.Store.SQLitePath,
		"GOOGLE_SHEET_ID":           &c.Store.SheetID,
		"GOOGLE_SHEET_TITLE":        &c.Store.SheetTitle,
		"GOOGLE_CREDENTIALS_PATH":   &c.Store.CredentialsPath,
		"GOOGLE_CREDENTIALS_BASE64": &c.Store.CredentialsBase64,
		"DATABASE_URL":              &c.Store.DatabaseURL,
		"TWILIO_ACCOUNT_SID":        &c.Twilio.AccountSID,
		"TWILIO_AUTH_TOKEN":         &c.Twilio.AuthToken,
		"TWILIO_WHATSAPP_NUMBER":    &c.Twilio.WhatsAppNumber,
		"ARCHIVE_BUCKET":            &c.Archive.Bucket,
		"ARCHIVE_PREFIX":            &c.Archive.Prefix,
		"ARCHIVE_REGION":            &c.Archive.Region,
		"ARCHIVE_ENDPOINT":          &c.Archive.Endpoint,
		"ARCHIVE_ACCESS_KEY":        &c.Archive.AccessKey,
		"ARCHIVE_SECRET_KEY":        &c.Archive.SecretKey,
		"AMQP_URL":                  &c.Events.URL,
		"AMQP_EXCHANGE":             &c.Events.Exchange,
		"ADMIN_USERNAME":            &c.Auth.AdminUsername,
		"ADMIN_PASSWORD_HASH":       &c.Auth.AdminPasswordHash,
		"PASSWORD_PEPPER":           &c.Auth.PasswordPepper,
		"JWT_SECRET":                &c.Auth.JWTSecret,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	// Provider specific keys only fill an unset API key.
	if c.LLM.APIKey == "" {
		for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY"} {
			if v, ok := lookup(key); ok && v != "" {
				c.LLM.APIKey = v
				break
			}
		}
	}

	ints := map[string]*int{
		"PORT":                       &c.Server.Port,
		"RATE_LIMIT_PER_MINUTE":      &c.Server.RateLimitPerMinute,
		"RATE_LIMIT_BURST":           &c.Server.RateLimitBurst,
		"JWT_EXPIRATION_HOURS":       &c.Auth.JWTExpirationHours,
		"EXTRACTION_TIMEOUT_SECONDS": &c.Extraction.TimeoutSeconds,
		"EXTRACTION_MAX_INPUT_CHARS": &c.Extraction.MaxInputChars,
		"EXPERIENCE_MAX_CHARS":       &c.Extraction.ExperienceMaxChars,
		"SHUTDOWN_TIMEOUT_SECONDS":   &c.Server.ShutdownTimeoutSeconds,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", key, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"TWILIO_VALIDATE_SIGNATURE": &c.Server.ValidateSignature,
		"ARCHIVE_PATH_STYLE":        &c.Archive.PathStyle,
		"VERBOSE":                   &c.Verbose,
	}
	for key, dst := range bools {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", key, err)
		}
		*dst = b
	}

	if v, ok := lookup("MAX_ATTACHMENT_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_ATTACHMENT_BYTES: %v", err)
		}
		c.Server.MaxAttachmentBytes = n
	}
	return nil
}

// Validate checks that the configuration has valid values.
// Credentials that only some commands need are not required here.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("config error: 'store.sqlite_path' is required for the sqlite backend")
		}
	case BackendSheets:
		if c.Store.SheetID == "" {
			return fmt.Errorf("config error: 'store.sheet_id' is required for the sheets backend")
		}
		if c.Store.CredentialsPath == "" && c.Store.CredentialsBase64 == "" {
			return fmt.Errorf("config error: sheets backend needs 'store.credentials_path' or 'store.credentials_base64'")
		}
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("config error: 'store.database_url' is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config error: unknown store backend %q", c.Store.Backend)
	}

	switch c.LLM.Provider {
	case "", "gemini", "openai":
	default:
		return fmt.Errorf("config error: unknown llm provider %q", c.LLM.Provider)
	}

	// Validate numeric ranges
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' out of range: %d", c.Server.Port)
	}
	if c.Server.RateLimitPerMinute <= 0 {
		return fmt.Errorf("config error: 'server.rate_limit_per_minute' must be positive")
	}
	if c.Server.RateLimitBurst <= 0 {
		return fmt.Errorf("config error: 'server.rate_limit_burst' must be positive")
	}
	if c.Server.ShutdownTimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'server.shutdown_timeout_seconds' must be non-negative")
	}
	if c.Server.MaxAttachmentBytes < 0 {
		return fmt.Errorf("config error: 'server.max_attachment_bytes' must be non-negative")
	}
	if c.Extraction.TimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'extraction.timeout_seconds' must be non-negative")
	}
	if c.Extraction.MaxInputChars < 0 || c.Extraction.ExperienceMaxChars < 0 || c.Extraction.MaxOutputTokens < 0 {
		return fmt.Errorf("config error: extraction limits must be non-negative")
	}
	if c.Extraction.Temperature < 0 || c.Extraction.Temperature > 2 {
		return fmt.Errorf("config error: 'extraction.temperature' must be between 0 and 2")
	}
	if c.Server.ValidateSignature && c.Twilio.AuthToken == "" {
		return fmt.Errorf("config error: signature validation needs 'twilio.auth_token'")
	}

	if c.Store.CredentialsPath != "" {
		if _, err := os.Stat(c.Store.CredentialsPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: credentials file not found: %s", c.Store.CredentialsPath)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from
// defaults. Bool fields cannot distinguish unset from false and are not merged.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	mergeString(&result.Server.PublicURL, defaults.Server.PublicURL)
	mergeInt(&result.Server.Port, defaults.Server.Port)
	mergeInt(&result.Server.RateLimitPerMinute, defaults.Server.RateLimitPerMinute)
	mergeInt(&result.Server.RateLimitBurst, defaults.Server.RateLimitBurst)
	mergeInt(&result.Server.ShutdownTimeoutSeconds, defaults.Server.ShutdownTimeoutSeconds)
	if result.Server.MaxAttachmentBytes == 0 {
		result.Server.MaxAttachmentBytes = defaults.Server.MaxAttachmentBytes
	}

	mergeString(&result.LLM.Provider, defaults.LLM.Provider)
	mergeString(&result.LLM.APIKey, defaults.LLM.APIKey)
	mergeString(&result.LLM.BaseURL, defaults.LLM.BaseURL)
	mergeString(&result.LLM.Model, defaults.LLM.Model)

	mergeString(&result.Store.Backend, defaults.Store.Backend)
	mergeString(&result.Store.SQLitePath, defaults.Store.SQLitePath)
	mergeString(&result.Store.SheetID, defaults.Store.SheetID)
	mergeString(&result.Store.SheetTitle, defaults.Store.SheetTitle)
	mergeString(&result.Store.CredentialsPath, defaults.Store.CredentialsPath)
	mergeString(&result.Store.CredentialsBase64, defaults.Store.CredentialsBase64)
	mergeString(&result.Store.DatabaseURL, defaults.Store.DatabaseURL)

	mergeString(&result.Twilio.AccountSID, defaults.Twilio.AccountSID)
	mergeString(&result.Twilio.AuthToken, defaults.Twilio.AuthToken)
	mergeString(&result.Twilio.WhatsAppNumber, defaults.Twilio.WhatsAppNumber)

	mergeString(&result.Archive.Bucket, defaults.Archive.Bucket)
	mergeString(&result.Archive.Prefix, defaults.Archive.Prefix)
	mergeString(&result.Archive.Region, defaults.Archive.Region)
	mergeString(&result.Archive.Endpoint, defaults.Archive.Endpoint)
	mergeString(&result.Archive.AccessKey, defaults.Archive.AccessKey)
	mergeString(&result.Archive.SecretKey, defaults.Archive.SecretKey)

	mergeString(&result.Events.URL, defaults.Events.URL)
	mergeString(&result.Events.Exchange, defaults.Events.Exchange)

	mergeString(&result.Auth.AdminUsername, defaults.Auth.AdminUsername)
	mergeString(&result.Auth.AdminPasswordHash, defaults.Auth.AdminPasswordHash)
	mergeString(&result.Auth.PasswordPepper, defaults.Auth.PasswordPepper)
	mergeString(&result.Auth.JWTSecret, defaults.Auth.JWTSecret)
	mergeInt(&result.Auth.JWTExpirationHours, defaults.Auth.JWTExpirationHours)

	mergeInt(&result.Extraction.MaxInputChars, defaults.Extraction.MaxInputChars)
	mergeInt(&result.Extraction.TimeoutSeconds, defaults.Extraction.TimeoutSeconds)
	mergeInt(&result.Extraction.ExperienceMaxChars, defaults.Extraction.ExperienceMaxChars)
	if result.Extraction.Temperature == 0 {
		result.Extraction.Temperature = defaults.Extraction.Temperature
	}
	if result.Extraction.MaxOutputTokens == 0 {
		result.Extraction.MaxOutputTokens = defaults.Extraction.MaxOutputTokens
	}

	return result
}

func mergeString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func mergeInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

// Load reads the optional file at path, applies environment overrides and
// defaults, and validates the result.
func Load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	merged := cfg.MergeWithDefaults(Default())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	LogDir      string `toml:"log_dir"`
	ChannelsCSV string `toml:"channels_csv"`
}

// Server contains the HTTP surface configuration.
type Server struct {
	Bind          string `toml:"bind"`
	PublicBaseURL string `toml:"public_base_url"`
	CSVUser       string `toml:"csv_user"`
	CSVPassword   string `toml:"csv_password"`
	WebhookSecret string `toml:"webhook_secret"`
}

// Aristote contains credentials and connection settings for the enrichment API.
type Aristote struct {
	BaseURL           string `toml:"base_url"`
	PortalBaseURL     string `toml:"portal_base_url"`
	ClientID          string `toml:"client_id"`
	ClientSecret      string `toml:"client_secret"`
	EndUserIdentifier string `toml:"end_user_identifier"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

// MediaServer contains connection settings for the media platform API.
type MediaServer struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains lifecycle policy knobs.
type Workflow struct {
	// StuckAfterHours is how long a job may sit in UPLOADING_MEDIA before the
	// stuck pass considers it abandoned.
	StuckAfterHours int `toml:"stuck_after_hours"`
	// ResourceOrder selects which downloadable resource the export endpoint
	// serves: "smallest" or "largest" by file size.
	ResourceOrder string `toml:"resource_order"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for enrichd.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and the channel language CSV
//   - Server: HTTP bind address, public callback base URL, endpoint auth
//   - Aristote: enrichment API credentials
//   - MediaServer: media platform API credentials
//   - Workflow: stuck threshold and resource ordering policy
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Server      Server      `toml:"server"`
	Aristote    Aristote    `toml:"aristote"`
	MediaServer MediaServer `toml:"mediaserver"`
	Workflow    Workflow    `toml:"workflow"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/enrichd/config.toml")
}

// Load locates, parses, and validates a configuration file. A local .env file,
// when present, is read first so secrets can stay out of the TOML file. The
// returned config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	// Missing .env is fine; deployments may rely on real environment variables.
	_ = godotenv.Load(".env")

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		key    string
		target *string
	}{
		{"ARISTOTE_API_BASE_URL", &c.Aristote.BaseURL},
		{"ARISTOTE_API_CLIENT_ID", &c.Aristote.ClientID},
		{"ARISTOTE_API_CLIENT_SECRET", &c.Aristote.ClientSecret},
		{"ARISTOTE_END_USER_IDENTIFIER", &c.Aristote.EndUserIdentifier},
		{"MEDIASERVER_URL", &c.MediaServer.URL},
		{"MEDIASERVER_API_KEY", &c.MediaServer.APIKey},
		{"ENRICHD_PUBLIC_BASE_URL", &c.Server.PublicBaseURL},
		{"ENRICHD_CSV_PASSWORD", &c.Server.CSVPassword},
		{"ENRICHD_WEBHOOK_SECRET", &c.Server.WebhookSecret},
	}
	for _, o := range overrides {
		if value := strings.TrimSpace(os.Getenv(o.key)); value != "" {
			*o.target = value
		}
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("enrichd.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories enrichd writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// AristoteTimeout returns the HTTP timeout for enrichment API calls.
func (c *Config) AristoteTimeout() time.Duration {
	return time.Duration(c.Aristote.TimeoutSeconds) * time.Second
}

// MediaServerTimeout returns the HTTP timeout for media platform API calls.
func (c *Config) MediaServerTimeout() time.Duration {
	return time.Duration(c.MediaServer.TimeoutSeconds) * time.Second
}

// StuckAfter returns the age past which an uploading job counts as stuck.
func (c *Config) StuckAfter() time.Duration {
	return time.Duration(c.Workflow.StuckAfterHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the fallguard binaries.
type Config struct {
	// ServerAddress is the gRPC address of the surface process.
	ServerAddress string `yaml:"server_addr"`
	// MailboxFile is the depth-1 mailbox shared by the detector and the surface.
	MailboxFile string `yaml:"mailbox_file"`
	// StoreDir is the directory of the profile and medication database.
	StoreDir string `yaml:"store_dir"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// ConfirmationTimeout dismisses a pending alert automatically. Zero disables it.
	ConfirmationTimeout time.Duration `yaml:"confirmation_timeout"`
	// EmergencyCommand is executed with the emergency phone number when a fall is confirmed.
	EmergencyCommand string `yaml:"emergency_command,omitempty"`
	// MetricsAddress is the Prometheus listen address. Empty disables metrics.
	MetricsAddress string `yaml:"metrics_addr,omitempty"`
	// LogLevel is the minimum level of log messages.
	LogLevel string `yaml:"log_level,omitempty"`
	// Chat configures the assistant chat collaborator.
	Chat Chat `yaml:"chat,omitempty"`
}

// Chat holds the chat completion settings.
type Chat struct {
	// APIKey authenticates against the completion API. Falls back to OPENAI_API_KEY.
	APIKey string `yaml:"api_key,omitempty"`
	// Model is the completion model name.
	Model string `yaml:"model,omitempty"`
	// BaseURL overrides the API endpoint.
	BaseURL string `yaml:"base_url,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "fallguard-settings.yaml"

	// DefaultMailboxFilename is the default filename of the alert mailbox.
	DefaultMailboxFilename = "fallguard-mailbox.json"

	// DefaultStoreDir is the default directory of the record store.
	DefaultStoreDir = "fallguard-store"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultChatModel is used when no model is configured.
	DefaultChatModel = "gpt-4o-mini"

	// DefaultFilePermissions is the default file permission for settings and mailbox files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errNegativeTimeout is returned for a negative confirmation timeout.
	errNegativeTimeout = errors.New("confirmation timeout must not be negative")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes Settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may hold an API key.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(settings *Config) error {
	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.MetricsAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.MetricsAddress); err != nil {
			return fmt.Errorf("invalid metrics address: %w", err)
		}
	}

	if settings.ConfirmationTimeout < 0 {
		return errNegativeTimeout
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.MailboxFile == "" {
		settings.MailboxFile = DefaultMailboxFilename
	}

	if settings.StoreDir == "" {
		settings.StoreDir = DefaultStoreDir
	}

	if strings.TrimSpace(settings.Chat.Model) == "" {
		settings.Chat.Model = DefaultChatModel
	}

	return nil
}

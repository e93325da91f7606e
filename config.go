package media_fetcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/alanbriolat/media-fetcher/util"
)

var (
	ErrUnknownConfigFormat = errors.New("unknown config file format")
)

const (
	HistoryBackendJSON = "json"
	HistoryBackendBolt = "bolt"
)

// Duration is a time.Duration that reads and writes as a string like "500ms" in both JSON and YAML.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

type ToolsConfig struct {
	YtDlp  string `json:"yt_dlp,omitempty" yaml:"yt_dlp,omitempty"`
	SpotDL string `json:"spotdl,omitempty" yaml:"spotdl,omitempty"`
	FFmpeg string `json:"ffmpeg,omitempty" yaml:"ffmpeg,omitempty"`
}

// NotificationsConfig holds the settings for completion notifications. Credentials are passed through untouched.
type NotificationsConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	WebhookURL     string `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty"`
	TelegramToken  string `json:"telegram_token,omitempty" yaml:"telegram_token,omitempty"`
	TelegramChatID string `json:"telegram_chat_id,omitempty" yaml:"telegram_chat_id,omitempty"`
	Template       string `json:"template,omitempty" yaml:"template,omitempty"`
}

type Config struct {
	DownloadFolder string `json:"download_folder" yaml:"download_folder"`
	Proxy          string `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	HistoryPath    string `json:"history_path" yaml:"history_path"`
	HistoryBackend string `json:"history_backend" yaml:"history_backend"`
	CookieBrowser  string `json:"cookie_browser,omitempty" yaml:"cookie_browser,omitempty"`
	// Minimum interval between progress updates.
	ProgressInterval Duration            `json:"progress_interval" yaml:"progress_interval"`
	Tools            ToolsConfig         `json:"tools" yaml:"tools"`
	Notifications    NotificationsConfig `json:"notifications" yaml:"notifications"`
}

func DefaultConfig() Config {
	return Config{
		DownloadFolder:   util.HomeDownloadsDir(),
		HistoryPath:      "download_history.json",
		HistoryBackend:   HistoryBackendJSON,
		ProgressInterval: Duration(500 * time.Millisecond),
	}
}

// Binary returns the configured executable for the named tool, or fallback if none is configured.
func (t ToolsConfig) Binary(tool string, fallback string) string {
	var configured string
	switch tool {
	case "yt-dlp":
		configured = t.YtDlp
	case "spotdl":
		configured = t.SpotDL
	case "ffmpeg":
		configured = t.FFmpeg
	}
	if configured != "" {
		return configured
	}
	return fallback
}

// Binary is a shortcut for c.Tools.Binary.
func (c *Config) Binary(tool string, fallback string) string {
	return c.Tools.Binary(tool, fallback)
}

func (c *Config) Validate() error {
	switch c.HistoryBackend {
	case HistoryBackendJSON, HistoryBackendBolt:
	default:
		return fmt.Errorf("unknown history backend %q", c.HistoryBackend)
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("negative progress interval")
	}
	return ValidateProxy(c.Proxy)
}

type configFormat int

const (
	formatJSON configFormat = iota
	formatYAML
)

func formatFor(path string) (configFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", "":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownConfigFormat, path)
	}
}

// LoadConfig reads a JSON or YAML (by extension) config file over the defaults. A missing file gives the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	format, err := formatFor(path)
	if err != nil {
		return config, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	} else if err != nil {
		return config, err
	}
	switch format {
	case formatYAML:
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Save writes the config atomically, in the format implied by the file extension.
func (c *Config) Save(path string) error {
	format, err := formatFor(path)
	if err != nil {
		return err
	}
	var data []byte
	switch format {
	case formatYAML:
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	return util.WriteFileAtomic(path, data, 0644)
}

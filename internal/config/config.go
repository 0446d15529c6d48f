package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	MinHistorySize     = 1
	MaxHistorySize     = 500
	DefaultHistorySize = 15

	MinExpiryDays     = 1
	MaxExpiryDays     = 365
	DefaultExpiryDays = 7

	DefaultWebSearchURL = "https://www.google.com/search?q=%s"
	DefaultPasteURL     = "https://dpaste.com/api/v2/"
	DefaultInstallID    = "clipkeep@adaryorg"

	BackendFile   = "file"
	BackendSQLite = "sqlite"

	SearchSubstring = "substring"
	SearchFuzzy     = "fuzzy"

	HandoffMemory  = "memory"
	HandoffRuntime = "runtime"

	FileName = "config.toml"
)

type Config struct {
	History   HistoryConfig   `toml:"history"`
	Display   DisplayConfig   `toml:"display"`
	Share     ShareConfig     `toml:"share"`
	Shortcuts ShortcutsConfig `toml:"shortcuts"`
	Privacy   PrivacyConfig   `toml:"privacy"`
	Logging   LoggingConfig   `toml:"logging"`
	Session   SessionConfig   `toml:"session"`
	Theme     ThemeConfig     `toml:"theme"`
}

type HistoryConfig struct {
	Size      int    `toml:"size"`
	Backend   string `toml:"backend"`
	InstallID string `toml:"install_id"`
	StateDir  string `toml:"state_dir"`
}

type DisplayConfig struct {
	ShowBoundaryWhitespace bool   `toml:"show_boundary_whitespace"`
	SearchMode             string `toml:"search_mode"`
	PreviewTheme           string `toml:"preview_theme"`
	MaxLabelLength         int    `toml:"max_label_length"`
}

type ShareConfig struct {
	WebSearchURL string `toml:"web_search_url"`
	ExpiryDays   int    `toml:"expiry_days"`
	PasteURL     string `toml:"paste_url"`
}

type ShortcutsConfig struct {
	ToggleMenu        string `toml:"toggle_menu"`
	TogglePrivateMode string `toml:"toggle_private_mode"`
	ClearHistory      string `toml:"clear_history"`
}

type PrivacyConfig struct {
	DetectSecrets bool `toml:"detect_secrets"`
	Blocklist     bool `toml:"blocklist"`
}

type LoggingConfig struct {
	LogFile    string `toml:"log_file"`
	Level      string `toml:"level"`
	MaxSize    int    `toml:"max_size"`
	MaxAge     int    `toml:"max_age"`
	MaxBackups int    `toml:"max_backups"`
}

type SessionConfig struct {
	Handoff string `toml:"handoff"`
}

type ThemeConfig struct {
	Header              ColorConfig `toml:"header"`
	Status              ColorConfig `toml:"status"`
	Search              ColorConfig `toml:"search"`
	Warning             ColorConfig `toml:"warning"`
	Selected            ColorConfig `toml:"selected"`
	AlternateBackground ColorConfig `toml:"alternate_background"`
	Pinned              ColorConfig `toml:"pinned"`
	Private             ColorConfig `toml:"private"`
}

type ColorConfig struct {
	Foreground string `toml:"foreground"`
	Background string `toml:"background"`
	Bold       bool   `toml:"bold"`
}

// Default returns the configuration used for missing keys.
func Default() *Config {
	return &Config{
		History: HistoryConfig{
			Size:      DefaultHistorySize,
			Backend:   BackendFile,
			InstallID: DefaultInstallID,
		},
		Display: DisplayConfig{
			ShowBoundaryWhitespace: true,
			SearchMode:             SearchSubstring,
			PreviewTheme:           "monokai",
			MaxLabelLength:         80,
		},
		Share: ShareConfig{
			WebSearchURL: DefaultWebSearchURL,
			ExpiryDays:   DefaultExpiryDays,
			PasteURL:     DefaultPasteURL,
		},
		Shortcuts: ShortcutsConfig{
			ToggleMenu:        "ctrl+z",
			TogglePrivateMode: "ctrl+p",
			ClearHistory:      "ctrl+x",
		},
		Privacy: PrivacyConfig{
			DetectSecrets: true,
			Blocklist:     true,
		},
		Logging: LoggingConfig{
			LogFile:    "~/.local/share/clipkeep/clipkeep.log",
			Level:      "info",
			MaxSize:    10,
			MaxAge:     30,
			MaxBackups: 3,
		},
		Session: SessionConfig{
			Handoff: HandoffRuntime,
		},
		Theme: ThemeConfig{
			Header:              ColorConfig{Foreground: "13", Bold: true},
			Status:              ColorConfig{Foreground: "8"},
			Search:              ColorConfig{Foreground: "141", Bold: true},
			Warning:             ColorConfig{Foreground: "9", Bold: true},
			Selected:            ColorConfig{Foreground: "15", Background: "55"},
			AlternateBackground: ColorConfig{Background: "234"},
			Pinned:              ColorConfig{Foreground: "214"},
			Private:             ColorConfig{Foreground: "9", Bold: true},
		},
	}
}

// Path returns the location of the user configuration file.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "clipkeep", FileName), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "clipkeep", FileName), nil
}

// Load reads the user configuration, writing the default file first if none
// exists.
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := createDefaultConfig(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	return LoadFile(configPath)
}

// LoadFile decodes configPath over the defaults and normalises the result.
func LoadFile(configPath string) (*Config, error) {
	config := Default()
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	config.normalize()
	return config, nil
}

// normalize clamps out-of-range values and replaces unknown choices with
// their defaults.
func (c *Config) normalize() {
	defaults := Default()

	c.History.Size = clamp(c.History.Size, MinHistorySize, MaxHistorySize)
	c.Share.ExpiryDays = clamp(c.Share.ExpiryDays, MinExpiryDays, MaxExpiryDays)

	c.History.Backend = oneOf(c.History.Backend, defaults.History.Backend, BackendFile, BackendSQLite)
	c.Display.SearchMode = oneOf(c.Display.SearchMode, defaults.Display.SearchMode, SearchSubstring, SearchFuzzy)
	c.Session.Handoff = oneOf(c.Session.Handoff, defaults.Session.Handoff, HandoffMemory, HandoffRuntime)

	if c.History.InstallID == "" || strings.ContainsAny(c.History.InstallID, `/\`) {
		c.History.InstallID = defaults.History.InstallID
	}
	if c.Display.MaxLabelLength < 0 {
		c.Display.MaxLabelLength = 0
	}
	if c.Share.WebSearchURL == "" {
		c.Share.WebSearchURL = defaults.Share.WebSearchURL
	}
	if c.Share.PasteURL == "" {
		c.Share.PasteURL = defaults.Share.PasteURL
	}
	if c.Display.PreviewTheme == "" {
		c.Display.PreviewTheme = defaults.Display.PreviewTheme
	}

	if c.Shortcuts.ToggleMenu == "" {
		c.Shortcuts.ToggleMenu = defaults.Shortcuts.ToggleMenu
	}
	if c.Shortcuts.TogglePrivateMode == "" {
		c.Shortcuts.TogglePrivateMode = defaults.Shortcuts.TogglePrivateMode
	}
	if c.Shortcuts.ClearHistory == "" {
		c.Shortcuts.ClearHistory = defaults.Shortcuts.ClearHistory
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func oneOf(value, fallback string, allowed ...string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return fallback
}

func createDefaultConfig(configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(`[history]
# Number of unpinned entries to keep (1-500). Pinned entries do not count.
size = 15
# "file" or "sqlite"
backend = "file"
install_id = "clipkeep@adaryorg"
# Defaults to $XDG_STATE_HOME or ~/.local/state
state_dir = ""

[display]
show_boundary_whitespace = true
# "substring" or "fuzzy"
search_mode = "substring"
preview_theme = "monokai"
max_label_length = 80

[share]
web_search_url = "https://www.google.com/search?q=%s"
expiry_days = 7
paste_url = "https://dpaste.com/api/v2/"

[shortcuts]
toggle_menu = "ctrl+z"
toggle_private_mode = "ctrl+p"
clear_history = "ctrl+x"

[privacy]
detect_secrets = true
blocklist = true

[logging]
log_file = "~/.local/share/clipkeep/clipkeep.log"
level = "info"
max_size = 10
max_age = 30
max_backups = 3

[session]
# Where the daemon parks the history while the screen is locked or across a
# SIGUSR1 restart: "runtime" ($XDG_RUNTIME_DIR) or "memory" (this process only)
handoff = "runtime"

[theme.header]
foreground = "13"
bold = true

[theme.status]
foreground = "8"

[theme.search]
foreground = "141"
bold = true

[theme.warning]
foreground = "9"
bold = true

[theme.selected]
foreground = "15"
background = "55"

[theme.alternate_background]
background = "234"

[theme.pinned]
foreground = "214"

[theme.private]
foreground = "9"
bold = true
`)

	return err
}

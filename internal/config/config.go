package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type EditorOptions struct {
	TabWidth          int `toml:"tab-width"`
	CheckpointDelayMs int `toml:"checkpoint-delay-ms"`
	SuppressMs        int `toml:"suppress-ms"`
	HistoryLimit      int `toml:"history-limit"`
}

type AIOptions struct {
	APIKey    string `toml:"api-key,omitempty"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max-tokens"`

	// keyFromEnv marks an APIKey taken from GEMINI_API_KEY. Save leaves
	// such a key out of the file.
	keyFromEnv bool
}

// SetAPIKey sets a key chosen by the user, which Save persists.
func (o *AIOptions) SetAPIKey(key string) {
	o.APIKey = key
	o.keyFromEnv = false
}

// KeyFromEnv reports whether APIKey came from the environment.
func (o AIOptions) KeyFromEnv() bool { return o.keyFromEnv }

type Theme struct {
	Theme                 string `toml:"theme,omitempty"`
	Foreground            string `toml:"foreground,omitempty"`
	Background            string `toml:"background,omitempty"`
	StatuslineForeground  string `toml:"statusline-foreground,omitempty"`
	StatuslineBackground  string `toml:"statusline-background,omitempty"`
	CommandlineForeground string `toml:"commandline-foreground,omitempty"`
	CommandlineBackground string `toml:"commandline-background,omitempty"`
	SelectionForeground   string `toml:"selection-foreground,omitempty"`
	SelectionBackground   string `toml:"selection-background,omitempty"`
	MarkupHeading         string `toml:"markup-heading,omitempty"`
	MarkupList            string `toml:"markup-list,omitempty"`
	MarkupQuote           string `toml:"markup-quote,omitempty"`
	MarkupCode            string `toml:"markup-code,omitempty"`
	MarkupLink            string `toml:"markup-link,omitempty"`
}

type Config struct {
	Editor EditorOptions     `toml:"editor"`
	AI     AIOptions         `toml:"ai"`
	Theme  Theme             `toml:"theme"`
	Keymap map[string]string `toml:"keymap"`
}

func Default() Config {
	return Config{
		Editor: EditorOptions{
			TabWidth:          4,
			CheckpointDelayMs: 500,
			SuppressMs:        10,
			HistoryLimit:      100,
		},
		AI: AIOptions{
			Model:     "gemini-2.5-flash-lite",
			MaxTokens: 2048,
		},
		Theme: Theme{
			Foreground:            "#B3B1AD",
			Background:            "#0A0E14",
			StatuslineForeground:  "#B3B1AD",
			StatuslineBackground:  "#0F1419",
			CommandlineForeground: "#B3B1AD",
			CommandlineBackground: "#0F1419",
			SelectionForeground:   "#B3B1AD",
			SelectionBackground:   "#27425A",
			MarkupHeading:         "#FFA759",
			MarkupList:            "#FFA759",
			MarkupQuote:           "#5C6773",
			MarkupCode:            "#BAE67E",
			MarkupLink:            "#FFD173",
		},
		Keymap: map[string]string{
			"ctrl+z":      "undo",
			"ctrl+y":      "redo",
			"ctrl+r":      "redo",
			"ctrl+n":      "new_file",
			"ctrl+o":      "open_file",
			"ctrl+s":      "save",
			"ctrl+g":      "ask_ai",
			"ctrl+t":      "rewrite_selection",
			"ctrl+a":      "select_all",
			"ctrl+q":      "quit",
			"ctrl+p":      "enter_command",
			"esc":         "enter_command",
			"ctrl+w":      "delete_word_left",
			"left":        "move_left",
			"right":       "move_right",
			"up":          "move_up",
			"down":        "move_down",
			"home":        "line_start",
			"end":         "line_end",
			"ctrl+home":   "file_start",
			"ctrl+end":    "file_end",
			"alt+left":    "word_left",
			"alt+right":   "word_right",
			"pgup":        "page_up",
			"pgdn":        "page_down",
			"backspace":   "backspace",
			"del":         "delete_char",
			"enter":       "newline",
			"tab":         "insert_tab",
			"shift+left":  "select_left",
			"shift+right": "select_right",
			"shift+up":    "select_up",
			"shift+down":  "select_down",
			"shift+home":  "select_line_start",
			"shift+end":   "select_line_end",
		},
	}
}

// Load reads config.toml and merges it over Default. A missing file is not
// an error.
func Load() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	var userCfg Config
	if _, err := toml.Decode(string(data), &userCfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if userCfg.Editor.TabWidth > 0 {
		cfg.Editor.TabWidth = userCfg.Editor.TabWidth
	}
	if userCfg.Editor.CheckpointDelayMs > 0 {
		cfg.Editor.CheckpointDelayMs = userCfg.Editor.CheckpointDelayMs
	}
	if userCfg.Editor.SuppressMs > 0 {
		cfg.Editor.SuppressMs = userCfg.Editor.SuppressMs
	}
	if userCfg.Editor.HistoryLimit > 0 {
		cfg.Editor.HistoryLimit = userCfg.Editor.HistoryLimit
	}
	if userCfg.AI.APIKey != "" {
		cfg.AI.APIKey = userCfg.AI.APIKey
	}
	if userCfg.AI.Model != "" {
		cfg.AI.Model = userCfg.AI.Model
	}
	if userCfg.AI.MaxTokens > 0 {
		cfg.AI.MaxTokens = userCfg.AI.MaxTokens
	}
	if userCfg.Theme.Theme != "" {
		cfg.Theme.Theme = userCfg.Theme.Theme
		theme, err := LoadTheme(cfg.Theme.Theme)
		if err != nil {
			return cfg, err
		}
		mergeTheme(&cfg.Theme, theme)
	}
	mergeTheme(&cfg.Theme, userCfg.Theme)
	for k, v := range userCfg.Keymap {
		cfg.Keymap[k] = v
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if cfg.AI.APIKey != "" {
		return
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
		cfg.AI.keyFromEnv = true
	}
}

// Save writes cfg to config.toml, creating the directory if needed. An API
// key read from the environment is not written.
func Save(cfg Config) error {
	if cfg.AI.keyFromEnv {
		cfg.AI.APIKey = ""
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

func mergeTheme(dst *Theme, src Theme) {
	set := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	set(&dst.Foreground, src.Foreground)
	set(&dst.Background, src.Background)
	set(&dst.StatuslineForeground, src.StatuslineForeground)
	set(&dst.StatuslineBackground, src.StatuslineBackground)
	set(&dst.CommandlineForeground, src.CommandlineForeground)
	set(&dst.CommandlineBackground, src.CommandlineBackground)
	set(&dst.SelectionForeground, src.SelectionForeground)
	set(&dst.SelectionBackground, src.SelectionBackground)
	set(&dst.MarkupHeading, src.MarkupHeading)
	set(&dst.MarkupList, src.MarkupList)
	set(&dst.MarkupQuote, src.MarkupQuote)
	set(&dst.MarkupCode, src.MarkupCode)
	set(&dst.MarkupLink, src.MarkupLink)
}

func ThemePath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "theme", name+".toml"), nil
}

// LoadTheme reads theme/<name>.toml. Both a bare table and one wrapped in
// [theme] are accepted.
func LoadTheme(name string) (Theme, error) {
	path, err := ThemePath(name)
	if err != nil {
		return Theme{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, err
	}
	var wrap struct {
		Theme *Theme `toml:"theme"`
	}
	if _, err := toml.Decode(string(data), &wrap); err == nil && wrap.Theme != nil {
		return *wrap.Theme, nil
	}
	var t Theme
	if _, err := toml.Decode(string(data), &t); err != nil {
		return Theme{}, fmt.Errorf("parse theme %s: %w", name, err)
	}
	return t, nil
}

func ConfigDir() (string, error) {
	if v := os.Getenv("QNOTE_CONFIG_HOME"); v != "" {
		return filepath.Join(v), nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "qnote"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "qnote"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

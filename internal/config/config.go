// Package config handles the surveyor configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/matsen/surveyor/internal/bibliography"
)

// Config represents configuration stored in ~/.config/surveyor/config.yml.
type Config struct {
	BibPath    string `yaml:"bib_path,omitempty" json:"bib_path,omitempty"`       // BibTeX database exported by the reference manager
	TopicsPath string `yaml:"topics_path,omitempty" json:"topics_path,omitempty"` // Directory of topic-<slug>.md notes
	PDFRoot    string `yaml:"pdf_root,omitempty" json:"pdf_root,omitempty"`       // Folder holding "<title> - <year>.pdf" files
	PDFReader  string `yaml:"pdf_reader,omitempty" json:"pdf_reader,omitempty"`   // Reader preference: system, skim, zathura, etc.
	Style      string `yaml:"style,omitempty" json:"style,omitempty"`             // numbered or keyed
	LogFile    string `yaml:"log_file,omitempty" json:"log_file,omitempty"`
	IndexPath  string `yaml:"index_path,omitempty" json:"index_path,omitempty"` // SQLite search index; empty keeps it in memory
	Watch      bool   `yaml:"watch,omitempty" json:"watch,omitempty"`           // Reload when topic or bib files change
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "surveyor"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// LogFileName is the default log file name inside ConfigDir.
	LogFileName = "surveyor.log"
)

// Environment variables that override file values.
const (
	EnvBibPath    = "SURVEYOR_BIB_PATH"
	EnvTopicsPath = "SURVEYOR_TOPICS_PATH"
	EnvPDFRoot    = "SURVEYOR_PDF_ROOT"
	EnvLogFile    = "SURVEYOR_LOG_FILE"
)

// ValidReaders lists the supported PDF reader values.
var ValidReaders = []string{"system", "skim", "preview", "zathura", "evince", "okular"}

// configCache caches the loaded config.
var configCache *Config

// Dir returns the configuration directory.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/surveyor.
func Dir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := homedir.Dir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir)
}

// Path returns the path to the config file.
func Path() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, ConfigFile)
}

// Load loads the configuration file from Path.
// Returns an empty config (not an error) if the file doesn't exist.
func Load() (*Config, error) {
	if configCache != nil {
		return configCache, nil
	}

	path := Path()
	if path == "" {
		return &Config{}, nil
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	configCache = cfg
	return cfg, nil
}

// LoadFile loads configuration from an explicit path.
// A missing file yields an empty config.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.expand()
	return &cfg, nil
}

// ResetCache clears the cached config.
// Useful for testing.
func ResetCache() {
	configCache = nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ApplyEnv overrides values from SURVEYOR_* environment variables.
func (c *Config) ApplyEnv() {
	overrides := map[string]*string{
		EnvBibPath:    &c.BibPath,
		EnvTopicsPath: &c.TopicsPath,
		EnvPDFRoot:    &c.PDFRoot,
		EnvLogFile:    &c.LogFile,
	}
	for env, field := range overrides {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
	c.expand()
}

// WithDefaults returns a copy with empty optional values filled in.
func (c Config) WithDefaults() *Config {
	if c.PDFReader == "" {
		c.PDFReader = "system"
	}
	if c.Style == "" {
		c.Style = string(bibliography.Numbered)
	}
	if c.LogFile == "" {
		if dir := Dir(); dir != "" {
			c.LogFile = filepath.Join(dir, LogFileName)
		}
	}
	return &c
}

// Validate checks values that can be verified without touching the data files.
// Missing data files are reported when the session is loaded.
func (c *Config) Validate() error {
	if c.BibPath == "" {
		return fmt.Errorf("bib_path not configured (set it in %s or %s)", Path(), EnvBibPath)
	}
	if c.TopicsPath == "" {
		return fmt.Errorf("topics_path not configured (set it in %s or %s)", Path(), EnvTopicsPath)
	}
	if err := ValidatePDFReader(c.PDFReader); err != nil {
		return err
	}
	if _, err := bibliography.ParseStyle(c.Style); err != nil {
		return err
	}
	return nil
}

func (c *Config) expand() {
	c.BibPath = ExpandPath(c.BibPath)
	c.TopicsPath = ExpandPath(c.TopicsPath)
	c.PDFRoot = ExpandPath(c.PDFRoot)
	c.LogFile = ExpandPath(c.LogFile)
	c.IndexPath = ExpandPath(c.IndexPath)
}

// Keys lists the settable configuration keys.
func Keys() []string {
	keys := make([]string, 0, len(fieldsByKey))
	for k := range fieldsByKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var fieldsByKey = map[string]func(c *Config) *string{
	"bib-path":    func(c *Config) *string { return &c.BibPath },
	"topics-path": func(c *Config) *string { return &c.TopicsPath },
	"pdf-root":    func(c *Config) *string { return &c.PDFRoot },
	"pdf-reader":  func(c *Config) *string { return &c.PDFReader },
	"style":       func(c *Config) *string { return &c.Style },
	"log-file":    func(c *Config) *string { return &c.LogFile },
	"index-path":  func(c *Config) *string { return &c.IndexPath },
	"watch":       nil,
}

// Get returns the value of key (pdf-root, pdf_root and PDF-Root are equivalent).
func (c *Config) Get(key string) (string, error) {
	key = NormalizeKey(key)
	field, ok := fieldsByKey[key]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	if field == nil {
		return strconv.FormatBool(c.Watch), nil
	}
	return *field(c), nil
}

// Set validates and assigns value to key.
func (c *Config) Set(key, value string) error {
	key = NormalizeKey(key)
	field, ok := fieldsByKey[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	switch key {
	case "watch":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid watch value: %s", value)
		}
		c.Watch = b
		return nil
	case "pdf-reader":
		if err := ValidatePDFReader(value); err != nil {
			return err
		}
	case "style":
		if _, err := bibliography.ParseStyle(value); err != nil {
			return err
		}
	case "pdf-root", "topics-path":
		if err := ValidateDir(value); err != nil {
			return err
		}
		value = ExpandPath(value)
	default:
		value = ExpandPath(value)
	}

	*field(c) = value
	return nil
}

// NormalizeKey converts key formats (pdf-root, pdf_root, PDF-Root) to a consistent format.
func NormalizeKey(key string) string {
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "_", "-")
}

// ValidateDir checks that the path exists and is a directory.
func ValidateDir(path string) error {
	if path == "" {
		return nil // Empty is allowed (not yet configured)
	}

	expandedPath := ExpandPath(path)

	info, err := os.Stat(expandedPath)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", expandedPath)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", expandedPath)
	}

	return nil
}

// ValidatePDFReader checks that the reader value is valid.
func ValidatePDFReader(reader string) error {
	if reader == "" {
		return nil // Empty defaults to "system"
	}

	for _, valid := range ValidReaders {
		if reader == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid pdf_reader: %s (valid: %v)", reader, ValidReaders)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it can't be expanded.
func ExpandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

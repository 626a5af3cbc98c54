package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	if got, want := Path(), "/custom/config/surveyor/config.yml"; got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
	if got, want := Dir(), "/custom/config/surveyor"; got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
}

func TestLoad_NotFound(t *testing.T) {
	ResetCache()
	defer ResetCache()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil")
	}
	if cfg.BibPath != "" {
		t.Errorf("BibPath = %q, want empty", cfg.BibPath)
	}
}

func TestLoad_Valid(t *testing.T) {
	ResetCache()
	defer ResetCache()

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg := &Config{
		BibPath:    "/data/library.bib",
		TopicsPath: "/data/research",
		PDFReader:  "zathura",
		Style:      "keyed",
		Watch:      true,
	}
	if err := cfg.Save(Path()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("Load() = %+v, want %+v", loaded, cfg)
	}

	// Second call hits the cache even if the file disappears
	if err := os.Remove(Path()); err != nil {
		t.Fatal(err)
	}
	again, err := Load()
	if err != nil || again != loaded {
		t.Errorf("Load() should return the cached config, got %v, %v", again, err)
	}
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("bib_path: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() should return error for invalid YAML")
	}
}

func TestLoadFile_ExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("bib_path: ~/library.bib\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if want := filepath.Join(home, "library.bib"); cfg.BibPath != want {
		t.Errorf("BibPath = %q, want %q", cfg.BibPath, want)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvBibPath, "/env/lib.bib")
	t.Setenv(EnvTopicsPath, "")

	cfg := &Config{BibPath: "/file/lib.bib", TopicsPath: "/file/topics"}
	cfg.ApplyEnv()

	if cfg.BibPath != "/env/lib.bib" {
		t.Errorf("BibPath = %q, want env override", cfg.BibPath)
	}
	if cfg.TopicsPath != "/file/topics" {
		t.Errorf("TopicsPath = %q, empty env should not override", cfg.TopicsPath)
	}
}

func TestWithDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	cfg := Config{}.WithDefaults()
	if cfg.PDFReader != "system" || cfg.Style != "numbered" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.LogFile != "/xdg/surveyor/surveyor.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}

	kept := Config{Style: "keyed"}.WithDefaults()
	if kept.Style != "keyed" {
		t.Errorf("Style = %q, explicit value should be kept", kept.Style)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"complete", Config{BibPath: "a.bib", TopicsPath: "t"}, false},
		{"no bib", Config{TopicsPath: "t"}, true},
		{"no topics", Config{BibPath: "a.bib"}, true},
		{"bad reader", Config{BibPath: "a.bib", TopicsPath: "t", PDFReader: "adobe"}, true},
		{"bad style", Config{BibPath: "a.bib", TopicsPath: "t", Style: "apa"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetSet(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{}

	if err := cfg.Set("pdf_root", dir); err != nil {
		t.Fatalf("Set(pdf_root) error = %v", err)
	}
	if got, _ := cfg.Get("PDF-Root"); got != dir {
		t.Errorf("Get(PDF-Root) = %q, want %q", got, dir)
	}

	if err := cfg.Set("watch", "true"); err != nil || !cfg.Watch {
		t.Errorf("Set(watch) = %v, Watch = %v", err, cfg.Watch)
	}
	if got, _ := cfg.Get("watch"); got != "true" {
		t.Errorf("Get(watch) = %q", got)
	}

	errCases := [][2]string{
		{"pdf-reader", "adobe"},
		{"style", "apa"},
		{"pdf-root", filepath.Join(dir, "missing")},
		{"watch", "maybe"},
		{"nonsense", "x"},
	}
	for _, c := range errCases {
		if err := cfg.Set(c[0], c[1]); err == nil {
			t.Errorf("Set(%q, %q) should fail", c[0], c[1])
		}
	}
	if _, err := cfg.Get("nonsense"); err == nil {
		t.Error("Get(nonsense) should fail")
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) != 8 {
		t.Errorf("Keys() = %v, want 8 keys", keys)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Errorf("Keys() not sorted: %v", keys)
		}
	}
}

func TestValidatePDFReader(t *testing.T) {
	tests := []struct {
		reader  string
		wantErr bool
	}{
		{"", false}, // Empty defaults to system
		{"system", false},
		{"skim", false},
		{"preview", false},
		{"zathura", false},
		{"evince", false},
		{"okular", false},
		{"invalid", true},
		{"adobe", true},
	}

	for _, tt := range tests {
		t.Run(tt.reader, func(t *testing.T) {
			err := ValidatePDFReader(tt.reader)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePDFReader(%q) error = %v, wantErr = %v", tt.reader, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDir(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "file.txt")
	if err := os.WriteFile(tmpFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"empty path", "", false}, // Empty is allowed
		{"valid directory", tmpDir, false},
		{"non-existent path", "/nonexistent/path", true},
		{"file not directory", tmpFile, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDir(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDir(%q) error = %v, wantErr = %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

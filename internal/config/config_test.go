package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/dshills/docmodel/internal/config/loader"
	"github.com/dshills/docmodel/internal/logging"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Load(WithoutEnv())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg.Logging != want.Logging || cfg.Transform != want.Transform || cfg.Store != want.Store {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
	if !slices.Equal(cfg.Document.Roots, []string{"main"}) {
		t.Errorf("roots = %v", cfg.Document.Roots)
	}
	if got := cfg.Logging.LoggerConfig().Level; got != logging.LevelInfo {
		t.Errorf("logger level = %s", got)
	}
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "docmodel.toml",
			content: `
[logging]
level = "debug"

[document]
initialVersion = 3
roots = ["main", "title"]

[transform]
useContext = true

[store]
backend = "redis"
redisDB = 2
`,
		},
		{
			name: "yaml",
			file: "docmodel.yml",
			content: `
logging:
  level: debug
document:
  initialVersion: 3
  roots: [main, title]
transform:
  useContext: true
store:
  backend: redis
  redisDB: 2
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(WithFile(writeFile(t, tt.file, tt.content)), WithoutEnv())
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Logging.Level != "debug" || cfg.Logging.Prefix != "docmodel" {
				t.Errorf("logging = %+v", cfg.Logging)
			}
			if cfg.Document.InitialVersion != 3 || !slices.Equal(cfg.Document.Roots, []string{"main", "title"}) {
				t.Errorf("document = %+v", cfg.Document)
			}
			if !cfg.Transform.UseContext || !cfg.Transform.PadWithNoOps {
				t.Errorf("transform = %+v", cfg.Transform)
			}
			if cfg.Store.Backend != BackendRedis || cfg.Store.RedisDB != 2 || cfg.Store.RedisAddr != "localhost:6379" {
				t.Errorf("store = %+v", cfg.Store)
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(WithFile(filepath.Join(t.TempDir(), "absent.toml")), WithoutEnv())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("backend = %q", cfg.Store.Backend)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "docmodel.toml", "[logging]\nlevel = \"debug\"\n[store]\nkeyPrefix = \"file\"\n")
	t.Setenv("DOCMODEL_LOGGING_LEVEL", "warn")
	t.Setenv("DOCMODEL_TRANSFORM_PAD_WITH_NO_OPS", "false")
	t.Setenv("DOCMODEL_DOCUMENT_INITIAL_VERSION", "7")

	cfg, err := Load(WithFile(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Transform.PadWithNoOps {
		t.Error("expected padWithNoOps to be overridden")
	}
	if cfg.Document.InitialVersion != 7 {
		t.Errorf("initialVersion = %d, want 7", cfg.Document.InitialVersion)
	}
	if cfg.Store.KeyPrefix != "file" {
		t.Errorf("keyPrefix = %q, want file", cfg.Store.KeyPrefix)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{"unknown key", "[store]\nbackend = \"memory\"\nflavour = \"x\"\n", ErrInvalidConfig},
		{"mistyped value", "[document]\ninitialVersion = \"three\"\n", ErrInvalidConfig},
		{"bad level", "[logging]\nlevel = \"loud\"\n", ErrValidationFailed},
		{"negative version", "[document]\ninitialVersion = -1\n", ErrValidationFailed},
		{"no roots", "[document]\nroots = []\n", ErrValidationFailed},
		{"reserved root", "[document]\nroots = [\"$graveyard\"]\n", ErrValidationFailed},
		{"duplicate root", "[document]\nroots = [\"main\", \"main\"]\n", ErrValidationFailed},
		{"unknown backend", "[store]\nbackend = \"disk\"\n", ErrValidationFailed},
		{"redis without address", "[store]\nbackend = \"redis\"\nredisAddr = \"\"\n", ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(WithFile(writeFile(t, "docmodel.toml", tt.content)), WithoutEnv())
			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestLoadParseAndFormatErrors(t *testing.T) {
	_, err := Load(WithFile(writeFile(t, "docmodel.toml", "[logging\n")), WithoutEnv())
	var perr *loader.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("expected *loader.ParseError, got %v", err)
	}
	if _, err := Load(WithFile("docmodel.json"), WithoutEnv()); !errors.Is(err, loader.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestValidationErrorFields(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = "disk"
	var verr *ValidationError
	if err := cfg.Validate(); !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Path != "store.backend" || verr.Value != "disk" {
		t.Errorf("unexpected error %+v", verr)
	}
}

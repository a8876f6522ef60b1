package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Setenv("SOPS_SHELL_TEST_PROFILE", "prod")

	content := `
sops:
  binary: "/usr/local/bin/sops"
  args: ["--config", "$HOME/.sops.yaml"]

shell:
  path: "bash"
  env:
    AWS_PROFILE: "${SOPS_SHELL_TEST_PROFILE}"

sync:
  prescan_lines: 20
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Sops.Binary != "/usr/local/bin/sops" {
		t.Errorf("expected sops binary /usr/local/bin/sops, got %s", cfg.Sops.Binary)
	}
	if len(cfg.Sops.Args) != 2 || strings.Contains(cfg.Sops.Args[1], "$HOME") {
		t.Errorf("expected expanded sops args, got %v", cfg.Sops.Args)
	}
	if cfg.Shell.Path != "bash" {
		t.Errorf("expected shell bash, got %s", cfg.Shell.Path)
	}
	if cfg.Shell.Env["AWS_PROFILE"] != "prod" {
		t.Errorf("expected AWS_PROFILE=prod, got %q", cfg.Shell.Env["AWS_PROFILE"])
	}
	if cfg.Sync.PrescanLines != 20 {
		t.Errorf("expected prescan_lines 20, got %d", cfg.Sync.PrescanLines)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("expected defaults %+v, got %+v", Default(), cfg)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("sops: [unclosed\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("shell:\n  env:\n    \"BAD=NAME\": x\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Sops.Binary != "sops" {
		t.Errorf("expected default binary sops, got %s", cfg.Sops.Binary)
	}
	if cfg.Shell.Path != "sh" {
		t.Errorf("expected default shell sh, got %s", cfg.Shell.Path)
	}
	if cfg.Sync.PrescanLines != DefaultPrescanLines {
		t.Errorf("expected prescan_lines %d, got %d", DefaultPrescanLines, cfg.Sync.PrescanLines)
	}
	if !cfg.PrescanEnabled() {
		t.Error("prescan should be enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Sops:  SopsConfig{Binary: "sops"},
				Shell: ShellConfig{Path: "sh", Env: map[string]string{"TOKEN": "x"}},
			},
			wantErr: false,
		},
		{
			name:    "blank binary",
			cfg:     Config{Sops: SopsConfig{Binary: "  "}, Shell: ShellConfig{Path: "sh"}},
			wantErr: true,
		},
		{
			name:    "blank shell",
			cfg:     Config{Sops: SopsConfig{Binary: "sops"}},
			wantErr: true,
		},
		{
			name: "empty env name",
			cfg: Config{
				Sops:  SopsConfig{Binary: "sops"},
				Shell: ShellConfig{Path: "sh", Env: map[string]string{"": "x"}},
			},
			wantErr: true,
		},
		{
			name: "env name with equals",
			cfg: Config{
				Sops:  SopsConfig{Binary: "sops"},
				Shell: ShellConfig{Path: "sh", Env: map[string]string{"A=B": "x"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPrescanEnabled(t *testing.T) {
	cfg := Default()
	cfg.Sync.PrescanLines = -1
	if cfg.PrescanEnabled() {
		t.Error("negative prescan_lines should disable prescan")
	}
}

package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/pkg/utils"
)

// writeTestConfig writes a config using the offline mock provider and a temp database.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "kioku.yaml")
	content := `
storage:
  database_path: "./notes.db"
provider:
  kind: mock
retrieval:
  top_k: 3
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out, _, err := runSplit(t, stdin, args...)
	return out, err
}

// runSplit executes the root command and returns stdout and stderr separately.
func runSplit(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	if cmd.Use != "kioku" {
		t.Errorf("Use = %q, want %q", cmd.Use, "kioku")
	}
	if cmd.Short == "" || cmd.Long == "" {
		t.Error("descriptions should not be empty")
	}
	want := []string{"serve", "add", "list", "delete", "ask", "search", "import", "watch", "mcp", "status", "init", "version"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCmd_GlobalFlags(t *testing.T) {
	cmd := NewRootCmd()
	tests := []struct {
		flagName string
		defValue string
	}{
		{"config", ""},
		{"debug", "false"},
		{"format", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.flagName, func(t *testing.T) {
			flag := cmd.PersistentFlags().Lookup(tt.flagName)
			if flag == nil {
				t.Fatalf("--%s flag not found", tt.flagName)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("--%s default = %q, want %q", tt.flagName, flag.DefValue, tt.defValue)
			}
		})
	}
}

func TestRootCmd_invalidFormat(t *testing.T) {
	cfg := writeTestConfig(t)
	if _, err := run(t, "", "--config", cfg, "--format", "xml", "list"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRootCmd_missingExplicitConfig(t *testing.T) {
	if _, err := run(t, "", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "list"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestBuildQuestion(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"what", "is", "the", "wifi", "password"}, "what is the wifi password"},
		{[]string{"  quoted question  "}, "quoted question"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := buildQuestion(tt.args); got != tt.want {
			t.Errorf("buildQuestion(%q) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	path := writeTestConfig(t)
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path {
		t.Errorf("resolved = %s, want %s", resolved, path)
	}
	if cfg.Provider.Kind != "mock" || cfg.Retrieval.TopK != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Storage.DatabasePath != filepath.Join(filepath.Dir(path), "notes.db") {
		t.Errorf("database_path = %s", cfg.Storage.DatabasePath)
	}
}

func TestLoadConfig_prefersWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, localConfigName), []byte("retrieval:\n  top_k: 7\n"), 0600); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, resolved, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(resolved) != localConfigName || cfg.Retrieval.TopK != 7 {
		t.Errorf("resolved = %s, top_k = %d", resolved, cfg.Retrieval.TopK)
	}
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	opts := &rootOptions{cfg: config.Default(), logger: utils.NewLogger(false, &buf)}

	oneShot := opts.componentLogger(false)
	if !oneShot.Core().Enabled(zap.WarnLevel) {
		t.Error("one-shot commands should still log warnings")
	}
	if oneShot.Core().Enabled(zap.InfoLevel) {
		t.Error("one-shot commands should not log info")
	}
	if !opts.componentLogger(true).Core().Enabled(zap.InfoLevel) {
		t.Error("long-running commands should log info")
	}

	opts.cfg.Debug = true
	if !opts.componentLogger(false).Core().Enabled(zap.InfoLevel) {
		t.Error("debug should keep info logging for one-shot commands")
	}
}

package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// setupTestEnv returns a fresh config file path.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.yaml")
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	wOut.Close()
	wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	var outBuf, errBuf bytes.Buffer
	outBuf.ReadFrom(rOut)
	errBuf.ReadFrom(rErr)

	stdout = outBuf.String()
	stderr = errBuf.String()
	if err != nil {
		exitCode = 1
		if stderr == "" || !strings.Contains(stderr, err.Error()) {
			stderr += err.Error()
		}
	}

	resetFlags(rootCmd)
	return
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
		f.Value.Set(f.DefValue)
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestVersion(t *testing.T) {
	cfg := setupTestEnv(t)

	stdout, _, code := runCmd(t, "--config", cfg, "version")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "sentio") {
		t.Fatalf("expected 'sentio', got: %s", stdout)
	}
}

func TestVersionJSON(t *testing.T) {
	cfg := setupTestEnv(t)

	stdout, _, code := runCmd(t, "--config", cfg, "version", "-o", "json")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, `"version"`) {
		t.Fatalf("expected JSON, got: %s", stdout)
	}
}

func TestConfigContexts(t *testing.T) {
	cfg := setupTestEnv(t)
	assets := t.TempDir()

	stdout, stderr, code := runCmd(t, "--config", cfg, "config", "add-context", "local", "--dir", assets)
	if code != 0 {
		t.Fatalf("add-context: exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "added") {
		t.Fatalf("expected 'added', got: %s", stdout)
	}

	runCmd(t, "--config", cfg, "config", "add-context", "remote",
		"--s3-bucket", "models", "--s3-prefix", "sentio", "--secret-key", "supersecretvalue")

	// The first context added becomes current.
	stdout, _, _ = runCmd(t, "--config", cfg, "config", "get-context")
	if strings.TrimSpace(stdout) != "local" {
		t.Fatalf("get-context = %q, want local", stdout)
	}

	stdout, _, _ = runCmd(t, "--config", cfg, "config", "list-contexts")
	if !strings.Contains(stdout, "* local") || !strings.Contains(stdout, "s3://models/sentio") {
		t.Fatalf("list-contexts: %s", stdout)
	}

	if _, stderr, code := runCmd(t, "--config", cfg, "config", "use-context", "remote"); code != 0 {
		t.Fatalf("use-context: %s", stderr)
	}
	stdout, _, _ = runCmd(t, "--config", cfg, "config", "view")
	if strings.Contains(stdout, "supersecretvalue") {
		t.Fatalf("secret not masked: %s", stdout)
	}
	if !strings.Contains(stdout, "bucket: models") {
		t.Fatalf("view: %s", stdout)
	}

	if _, _, code := runCmd(t, "--config", cfg, "config", "delete-context", "remote"); code != 0 {
		t.Fatal("delete-context failed")
	}
	if _, _, code := runCmd(t, "--config", cfg, "config", "use-context", "remote"); code == 0 {
		t.Fatal("use-context on a deleted context should fail")
	}
}

func TestConfigAddContextValidation(t *testing.T) {
	cfg := setupTestEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no source", nil, "required"},
		{"both sources", []string{"--dir", ".", "--s3-bucket", "b"}, "mutually exclusive"},
		{"missing task", []string{"--dir", ".", "--text-task", "/nonexistent/task.yaml"}, "task.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", cfg, "config", "add-context", "x"}, tt.args...)
			_, stderr, code := runCmd(t, args...)
			if code == 0 {
				t.Fatal("expected failure")
			}
			if !strings.Contains(stderr, tt.want) {
				t.Fatalf("stderr = %q, want %q", stderr, tt.want)
			}
		})
	}
}

func TestHistory(t *testing.T) {
	cfg := setupTestEnv(t)

	runCmd(t, "--config", cfg, "config", "add-context", "nohist", "--dir", t.TempDir())
	_, stderr, code := runCmd(t, "--config", cfg, "history")
	if code == 0 || !strings.Contains(stderr, "disabled") {
		t.Fatalf("expected disabled history, got exit %d: %s", code, stderr)
	}

	runCmd(t, "--config", cfg, "config", "add-context", "hist",
		"--dir", t.TempDir(), "--history-dir", filepath.Join(t.TempDir(), "history"))
	stdout, stderr, code := runCmd(t, "--config", cfg, "-c", "hist", "history")
	if code != 0 {
		t.Fatalf("history: exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "no history") {
		t.Fatalf("history: %s", stdout)
	}
}

func TestTextRequiresInput(t *testing.T) {
	cfg := setupTestEnv(t)

	_, stderr, code := runCmd(t, "--config", cfg, "text")
	if code == 0 || !strings.Contains(stderr, "no text given") {
		t.Fatalf("expected missing text error, got exit %d: %s", code, stderr)
	}
}

func TestRootHelp(t *testing.T) {
	stdout, _, code := runCmd(t, "--help")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "whole-word tokenization") {
		t.Errorf("help does not describe the tokenizer: %s", stdout)
	}
	if strings.Contains(stdout, "WordPiece") {
		t.Errorf("help claims subword splitting: %s", stdout)
	}
}

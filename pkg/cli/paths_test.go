package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPaths(t *testing.T) {
	p := &Paths{AppName: "sentio", HomeDir: "/home/u"}
	tests := []struct {
		got, want string
	}{
		{p.BaseDir(), "/home/u/.sentio"},
		{p.AppDir(), "/home/u/.sentio/sentio"},
		{p.ConfigFile(), "/home/u/.sentio/sentio/config.yaml"},
		{p.ModelDir(), "/home/u/.sentio/sentio/models"},
		{p.HistoryDir(), "/home/u/.sentio/sentio/history"},
		{p.RecordingDir(), "/home/u/.sentio/sentio/recordings"},
	}
	for _, tt := range tests {
		if tt.got != filepath.FromSlash(tt.want) {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestNewPaths(t *testing.T) {
	p, err := NewPaths("sentio")
	if err != nil {
		t.Skip("no home directory")
	}
	if p.HomeDir == "" || p.AppName != "sentio" {
		t.Errorf("NewPaths() = %+v", p)
	}
}

func TestEnsure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	got, err := Ensure(dir)
	if err != nil || got != dir {
		t.Fatalf("Ensure() = %q, %v", got, err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
}

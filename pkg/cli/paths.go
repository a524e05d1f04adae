package cli

import (
	"os"
	"path/filepath"
)

// Paths locates the per-user sentio directories.
type Paths struct {
	AppName string
	HomeDir string
}

// NewPaths creates a new Paths instance for the given app
func NewPaths(appName string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{AppName: appName, HomeDir: home}, nil
}

// BaseDir returns ~/.sentio
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// AppDir returns ~/.sentio/<app>
func (p *Paths) AppDir() string {
	return filepath.Join(p.BaseDir(), p.AppName)
}

// ConfigFile returns ~/.sentio/<app>/config.yaml
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.AppDir(), DefaultConfigFile)
}

// ModelDir returns the default local asset directory.
func (p *Paths) ModelDir() string {
	return filepath.Join(p.AppDir(), "models")
}

// HistoryDir returns the default history database directory.
func (p *Paths) HistoryDir() string {
	return filepath.Join(p.AppDir(), "history")
}

// RecordingDir returns where captured clips are saved.
func (p *Paths) RecordingDir() string {
	return filepath.Join(p.AppDir(), "recordings")
}

// Ensure creates dir if it doesn't exist and returns it.
func Ensure(dir string) (string, error) {
	return dir, os.MkdirAll(dir, 0755)
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLocalModelRoundTrip(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	model := []byte{0x08, 0x07, 0x12, 0x00, 0xff}
	if err := WriteAll(ctx, s, "models/sentiment_model.onnx", model); err != nil {
		t.Fatal(err)
	}
	got, err := ReadAll(ctx, s, "models/sentiment_model.onnx")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, model) {
		t.Fatalf("ReadAll = %x, want %x", got, model)
	}
}

func TestLocalReadMissing(t *testing.T) {
	s := newTestLocal(t)

	_, err := ReadAll(context.Background(), s, "vocab.txt")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ReadAll(missing) = %v, want os.ErrNotExist", err)
	}
}

func TestLocalExistsAndDelete(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	if ok, err := s.Exists(ctx, "vocab.txt"); err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v", ok, err)
	}
	if err := WriteAll(ctx, s, "vocab.txt", []byte("[PAD]\n")); err != nil {
		t.Fatal(err)
	}
	if ok, err := s.Exists(ctx, "vocab.txt"); err != nil || !ok {
		t.Fatalf("Exists(present) = %v, %v", ok, err)
	}
	if err := s.Delete(ctx, "vocab.txt"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "vocab.txt"); err != nil {
		t.Fatalf("second Delete = %v, want nil", err)
	}
}

func TestLocalWriteTruncates(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	if err := WriteAll(ctx, s, "f", []byte("long content here")); err != nil {
		t.Fatal(err)
	}
	if err := WriteAll(ctx, s, "f", []byte("short")); err != nil {
		t.Fatal(err)
	}
	got, err := ReadAll(ctx, s, "f")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "short" {
		t.Fatalf("got %q, want %q", got, "short")
	}
}

func TestNewLocalRequiresDir(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewLocal(filepath.Join(dir, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("NewLocal(missing) = %v, want os.ErrNotExist", err)
	}

	file := filepath.Join(dir, "vocab.txt")
	if err := os.WriteFile(file, []byte("[PAD]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLocal(file); err == nil {
		t.Fatal("NewLocal(file) should fail")
	}

	s, err := NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(s.Root()) {
		t.Fatalf("Root() = %q, want absolute", s.Root())
	}
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"vocab.txt", "vocab.txt", true},
		{" models/sentiment_model.onnx ", "models/sentiment_model.onnx", true},
		{"models/./v1//emotion_model_quant.onnx", "models/v1/emotion_model_quant.onnx", true},
		{`models\vocab.txt`, "models/vocab.txt", true},
		{"models/../vocab.txt", "vocab.txt", true},
		{"", "", false},
		{"   ", "", false},
		{".", "", false},
		{"/etc/passwd", "", false},
		{"../secret.onnx", "", false},
		{"models/../../secret.onnx", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanPath(tt.in)
			if !tt.ok {
				if !errors.Is(err, ErrInvalidPath) {
					t.Fatalf("CleanPath(%q) = %q, %v, want ErrInvalidPath", tt.in, got, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("CleanPath(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestLocalRejectsEscapes(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "assets")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(parent, "secret.onnx"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewLocal(root)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := ReadAll(ctx, s, "../secret.onnx"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Read escape = %v, want ErrInvalidPath", err)
	}
	if _, err := s.Exists(ctx, "/secret.onnx"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Exists absolute = %v, want ErrInvalidPath", err)
	}
	if err := WriteAll(ctx, s, "../x", []byte("x")); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Write escape = %v, want ErrInvalidPath", err)
	}
	if err := s.Delete(ctx, ".."); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Delete escape = %v, want ErrInvalidPath", err)
	}
}

func TestLocalDirectoryIsNotAnAsset(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	if err := os.Mkdir(filepath.Join(s.Root(), "models"), 0o755); err != nil {
		t.Fatal(err)
	}
	if ok, err := s.Exists(ctx, "models"); err != nil || ok {
		t.Errorf("Exists(dir) = %v, %v, want false", ok, err)
	}
	if _, err := ReadAll(ctx, s, "models"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Read(dir) = %v, want ErrInvalidPath", err)
	}
}

var _ FileStore = (*Local)(nil)

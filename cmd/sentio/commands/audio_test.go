package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haivivi/sentio/pkg/analyzer"
	"github.com/haivivi/sentio/pkg/audio/portaudio"
)

func TestMicDriver(t *testing.T) {
	if d := micDriver("clip.wav"); d != nil {
		t.Errorf("micDriver(file) = %T, want nil", d)
	}
	if _, ok := micDriver("").(portaudio.Driver); !ok {
		t.Errorf("micDriver(\"\") = %T, want portaudio.Driver", micDriver(""))
	}
}

func TestAwaitOutcome(t *testing.T) {
	results := make(chan analyzer.Outcome, 1)
	results <- analyzer.Outcome{Label: "Happy"}
	out, err := await(context.Background(), results)
	if err != nil || out.Label != "Happy" {
		t.Fatalf("await = %+v, %v", out, err)
	}

	fault := errors.New("capture failed")
	results <- analyzer.Outcome{Err: fault}
	if _, err := await(context.Background(), results); !errors.Is(err, fault) {
		t.Fatalf("await err = %v, want %v", err, fault)
	}
}

func TestAwaitCancelWaitsForAnalysis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := make(chan analyzer.Outcome)
	returned := make(chan error, 1)
	go func() {
		_, err := await(ctx, results)
		returned <- err
	}()

	select {
	case err := <-returned:
		t.Fatalf("await returned %v while the analysis was still running", err)
	case <-time.After(50 * time.Millisecond):
	}

	results <- analyzer.Outcome{Label: "Neutral"}
	select {
	case err := <-returned:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("await err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("await did not return after the analysis finished")
	}
}

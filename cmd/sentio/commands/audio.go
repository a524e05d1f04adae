package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haivivi/sentio/pkg/analyzer"
	"github.com/haivivi/sentio/pkg/audio/portaudio"
	"github.com/haivivi/sentio/pkg/capture"
	"github.com/haivivi/sentio/pkg/cli"
	"github.com/haivivi/sentio/pkg/task"
)

var audioFile string

var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Classify the emotion of speech",
	Long: `Record 4 seconds from the default microphone and classify the emotion
with the context's audio task. With --file, a WAV file is converted to mono
at the task's sample rate and classified instead; the microphone is not
opened.

Examples:
  sentio audio
  sentio audio --file clip.wav -o yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		driver := micDriver(audioFile)
		if driver != nil {
			// Registered before the runtime so it runs after the
			// capture stream is closed.
			defer portaudio.Terminate()
		}

		rt, err := openRuntime(ctx, task.ModeAudio, driver)
		if err != nil {
			return err
		}
		defer rt.Close()

		if driver != nil {
			cli.PrintInfo("Recording for %s...", cli.FormatDuration(capture.Duration))
		}
		out, err := await(ctx, rt.analyzer.Go(ctx, analyzer.Request{Mode: task.ModeAudio, File: audioFile}))
		if err != nil {
			return err
		}
		return outputResult(outcome(out))
	},
}

// micDriver returns the microphone driver, or nil when the input is a file.
func micDriver(file string) capture.Driver {
	if file != "" {
		return nil
	}
	return portaudio.Driver{}
}

// await returns the outcome of an analysis started with Analyzer.Go. If ctx
// ends first, it still waits for the analysis goroutine so the device is no
// longer in use when the caller tears it down, then returns ctx.Err().
func await(ctx context.Context, results <-chan analyzer.Outcome) (analyzer.Outcome, error) {
	select {
	case out := <-results:
		return out, out.Err
	case <-ctx.Done():
		<-results
		return analyzer.Outcome{}, ctx.Err()
	}
}

func init() {
	audioCmd.Flags().StringVar(&audioFile, "file", "", "classify a WAV file instead of recording")
}

package commands

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/sentio/pkg/cli"
	"github.com/haivivi/sentio/pkg/transcribe"
	"github.com/haivivi/sentio/pkg/whisper"
)

var (
	whisperModel   string
	whisperThreads int
)

// transcript is the transcribe command's result.
type transcript struct {
	File     string `json:"file" yaml:"file"`
	Text     string `json:"text" yaml:"text"`
	Duration string `json:"duration" yaml:"duration"`
}

func (t transcript) Table() string {
	return cli.Card{
		Styles: cli.NewStyles(cli.DefaultTheme),
		Title:  "transcript",
		Status: t.Duration,
		Rows:   []cli.Row{{Label: "file", Value: t.File}},
		Footer: t.Text,
	}.Render()
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe FILE.wav",
	Short: "Transcribe English speech with whisper.cpp",
	Long: `Transcribe a WAV file with a whisper.cpp ggml model. The file is
converted to mono 16 kHz first. The model comes from --model or the
context's whisper_model.

Example:
  sentio transcribe clip.wav --model ~/models/ggml-base.en.bin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model := whisperModel
		if model == "" {
			if c, err := getContext(); err == nil {
				model = c.WhisperModel
			}
		}
		if model == "" {
			return errors.New("no whisper model (use --model or set whisper_model in the context)")
		}

		w, err := whisper.Init(model)
		if err != nil {
			return err
		}
		defer w.Close()
		w.SetThreads(whisperThreads)

		start := time.Now()
		text, err := transcribe.File(w, args[0])
		if err != nil {
			return err
		}
		return outputResult(transcript{
			File:     args[0],
			Text:     text,
			Duration: cli.FormatDuration(time.Since(start)),
		})
	},
}

func init() {
	transcribeCmd.Flags().StringVarP(&whisperModel, "model", "m", "", "whisper ggml model file")
	transcribeCmd.Flags().IntVar(&whisperThreads, "threads", 0, "decoder threads (0: library default)")
}

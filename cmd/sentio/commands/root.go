package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/sentio/pkg/cli"
)

const appName = "sentio"

var (
	// Global flags
	cfgFile      string
	contextName  string
	outputFormat string
	outputFile   string
	verbose      bool

	globalConfig *cli.Config
)

var rootCmd = &cobra.Command{
	Use:   "sentio",
	Short: "On-device sentiment and speech emotion analysis",
	Long: `sentio - classify text sentiment and speech emotion with ONNX models.

Two analysis modes are available:
  - text:  whole-word tokenization into a 128-token BERT input (sentiment)
  - audio: 4 seconds of 16 kHz mono audio (emotion)

Models and vocabularies are read from the context's asset source, a local
directory or an S3 bucket. Configuration is stored in ~/.sentio/sentio/ and
supports multiple contexts, similar to kubectl's context management.

Examples:
  # Point a context at a model directory
  sentio config add-context local --dir ~/models --history-dir ~/.sentio/history

  # Classify text
  sentio text "I love this."

  # Record from the microphone and classify emotion
  sentio audio

  # Classify a WAV file, print JSON
  sentio audio --file clip.wav -o json
`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return initConfig() },
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.sentio/sentio/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: yaml, json, table")
	rootCmd.PersistentFlags().StringVar(&outputFile, "output-file", "", "write output to file instead of stdout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(textCmd)
	rootCmd.AddCommand(audioCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var err error
	globalConfig, err = cli.LoadConfigWithPath(appName, cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return nil
}

func getConfig() *cli.Config {
	return globalConfig
}

// getContext returns the context selected by -c or the current one.
func getContext() (*cli.Context, error) {
	cfg := getConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return cfg.ResolveContext(contextName)
}

// outputResult writes result in the --output format.
func outputResult(result any) error {
	format, err := cli.ParseOutputFormat(outputFormat)
	if err != nil {
		return err
	}
	return cli.Output(result, cli.OutputOptions{Format: format, File: outputFile})
}

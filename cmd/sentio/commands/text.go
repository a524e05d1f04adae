package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/sentio/pkg/cli"
	"github.com/haivivi/sentio/pkg/task"
)

var textFile string

var textCmd = &cobra.Command{
	Use:   "text [TEXT...]",
	Short: "Classify the sentiment of text",
	Long: `Classify the sentiment of text with the context's text task.

Arguments are joined into one text. With -f, each text in the file is
classified: YAML/JSON files hold {texts: [...]}, other files hold one text
per line, and "-" reads lines from stdin.

Examples:
  sentio text "I love this."
  sentio text -f reviews.yaml -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var texts []string
		switch {
		case textFile != "":
			var err error
			if texts, err = cli.LoadTexts(textFile); err != nil {
				return err
			}
		case len(args) > 0:
			texts = []string{strings.Join(args, " ")}
		default:
			return errors.New("no text given (pass TEXT or -f FILE)")
		}

		rt, err := openRuntime(cmd.Context(), task.ModeText, nil)
		if err != nil {
			return err
		}
		defer rt.Close()

		results := make(outcomes, 0, len(texts))
		for _, t := range texts {
			out, err := rt.analyzer.AnalyzeText(cmd.Context(), t)
			if err != nil {
				return err
			}
			results = append(results, outcome(out))
		}
		if len(results) == 1 && textFile == "" {
			return outputResult(results[0])
		}
		return outputResult(results)
	},
}

func init() {
	textCmd.Flags().StringVarP(&textFile, "file", "f", "", "file of texts (YAML, JSON, or one per line; - for stdin)")
}

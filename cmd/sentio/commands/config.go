package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/sentio/pkg/cli"
	"github.com/haivivi/sentio/pkg/storage"
	"github.com/haivivi/sentio/pkg/task"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage sentio configuration.

Configuration is stored in ~/.sentio/sentio/config.yaml.
Each context names an asset source (a local directory or an S3 bucket),
an optional history directory and optional task overrides.`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Long: `Add or replace a context.

Examples:
  sentio config add-context local --dir ~/models --history-dir ~/.sentio/history
  sentio config add-context prod --s3-bucket models --s3-prefix sentio/v1 --s3-region us-east-1
  sentio config add-context custom --dir ./assets --text-task ./tasks/review.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		f := cmd.Flags()
		dir, _ := f.GetString("dir")
		bucket, _ := f.GetString("s3-bucket")
		historyDir, _ := f.GetString("history-dir")
		textTask, _ := f.GetString("text-task")
		audioTask, _ := f.GetString("audio-task")
		whisperModel, _ := f.GetString("whisper-model")

		if dir == "" && bucket == "" {
			return fmt.Errorf("one of --dir or --s3-bucket is required")
		}
		if dir != "" && bucket != "" {
			return fmt.Errorf("--dir and --s3-bucket are mutually exclusive")
		}

		ctx := &cli.Context{
			Name:         name,
			Assets:       cli.AssetSource{Dir: dir},
			HistoryDir:   historyDir,
			WhisperModel: whisperModel,
		}
		if bucket != "" {
			s3 := &storage.S3Options{Bucket: bucket}
			s3.Prefix, _ = f.GetString("s3-prefix")
			s3.Region, _ = f.GetString("s3-region")
			s3.Endpoint, _ = f.GetString("s3-endpoint")
			s3.AccessKey, _ = f.GetString("access-key")
			s3.SecretKey, _ = f.GetString("secret-key")
			ctx.Assets.S3 = s3
		}
		for mode, path := range map[task.Mode]string{task.ModeText: textTask, task.ModeAudio: audioTask} {
			if path == "" {
				continue
			}
			cfg, err := task.Load(path)
			if err != nil {
				return err
			}
			if cfg.Mode() != mode {
				return fmt.Errorf("%s: task %q is a %s task", path, cfg.Name, cfg.Mode())
			}
			if ctx.Tasks == nil {
				ctx.Tasks = make(map[string]string)
			}
			ctx.Tasks[string(mode)] = path
		}

		cfg := getConfig()
		if err := cfg.AddContext(name, ctx); err != nil {
			return err
		}

		cli.PrintSuccess("Context '%s' added successfully", name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := getConfig().DeleteContext(name); err != nil {
			return err
		}
		cli.PrintSuccess("Context '%s' deleted", name)
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the default context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := getConfig().UseContext(name); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context '%s'", name)
		return nil
	},
}

var configGetContextCmd = &cobra.Command{
	Use:   "get-context",
	Short: "Show the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if cfg.CurrentContext == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No current context set")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), cfg.CurrentContext)
		}
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"list"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		names := cfg.ListContexts()
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No contexts configured")
			return nil
		}
		for _, name := range names {
			marker := "  "
			if name == cfg.CurrentContext {
				marker = "* "
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s%-16s %s\n", marker, name, cfg.Contexts[name].Assets)
		}
		return nil
	},
}

var configViewCmd = &cobra.Command{
	Use:     "view [name]",
	Aliases: []string{"show"},
	Short:   "View a context (credentials masked)",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := contextName
		if len(args) == 1 {
			name = args[0]
		}
		ctx, err := getConfig().ResolveContext(name)
		if err != nil {
			return err
		}
		return outputResult(ctx.Masked())
	},
}

func init() {
	f := configAddContextCmd.Flags()
	f.String("dir", "", "local directory holding models and vocabularies")
	f.String("s3-bucket", "", "S3 bucket holding models and vocabularies")
	f.String("s3-prefix", "", "key prefix inside the bucket")
	f.String("s3-region", "", "bucket region")
	f.String("s3-endpoint", "", "S3-compatible endpoint (MinIO, R2)")
	f.String("access-key", "", "S3 access key (default: AWS credential chain)")
	f.String("secret-key", "", "S3 secret key")
	f.String("history-dir", "", "directory for the outcome history (empty disables it)")
	f.String("text-task", "", "task YAML replacing the built-in text task")
	f.String("audio-task", "", "task YAML replacing the built-in audio task")
	f.String("whisper-model", "", "whisper ggml model for the transcribe command")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configViewCmd)
}

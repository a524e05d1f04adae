// Package cli holds the shared pieces of the sentio command line:
//
//   - configuration contexts (asset source, history location, task overrides)
//   - output formatting (YAML, JSON, table)
//   - batch request files (YAML/JSON)
//   - a styled result card for terminal output
//
// Configuration lives in ~/.sentio/<app>/config.yaml and supports several
// named contexts, in the style of kubectl:
//
//	cfg, err := cli.LoadConfig("sentio")
//	ctx, err := cfg.ResolveContext(flagContext)
//	store, err := ctx.Assets.Open(context.Background())
package cli

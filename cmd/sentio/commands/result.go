package commands

import (
	"fmt"
	"strings"

	"github.com/haivivi/sentio/pkg/analyzer"
	"github.com/haivivi/sentio/pkg/cli"
	"github.com/haivivi/sentio/pkg/history"
)

const barWidth = 20

// outcome renders an analyzer.Outcome as a result card.
type outcome analyzer.Outcome

func (o outcome) card() cli.Card {
	c := cli.Card{
		Styles: cli.NewStyles(cli.DefaultTheme),
		Title:  o.Label,
		Status: o.Task,
		Rows: []cli.Row{
			{Label: "mode", Value: string(o.Mode)},
			{Label: "confidence", Value: cli.Bar(o.Confidence, barWidth) + " " + cli.FormatPercent(o.Confidence)},
			{Label: "class", Value: fmt.Sprint(o.Index)},
		},
	}
	if o.Input != "" {
		c.Footer = cli.Truncate(o.Input, 60)
	}
	return c
}

func (o outcome) Table() string { return o.card().Render() }

// outcomes is a batch of results.
type outcomes []outcome

func (all outcomes) Table() string {
	cards := make([]string, len(all))
	for i, o := range all {
		cards[i] = o.Table()
	}
	return strings.Join(cards, "\n")
}

// records renders history as one line per record.
type records []history.Record

func (rs records) Table() string {
	if len(rs) == 0 {
		return "(no history)"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-20s  %-10s  %-14s  %-7s  %s\n", "TIME", "TASK", "LABEL", "CONF", "INPUT")
	for _, r := range rs {
		fmt.Fprintf(&sb, "%-20s  %-10s  %-14s  %-7s  %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			cli.Truncate(r.Task, 10),
			cli.Truncate(r.Label, 14),
			cli.FormatPercent(r.Confidence),
			cli.Truncate(r.Input, 40))
	}
	return strings.TrimRight(sb.String(), "\n")
}

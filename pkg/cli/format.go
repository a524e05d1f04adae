package cli

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration formats a duration the way the CLI prints timings.
func FormatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	secs := d.Seconds()
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	mins := int(secs / 60)
	return fmt.Sprintf("%dm%.1fs", mins, secs-float64(mins*60))
}

// FormatBytes formats bytes to human readable string
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	}
	return fmt.Sprintf("%d B", bytes)
}

// FormatPercent formats a probability as a percentage.
func FormatPercent(p float32) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

// Bar draws a horizontal bar of width cells filled to fraction p.
func Bar(p float32, width int) string {
	if width <= 0 {
		return ""
	}
	p = min(max(p, 0), 1)
	filled := int(p*float32(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

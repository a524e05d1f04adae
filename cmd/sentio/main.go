// Package main is the sentio CLI: sentiment analysis of text and emotion
// recognition from speech with on-device ONNX models.
//
// Usage:
//
//	sentio [flags] <command> [args]
//
// Commands:
//
//	text        - Classify the sentiment of text
//	audio       - Record 4 seconds from the microphone (or read a WAV file) and classify emotion
//	transcribe  - Transcribe a WAV file with whisper.cpp
//	history     - List or clear stored outcomes
//	devices     - List audio devices
//	config      - Configuration management (contexts)
//	version     - Show version information
//
// Configuration:
//
//	The CLI stores configuration in ~/.sentio/sentio/
//	Use 'sentio config' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/sentio/cmd/sentio/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Package main provides the voicewire CLI tool.
//
// Usage:
//
//	voicewire [flags] <service> <command> [args]
//
// Services:
//
//	tts     - Streaming speech synthesis
//	asr     - Speech recognition
//	session - Voice session transcripts
//	config  - Configuration management
//
// Configuration:
//
//	The CLI stores configuration in ~/.reason-code/voicewire/
//	Use 'voicewire config' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/reason-code/voicewire/cmd/voicewire/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

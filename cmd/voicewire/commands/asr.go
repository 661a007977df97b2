package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/reason-code/voicewire/pkg/cli"
	"github.com/reason-code/voicewire/pkg/sessionlog"
	"github.com/reason-code/voicewire/pkg/volcspeech"
)

var asrCmd = &cobra.Command{
	Use:   "asr",
	Short: "Speech recognition service",
	Long: `One-shot speech recognition.

The whole recording is sent in a single exchange; the service streams
back partial results and the final transcript wins.`,
}

var asrRecognizeCmd = &cobra.Command{
	Use:   "recognize <audio-file>",
	Short: "Recognize speech from an audio file",
	Long: `Recognize speech from a recorded audio file.

The audio format is inferred from the file extension (webm, ogg, mp4,
m4a, mp3, wav, pcm); override with --format and --codec.

Example:
  voicewire asr recognize recording.webm
  voicewire asr recognize audio.wav --json
  voicewire asr recognize clip.bin --format webm --codec opus`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		audioPath := args[0]

		audio, err := os.ReadFile(audioPath)
		if err != nil {
			return fmt.Errorf("failed to read audio file: %w", err)
		}

		format, _ := cmd.Flags().GetString("format")
		codec, _ := cmd.Flags().GetString("codec")
		if format == "" {
			format, codec, err = volcspeech.AudioFormatForPath(audioPath)
			if err != nil {
				return fmt.Errorf("%w, use --format and --codec", err)
			}
		}

		timeoutSecs, _ := cmd.Flags().GetInt("timeout")

		cliCtx, err := getContext()
		if err != nil {
			return err
		}
		client := createClient(cliCtx)

		printVerbose("Using context: %s", cliCtx.Name)
		printVerbose("Audio: %s (%s, %s/%s)",
			audioPath, cli.FormatBytesInt(len(audio)), format, codec)

		req := &volcspeech.RecognizeRequest{
			Audio:  audio,
			Format: format,
			Codec:  codec,
		}
		if timeoutSecs > 0 {
			req.Timeout = time.Duration(timeoutSecs) * time.Second
		} else if cliCtx.Timeout > 0 {
			req.Timeout = time.Duration(cliCtx.Timeout) * time.Second
		}

		reqCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		start := time.Now()
		result, err := client.Recognize(reqCtx, req)
		if err != nil {
			return fmt.Errorf("recognition failed: %w", err)
		}
		elapsed := time.Since(start)

		if result.Text == "" {
			cli.PrintWarning("no speech recognized")
		} else {
			printVerbose("Recognized in %s", cli.FormatDuration(int(elapsed.Milliseconds())))
		}

		if logSession, _ := cmd.Flags().GetBool("log-session"); logSession && result.Text != "" {
			log, err := openTranscript()
			if err == nil {
				err = log.Append(sessionlog.NewSessionID(), sessionlog.RoleUser,
					result.Text, "recognition")
			}
			if err != nil {
				cli.PrintWarning("transcript not recorded: %v", err)
			}
		}

		out := map[string]any{
			"text":        result.Text,
			"audio_file":  audioPath,
			"duration_ms": elapsed.Milliseconds(),
		}
		return outputResult(out, getOutputFile(), isJSONOutput())
	},
}

func init() {
	asrRecognizeCmd.Flags().String("format", "", "audio container format (default: inferred from extension)")
	asrRecognizeCmd.Flags().String("codec", "", "audio codec (default: inferred from extension)")
	asrRecognizeCmd.Flags().Int("timeout", 0, "response timeout in seconds")
	asrRecognizeCmd.Flags().Bool("log-session", false, "record the transcript in the session log")

	asrCmd.AddCommand(asrRecognizeCmd)
}

package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/api/iterator"

	"github.com/reason-code/voicewire/pkg/cli"
	"github.com/reason-code/voicewire/pkg/sessionlog"
	"github.com/reason-code/voicewire/pkg/volcspeech"
)

var ttsCmd = &cobra.Command{
	Use:   "tts",
	Short: "Speech synthesis service",
	Long: `Bidirectional streaming speech synthesis.

The text is segmented into chunks along punctuation boundaries and fed
to the service over one WebSocket session; audio is written to the
output file as it arrives.

Example request file (tts.yaml):
  text: 你好，这是一段测试语音。
  voice: zh_female_tianmeixiaoyuan_moon_bigtts
  format: mp3
  sample_rate: 24000`,
}

var ttsStreamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream speech synthesis to a file",
	Long: `Synthesize speech over a bidirectional WebSocket session.

The text comes from a request file (-f) or the --text flag.

Example:
  voicewire tts stream -f tts.yaml -o output.mp3
  voicewire tts stream --text "你好，世界。" -o hello.mp3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOutputFile(); err != nil {
			return err
		}

		var req volcspeech.SynthesizeRequest
		text, _ := cmd.Flags().GetString("text")
		if text != "" {
			req.Text = text
		} else {
			if err := requireInputFile(); err != nil {
				return err
			}
			if err := cli.LoadRequest(getInputFile(), &req); err != nil {
				return err
			}
		}

		cliCtx, err := getContext()
		if err != nil {
			return err
		}
		client := createClient(cliCtx)

		printVerbose("Using context: %s", cliCtx.Name)
		printVerbose("Text length: %d characters", len(req.Text))

		out, err := os.Create(getOutputFile())
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer out.Close()

		sink := &fileSink{file: out}

		reqCtx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		start := time.Now()
		if err := client.SynthesizeStream(reqCtx, &req, sink); err != nil {
			return fmt.Errorf("synthesis failed: %w", err)
		}

		elapsed := time.Since(start)
		cli.PrintSuccess("Audio saved to: %s (%s in %s, %d chunks)",
			getOutputFile(), cli.FormatBytesInt(sink.total),
			cli.FormatDuration(int(elapsed.Milliseconds())), sink.chunks)

		if logSession, _ := cmd.Flags().GetBool("log-session"); logSession {
			if err := logSynthesis(req.Text); err != nil {
				cli.PrintWarning("transcript not recorded: %v", err)
			}
		}

		result := map[string]any{
			"audio_size":  sink.total,
			"chunks":      sink.chunks,
			"duration_ms": elapsed.Milliseconds(),
			"output_file": getOutputFile(),
		}
		return outputResult(result, "", isJSONOutput())
	},
}

var ttsSegmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Preview text segmentation",
	Long: `Show how a text would be segmented into synthesis chunks,
without contacting the service.

Example:
  voicewire tts segment --text "第一句。第二句也比较长，会被切开。"
  cat article.txt | voicewire tts segment -f -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		maxRunes, _ := cmd.Flags().GetInt("max-runes")
		minRunes, _ := cmd.Flags().GetInt("min-runes")

		text, _ := cmd.Flags().GetString("text")
		var chunks []string
		if text != "" {
			chunks = volcspeech.SplitText(text, maxRunes, minRunes)
		} else {
			if err := requireInputFile(); err != nil {
				return err
			}
			var r *os.File
			if getInputFile() == "-" {
				r = os.Stdin
			} else {
				f, err := os.Open(getInputFile())
				if err != nil {
					return fmt.Errorf("failed to open input: %w", err)
				}
				defer f.Close()
				r = f
			}
			it := volcspeech.ChunkReader(r, maxRunes, minRunes)
			for {
				chunk, err := it.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					return err
				}
				chunks = append(chunks, chunk)
			}
		}

		for i, chunk := range chunks {
			fmt.Printf("%3d  %s\n", i+1, chunk)
		}
		printVerbose("%d chunks", len(chunks))
		return nil
	},
}

// fileSink streams synthesized audio into a file as it arrives.
type fileSink struct {
	file   *os.File
	total  int
	chunks int
	errMsg string
}

func (s *fileSink) AudioChunk(chunk []byte) {
	n, err := s.file.Write(chunk)
	if err != nil {
		cli.PrintError("write audio chunk: %v", err)
		return
	}
	s.total += n
	s.chunks++
}

func (s *fileSink) Finished(totalBytes int) {
	if totalBytes != s.total {
		cli.PrintWarning("received %d bytes, wrote %d", totalBytes, s.total)
	}
}

func (s *fileSink) StreamError(message string) {
	s.errMsg = message
}

// logSynthesis records the synthesized text in the session transcript.
func logSynthesis(text string) error {
	log, err := openTranscript()
	if err != nil {
		return err
	}
	return log.Append(sessionlog.NewSessionID(), sessionlog.RoleAssistant,
		strings.TrimSpace(text), "synthesis")
}

func init() {
	ttsStreamCmd.Flags().String("text", "", "text to synthesize (overrides -f)")
	ttsStreamCmd.Flags().Bool("log-session", false, "record the text in the session transcript")

	ttsSegmentCmd.Flags().String("text", "", "text to segment (overrides -f)")
	ttsSegmentCmd.Flags().Int("max-runes", 0, "maximum chunk length in runes")
	ttsSegmentCmd.Flags().Int("min-runes", 0, "minimum chunk length before a boundary split")

	ttsCmd.AddCommand(ttsStreamCmd)
	ttsCmd.AddCommand(ttsSegmentCmd)
}

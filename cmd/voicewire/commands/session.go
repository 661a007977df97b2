package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/reason-code/voicewire/pkg/cli"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Voice session transcripts",
	Long: `Inspect the voice session transcript log.

Recognition and synthesis commands append to the transcript when run
with --log-session. The log lives at
~/.reason-code/voicewire/logs/transcript.jsonl`,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the session transcript",
	Long: `Show recorded transcript lines, newest last.

Example:
  voicewire session show
  voicewire session show --session 6f7c... --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := openTranscript()
		if err != nil {
			return err
		}

		sessionID, _ := cmd.Flags().GetString("session")
		records, err := log.Records()
		if err != nil {
			return err
		}
		if sessionID != "" {
			records, err = log.Session(sessionID)
			if err != nil {
				return err
			}
		}

		if len(records) == 0 {
			fmt.Println("No transcript records")
			return nil
		}

		if isJSONOutput() || getOutputFile() != "" {
			return outputResult(records, getOutputFile(), isJSONOutput())
		}

		styles := cli.DefaultStyles
		for _, rec := range records {
			ts := time.UnixMilli(rec.Timestamp).Format("2006-01-02 15:04:05")
			fmt.Printf("%s  %s  %s\n",
				styles.Help.Render(ts), styles.Label.Render(rec.Role), rec.Text)
		}
		printVerbose("%d records from %s", len(records), log.Path())
		return nil
	},
}

var sessionPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the transcript log path",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := openTranscript()
		if err != nil {
			return err
		}
		fmt.Println(log.Path())
		return nil
	},
}

func init() {
	sessionShowCmd.Flags().String("session", "", "filter by session id")

	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionPathCmd)
}

package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/reason-code/voicewire/pkg/cli"
)

const appName = "voicewire"

var (
	// Global flags
	inputFile   string
	outputFile  string
	contextName string
	jsonOutput  bool
	verbose     bool

	// Global configuration (loaded at init time)
	globalConfig *cli.Config
)

var rootCmd = &cobra.Command{
	Use:   "voicewire",
	Short: "CLI for the Volcengine streaming speech service",
	Long: `voicewire - drive the Volcengine streaming speech service from the
terminal: bidirectional speech synthesis, one-shot speech recognition,
and voice session transcripts.

Configuration is stored in ~/.reason-code/voicewire/config.yaml and
supports multiple credential contexts, similar to kubectl.

Examples:
  # Configure credentials
  voicewire config add-context prod --app-id ID --access-token TOKEN \
    --tts-resource seed-tts-1.0 --asr-resource volc.bigasr.sauc.duration
  voicewire config use-context prod

  # Synthesize speech to a file
  voicewire tts stream --text "你好，世界。" -o hello.mp3

  # Recognize speech from a recording
  voicewire asr recognize recording.webm

  # Review the session transcript
  voicewire session show`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "", "request file (YAML or JSON, '-' for stdin)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name (default: current context)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(ttsCmd)
	rootCmd.AddCommand(asrCmd)
	rootCmd.AddCommand(sessionCmd)
}

// configLoadErr stores the error from cli.LoadConfig for deferred
// reporting, so commands that never touch config still run.
var configLoadErr error

func initConfig() {
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	cfg, err := cli.LoadConfig(appName)
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// getConfig returns the global configuration.
func getConfig() (*cli.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := cli.LoadConfig(appName)
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// getContext resolves the active credential context, honoring the
// --context flag.
func getContext() (*cli.Context, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	ctx, err := cfg.ResolveContext(contextName)
	if err != nil {
		return nil, fmt.Errorf("%w, run: voicewire config add-context", err)
	}
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	return ctx, nil
}

func getInputFile() string {
	return inputFile
}

func getOutputFile() string {
	return outputFile
}

func isJSONOutput() bool {
	return jsonOutput
}

func printVerbose(format string, args ...any) {
	cli.PrintVerbose(verbose, format, args...)
}

func requireInputFile() error {
	if getInputFile() == "" {
		return fmt.Errorf("input file is required, use -f flag")
	}
	return nil
}

func requireOutputFile() error {
	if getOutputFile() == "" {
		return fmt.Errorf("output file is required, use -o flag")
	}
	return nil
}

// outputResult writes a result map to the output file or stdout.
func outputResult(result any, file string, asJSON bool) error {
	format := cli.FormatYAML
	if asJSON {
		format = cli.FormatJSON
	}
	return cli.Output(result, cli.OutputOptions{Format: format, File: file})
}

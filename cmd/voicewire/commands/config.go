package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reason-code/voicewire/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration and contexts.

Contexts allow you to manage multiple credential sets,
similar to kubectl's context management.

Configuration is stored in ~/.reason-code/voicewire/config.yaml`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Long: `Add a new context with the specified name.

The speech service requires:
  - App ID: Your application ID from the provider console
  - Access Token: The token paired with the App ID

Resource ids select the billing/model plan per path. A shared
--resource-id works as a fallback for both paths.

Example:
  voicewire config add-context prod \
    --app-id YOUR_APP_ID --access-token YOUR_TOKEN \
    --tts-resource seed-tts-1.0 \
    --asr-resource volc.bigasr.sauc.duration \
    --default-voice zh_female_tianmeixiaoyuan_moon_bigtts`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		appID, err := cmd.Flags().GetString("app-id")
		if err != nil {
			return fmt.Errorf("failed to read 'app-id' flag: %w", err)
		}
		if appID == "" {
			return fmt.Errorf("--app-id is required")
		}

		accessToken, err := cmd.Flags().GetString("access-token")
		if err != nil {
			return fmt.Errorf("failed to read 'access-token' flag: %w", err)
		}
		if accessToken == "" {
			return fmt.Errorf("--access-token is required")
		}

		ttsResource, err := cmd.Flags().GetString("tts-resource")
		if err != nil {
			return fmt.Errorf("failed to read 'tts-resource' flag: %w", err)
		}
		asrResource, err := cmd.Flags().GetString("asr-resource")
		if err != nil {
			return fmt.Errorf("failed to read 'asr-resource' flag: %w", err)
		}
		resourceID, err := cmd.Flags().GetString("resource-id")
		if err != nil {
			return fmt.Errorf("failed to read 'resource-id' flag: %w", err)
		}

		endpoint, err := cmd.Flags().GetString("endpoint")
		if err != nil {
			return fmt.Errorf("failed to read 'endpoint' flag: %w", err)
		}
		timeout, err := cmd.Flags().GetInt("timeout")
		if err != nil {
			return fmt.Errorf("failed to read 'timeout' flag: %w", err)
		}
		defaultVoice, err := cmd.Flags().GetString("default-voice")
		if err != nil {
			return fmt.Errorf("failed to read 'default-voice' flag: %w", err)
		}

		ctx := &cli.Context{
			AppID:         appID,
			AccessToken:   accessToken,
			TTSResourceID: ttsResource,
			ASRResourceID: asrResource,
			ResourceID:    resourceID,
			Endpoint:      endpoint,
			Timeout:       timeout,
			DefaultVoice:  defaultVoice,
		}

		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.AddContext(name, ctx); err != nil {
			return err
		}

		cli.PrintSuccess("Context %q added successfully", name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(name); err != nil {
			return err
		}

		cli.PrintSuccess("Context %q deleted", name)
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(name); err != nil {
			return err
		}

		cli.PrintSuccess("Switched to context %q", name)
		return nil
	},
}

var configGetContextCmd = &cobra.Command{
	Use:   "get-context",
	Short: "Display the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}

		if cfg.CurrentContext == "" {
			fmt.Println("No current context set")
			return nil
		}

		fmt.Println(cfg.CurrentContext)
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"get-contexts"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}

		if len(cfg.Contexts) == 0 {
			fmt.Println("No contexts configured")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tAPP_ID\tTTS_RESOURCE\tASR_RESOURCE\tDEFAULT_VOICE")

		for name, ctx := range cfg.Contexts {
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			ttsResource := ctx.TTSResourceID
			if ttsResource == "" {
				ttsResource = ctx.ResourceID
			}
			asrResource := ctx.ASRResourceID
			if asrResource == "" {
				asrResource = ctx.ResourceID
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				current, name, ctx.AppID, ttsResource, asrResource, ctx.DefaultVoice)
		}

		w.Flush()
		return nil
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		styles := cli.DefaultStyles

		fmt.Println(styles.Field("Config file", cfg.Path()))
		fmt.Println(styles.Field("Current context", cfg.CurrentContext))
		fmt.Println(styles.Field("Contexts", fmt.Sprintf("%d", len(cfg.Contexts))))

		for name, ctx := range cfg.Contexts {
			fmt.Printf("\n  %s:\n", styles.Label.Render(name))
			fmt.Printf("    App ID: %s\n", ctx.AppID)
			fmt.Printf("    Access Token: %s\n", cli.MaskSecret(ctx.AccessToken))
			if ctx.TTSResourceID != "" {
				fmt.Printf("    TTS Resource: %s\n", ctx.TTSResourceID)
			}
			if ctx.ASRResourceID != "" {
				fmt.Printf("    ASR Resource: %s\n", ctx.ASRResourceID)
			}
			if ctx.ResourceID != "" {
				fmt.Printf("    Shared Resource: %s\n", ctx.ResourceID)
			}
			if ctx.DefaultVoice != "" {
				fmt.Printf("    Default Voice: %s\n", ctx.DefaultVoice)
			}
			if ctx.Endpoint != "" {
				fmt.Printf("    Endpoint: %s\n", ctx.Endpoint)
			}
			if ctx.Timeout > 0 {
				fmt.Printf("    Timeout: %ds\n", ctx.Timeout)
			}
		}

		return nil
	},
}

func init() {
	configAddContextCmd.Flags().String("app-id", "", "Application ID (required)")
	configAddContextCmd.Flags().String("access-token", "", "Access token (required)")
	configAddContextCmd.Flags().String("tts-resource", "", "Resource ID for the synthesis path")
	configAddContextCmd.Flags().String("asr-resource", "", "Resource ID for the recognition path")
	configAddContextCmd.Flags().String("resource-id", "", "Shared resource ID fallback for both paths")
	configAddContextCmd.Flags().String("endpoint", "", "WebSocket base URL")
	configAddContextCmd.Flags().Int("timeout", 0, "Request timeout in seconds")
	configAddContextCmd.Flags().String("default-voice", "", "Default voice selector for synthesis")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configViewCmd)
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/mentions"
	"github.com/brandlens/brandlens/internal/resultlog"
	"github.com/brandlens/brandlens/internal/session"
)

// --- check ---

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Submit one prompt/brand pair and print the outcome",
	Long: `Submit one prompt/brand pair to the mention backend and print the outcome.

Examples:
  brandlens check --prompt "What is the best CRM for startups?" --brand "Acme"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, _ := cmd.Flags().GetString("prompt")
		brand, _ := cmd.Flags().GetString("brand")

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		return runCheck(cmd.Context(), mentions.New(cfg.Backend.BaseURL), prompt, brand)
	},
}

func init() {
	checkCmd.Flags().String("prompt", "", "prompt to send to the text-generation service")
	checkCmd.Flags().String("brand", "", "brand name to look for in the generated answer")
}

// runCheck drives one submission through the same pipeline the UI uses,
// with a throwaway single-entry log.
func runCheck(ctx context.Context, checker session.Checker, prompt, brand string) error {
	log, err := resultlog.Open()
	if err != nil {
		return fmt.Errorf("opening result log: %w", err)
	}
	defer log.Close()

	sess := session.New("cli", checker, log)
	sess.UpdatePrompt(prompt)
	sess.UpdateBrand(brand)

	out, err := sess.Submit(ctx)
	if err != nil {
		return fmt.Errorf("both --prompt and --brand are required")
	}

	switch out.Kind {
	case session.Success:
		if out.Record.Mentioned {
			printSuccess("%q is mentioned (position %d)", out.Record.Brand, out.Record.Position)
		} else {
			printWarning("%q is not mentioned", out.Record.Brand)
		}
		return nil
	case session.MentionError:
		printError("%s", out.Message)
		return nil
	case session.BackendError:
		printError("backend error: %s", out.Message)
		return nil
	default: // session.TransportFailure
		return fmt.Errorf("%s", out.Message)
	}
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a single configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		v, err := config.GetKey(cfg, args[0])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

// cmd/rfq-cli/commands.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"rfq-workers/internal/common/config"
	httpclient "rfq-workers/internal/common/http"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/generation"
	"rfq-workers/internal/models"
	"rfq-workers/internal/orchestrator"
)

var (
	rootCmd = &cobra.Command{
		Use:   "rfq-cli",
		Short: "Run RFQ and quote conversations from the terminal",
		Long: `rfq-cli drives the same conversation engine as the workers: it asks the
questions the generation service chooses and prints the final audited document.`,
		SilenceUsage: true,
	}
	chatCmd = &cobra.Command{
		Use:   "chat [category]",
		Short: "Start an interactive conversation for a project category",
		Args:  cobra.ExactArgs(1),
		RunE:  runChat,
	}
	modelsCmd = &cobra.Command{
		Use:   "models",
		Short: "List the selectable generation models",
		Args:  cobra.NoArgs,
		Run:   runModels,
	}

	configPath string
	apiKey     string
	modelID    string
	kind       string
	budget     int
	skipAudit  bool
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default: ./configs/config.yaml)")

	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&apiKey, "api-key", "", "Generation service key (default: generation.api_key)")
	chatCmd.Flags().StringVar(&modelID, "model", "", "Model id, see 'rfq-cli models'")
	chatCmd.Flags().StringVar(&kind, "kind", "", "Document kind to produce: rfq or quote")
	chatCmd.Flags().IntVar(&budget, "budget", 0, "Override the question budget")
	chatCmd.Flags().BoolVar(&skipAudit, "no-audit", false, "Print the document as generated without the audit pass")
	chatCmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level written to stderr")

	rootCmd.AddCommand(modelsCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if kind != "" {
		cfg.Conversation.DocumentKind = kind
	}

	engineCfg, err := orchestrator.ConfigFrom(cfg)
	if err != nil {
		return err
	}
	gen, err := generation.New(cfg.Generation.Provider, cfg.Generation.BaseURL,
		httpclient.NewClient(config.GetDuration(cfg.Generation.Timeout)+5*time.Second))
	if err != nil {
		return err
	}

	log := logger.NewZapAdapter(logger.NewWithOutput(logLevel, "console", "stderr"))
	engine := orchestrator.New(gen, engineCfg, log, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := &chatRunner{
		engine: engine,
		in:     newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
		out:    cmd.OutOrStdout(),
		creds:  models.Credentials{APIKey: apiKey, Model: modelID},
		budget: budget,
		audit:  !skipAudit,
	}
	return r.run(ctx, models.Category(args[0]))
}

func runModels(cmd *cobra.Command, _ []string) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tREASONING\tDESCRIPTION")
	for _, m := range generation.AvailableModels() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", m.ID, m.Name, m.Category, m.Reasoning, m.Description)
	}
	w.Flush()
}

// schemabridge maps entity/field schemas between core-banking, CRM and ERP
// systems: discover catalogs, run the mapping pipeline, review and export
// the results.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"schemabridge/internal/agent"
	"schemabridge/internal/config"
	"schemabridge/internal/connectors"
	"schemabridge/internal/export"
	"schemabridge/internal/logging"
	"schemabridge/internal/orchestrator"
	"schemabridge/internal/reasoning"
	"schemabridge/internal/schema"
	"schemabridge/internal/store"
)

var (
	// Flags
	configPath string
	verbose    bool
	sourceSys  string
	targetSys  string
	exportFmt  string
	saveRun    bool
	noProvider bool
	listLimit  int

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "schemabridge",
	Short: "schemabridge - cross-system schema mapping engine",
	Long: `schemabridge discovers entity/field catalogs from core-banking, CRM
and ERP systems and proposes field mappings between them with confidence
scoring, compliance tagging and optional reasoning-service refinement.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.Format)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover [system...]",
	Short: "Discover entity/field catalogs from connected systems",
	Long: `Discovers the schema catalog of one or more systems and prints it as
JSON. Known systems: jackhenry, salesforce, sap.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiscover,
}

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Run the mapping pipeline between two systems",
	Long: `Discovers both catalogs and runs the full pipeline: schema discovery,
compliance checks, domain terminology agents, mapping proposal (with the
configured reasoning provider, if any), refinement and validation.

Example:
  schemabridge map --source jackhenry --target salesforce --export csv`,
	RunE: runMap,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored mapping runs",
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Print one stored run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "schemabridge.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	mapCmd.Flags().StringVar(&sourceSys, "source", "", "source system (jackhenry|salesforce|sap)")
	mapCmd.Flags().StringVar(&targetSys, "target", "", "target system (jackhenry|salesforce|sap)")
	mapCmd.Flags().StringVar(&exportFmt, "export", "", "export finished run (json|csv)")
	mapCmd.Flags().BoolVar(&saveRun, "save", false, "persist the run to the run store")
	mapCmd.Flags().BoolVar(&noProvider, "no-provider", false, "force the pure heuristic path")
	_ = mapCmd.MarkFlagRequired("source")
	_ = mapCmd.MarkFlagRequired("target")

	runsCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum runs to list")

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(showCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	systems := make([]schema.SystemType, len(args))
	for i, a := range args {
		systems[i] = schema.SystemType(a)
	}
	results, err := connectors.DiscoverAll(cmd.Context(), logger, systems...)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func runMap(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	src := schema.SystemType(sourceSys)
	tgt := schema.SystemType(targetSys)
	if src == tgt {
		return fmt.Errorf("source and target system must differ")
	}

	results, err := connectors.DiscoverAll(ctx, logger, src, tgt)
	if err != nil {
		return err
	}

	provider, err := buildProvider(ctx)
	if err != nil {
		return err
	}

	fields := append([]schema.Field{}, results[src].Fields...)
	fields = append(fields, results[tgt].Fields...)
	sink := agent.NewChannelSink(256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for step := range sink.Ch {
			logger.Debug("pipeline step",
				zap.String("agent", step.AgentName),
				zap.String("action", step.Action),
				zap.String("detail", step.Detail))
		}
	}()

	out, err := orchestrator.New(logger).Run(ctx, &orchestrator.Input{
		SourceSystemType: src,
		TargetSystemType: tgt,
		SourceEntities:   results[src].Entities,
		TargetEntities:   results[tgt].Entities,
		Fields:           fields,
		Provider:         provider,
		Sink:             sink,
	})
	close(sink.Ch)
	<-done
	if err != nil {
		return err
	}

	printRunSummary(out)

	catalog := buildCatalog(results[src], results[tgt])
	if exportFmt != "" {
		path, err := export.Save(cfg.Export.Directory, exportFmt, catalog, out)
		if err != nil {
			return err
		}
		fmt.Printf("exported: %s\n", path)
	}
	if saveRun {
		s, err := store.Open(cfg.Store.DatabasePath)
		if err != nil {
			return err
		}
		defer s.Close()
		id, err := s.SaveRun(ctx, src, tgt, out)
		if err != nil {
			return err
		}
		fmt.Printf("saved run: %s\n", id)
	}
	return nil
}

// buildProvider constructs the reasoning provider from config. No provider
// configured (or --no-provider) selects the pure heuristic path.
func buildProvider(ctx context.Context) (reasoning.Provider, error) {
	if noProvider || cfg.Provider.Kind == config.ProviderNone {
		return nil, nil
	}
	policy := reasoning.DefaultRetryPolicy()
	switch cfg.Provider.Kind {
	case config.ProviderGemini:
		client, err := reasoning.NewGeminiClient(ctx, cfg.Provider.APIKey, cfg.Provider.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to build gemini client: %w", err)
		}
		return reasoning.NewLLMProvider("gemini", client, policy, logger), nil
	case config.ProviderAnthropic:
		client := reasoning.NewAnthropicClient(cfg.Provider.APIKey, cfg.Provider.Model)
		return reasoning.NewLLMProvider("anthropic", client, policy, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
	}
}

func buildCatalog(src, tgt *connectors.DiscoveryResult) *schema.Catalog {
	entities := append([]schema.Entity{}, src.Entities...)
	entities = append(entities, tgt.Entities...)
	fields := append([]schema.Field{}, src.Fields...)
	fields = append(fields, tgt.Fields...)
	return schema.NewCatalog(entities, fields)
}

func printRunSummary(out *orchestrator.Output) {
	accepted, suggested, rejected := 0, 0, 0
	for i := range out.UpdatedFieldMappings {
		switch out.UpdatedFieldMappings[i].Status {
		case "accepted":
			accepted++
		case "suggested":
			suggested++
		case "rejected":
			rejected++
		}
	}
	fmt.Printf("agents run: %v\n", out.AgentsRun)
	fmt.Printf("mappings:   %d (%d accepted, %d suggested, %d rejected)\n",
		len(out.UpdatedFieldMappings), accepted, suggested, rejected)
	if out.Refinement != nil {
		fmt.Printf("refinement: %d improved (%d rescored, %d conflicts, %d backfilled)\n",
			out.Refinement.TotalImproved, out.Refinement.RescoreImproved,
			out.Refinement.ConflictResolved, out.Refinement.BackfillCreated)
	}
	if out.ComplianceReport != nil {
		fmt.Printf("compliance: %d errors, %d warnings, %d PII fields\n",
			out.ComplianceReport.TotalErrors, out.ComplianceReport.TotalWarnings,
			out.ComplianceReport.PIIFieldCount)
	}
	fmt.Printf("duration:   %s\n", time.Duration(out.DurationMs)*time.Millisecond)
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer s.Close()
	runs, err := s.ListRuns(cmd.Context(), listLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no stored runs")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  %s -> %s  %d mappings  %s\n",
			r.ID, r.SourceSystem, r.TargetSystem, r.MappingCount,
			r.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer s.Close()
	run, err := s.LoadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package admin

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greg-hahn/cog-council-meetings/internal/agenda"
	"github.com/greg-hahn/cog-council-meetings/internal/config"
	"github.com/greg-hahn/cog-council-meetings/internal/logging"
	"github.com/greg-hahn/cog-council-meetings/internal/metrics"
)

// DiscoverCmd returns the discover command
func DiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover upcoming meeting agendas",
		Long:  "List upcoming meeting agenda URLs from the source calendar, optionally ingesting each",
		RunE:  runDiscover,
	}

	cmd.Flags().Bool("ingest", false, "Ingest every discovered agenda")

	return cmd
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	doIngest, _ := cmd.Flags().GetBool("ingest")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	discovery := agenda.NewEScribeDiscovery(cfg.AgendaBaseURL, logger)
	discovered, err := discovery.DiscoverUpcoming(ctx)
	if err != nil {
		return fmt.Errorf("failed to discover meetings: %w", err)
	}

	if len(discovered) == 0 {
		fmt.Println("No upcoming meetings discovered")
		return nil
	}

	for _, d := range discovered {
		fmt.Printf("%s\t%s\n", d.URL, d.Title)
	}

	if !doIngest {
		return nil
	}

	pool, err := getDBPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	metrics.Init()

	svc := buildIngestionService(cfg, pool, logger)
	for _, d := range discovered {
		result, err := svc.IngestMeeting(ctx, d.URL, cfg.MunicipalitySlug)
		if err != nil {
			fmt.Printf("failed to ingest %s: %v\n", d.URL, err)
			continue
		}
		fmt.Printf("Ingested meeting: %s (id: %d, %d items)\n", result.Meeting.Title, result.Meeting.ID, result.ItemCount)
	}

	return nil
}

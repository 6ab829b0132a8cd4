package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greg-hahn/cog-council-meetings/internal/config"
	"github.com/greg-hahn/cog-council-meetings/internal/logging"
	"github.com/greg-hahn/cog-council-meetings/internal/metrics"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <agenda-url>",
		Short: "Ingest a meeting agenda",
		Long:  "Fetch, parse and store a meeting agenda from its source URL",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().StringP("municipality", "m", "", "Municipality slug (defaults to the configured one)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sourceURL := args[0]
	outputFormat, _ := cmd.Flags().GetString("output")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slug, _ := cmd.Flags().GetString("municipality")
	if slug == "" {
		slug = cfg.MunicipalitySlug
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	pool, err := getDBPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	metrics.Init()

	svc := buildIngestionService(cfg, pool, logger)

	result, err := svc.IngestMeeting(ctx, sourceURL, slug)
	if err != nil {
		return fmt.Errorf("failed to ingest meeting: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"meeting_id":  result.Meeting.ID,
			"external_id": result.Meeting.ExternalID,
			"title":       result.Meeting.Title,
			"type":        result.Meeting.Type,
			"item_count":  result.ItemCount,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Ingested meeting: %s (id: %d, %d items)\n", result.Meeting.Title, result.Meeting.ID, result.ItemCount)
	}

	return nil
}

package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/greg-hahn/cog-council-meetings/internal/agenda"
	"github.com/greg-hahn/cog-council-meetings/internal/classify"
	"github.com/greg-hahn/cog-council-meetings/internal/config"
	"github.com/greg-hahn/cog-council-meetings/internal/database"
	"github.com/greg-hahn/cog-council-meetings/internal/domain"
	"github.com/greg-hahn/cog-council-meetings/internal/fetch"
	"github.com/greg-hahn/cog-council-meetings/internal/repository"
	"github.com/greg-hahn/cog-council-meetings/internal/service"
)

func getDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

// buildClassifier composes the LLM strategy with the keyword fallback. With
// no API key configured the keyword strategy runs alone.
func buildClassifier(cfg *config.Config, logger *zap.Logger) classify.Classifier {
	vocabulary := classify.DefaultVocabulary()
	keyword := classify.NewKeywordClassifier(vocabulary)

	var primary classify.Classifier
	if cfg.HasOpenAI() {
		primary = classify.NewOpenAIClassifierWithConfig(classify.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Timeout: cfg.ClassifyTimeout,
		}, vocabulary)
	} else {
		logger.Info("no OpenAI API key configured, using keyword classification only")
	}

	return classify.NewFallbackClassifier(primary, keyword, logger)
}

func buildIngestionService(cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) *service.IngestionService {
	tables := agenda.DefaultTables()

	fetcher := fetch.New(fetch.Config{
		UserAgent:          cfg.FetchUserAgent,
		Timeout:            cfg.FetchTimeout,
		InsecureSkipVerify: cfg.FetchInsecureSkipTLS,
	})

	return service.NewIngestionService(
		repository.NewMunicipalityRepository(pool),
		fetcher,
		agenda.NewParser(tables, logger),
		buildClassifier(cfg, logger),
		tables,
		repository.NewTxRunner(pool),
		cfg.LivestreamURL,
		logger,
	)
}

func buildMeetingService(pool *pgxpool.Pool) *service.MeetingService {
	return service.NewMeetingService(
		repository.NewMunicipalityRepository(pool),
		repository.NewMeetingRepository(pool),
		repository.NewAgendaItemRepository(pool),
		repository.NewTagRepository(pool),
	)
}

// seedMunicipality creates the configured municipality if it does not exist.
func seedMunicipality(ctx context.Context, cfg *config.Config, repo *repository.MunicipalityRepository) error {
	muni, err := repo.GetBySlug(ctx, cfg.MunicipalitySlug)
	if err != nil && err != domain.ErrMunicipalityNotFound {
		return fmt.Errorf("failed to check existing municipality: %w", err)
	}
	if muni != nil {
		log.Printf("bootstrap: municipality '%s' already exists (id: %d)", muni.Slug, muni.ID)
		return nil
	}

	muni = &domain.Municipality{
		Name:          cfg.MunicipalityName,
		Slug:          cfg.MunicipalitySlug,
		Timezone:      cfg.MunicipalityTimezone,
		WebsiteURL:    cfg.MunicipalityWebsite,
		AgendaBaseURL: cfg.AgendaBaseURL,
	}
	if err := domain.ValidateMunicipality(muni); err != nil {
		return fmt.Errorf("invalid municipality config: %w", err)
	}
	if err := repo.Create(ctx, muni); err != nil {
		return fmt.Errorf("failed to create municipality: %w", err)
	}
	log.Printf("bootstrap: created municipality '%s' (id: %d)", muni.Slug, muni.ID)
	return nil
}

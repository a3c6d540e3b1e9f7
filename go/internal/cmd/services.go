package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/mcdev12/deadpool/go/internal/draft"
	"github.com/mcdev12/deadpool/go/internal/events"
	"github.com/mcdev12/deadpool/go/internal/names"
	"github.com/mcdev12/deadpool/go/internal/repository"
	"github.com/mcdev12/deadpool/go/internal/scoring"
	"github.com/mcdev12/deadpool/go/internal/store"
	"github.com/mcdev12/deadpool/go/internal/store/dynamostore"
	"github.com/mcdev12/deadpool/go/internal/store/memstore"
	"github.com/mcdev12/deadpool/go/internal/store/pgstore"
	"github.com/mcdev12/deadpool/go/internal/transition"
)

type Services struct {
	Draft      *draft.App
	Scoring    *scoring.App
	Transition *transition.App
}

// setupServices wires the dependency chain:
// store -> repository -> engines.
func setupServices(ctx context.Context, cfg *Config, logger zerolog.Logger) (*Services, error) {
	entityStore, err := setupStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	matcherCfg, err := loadMatcherConfig(cfg.MatcherConfigPath)
	if err != nil {
		return nil, err
	}
	matcher := names.NewMatcher(matcherCfg)

	publisher, err := setupPublisher(cfg, logger)
	if err != nil {
		return nil, err
	}

	repo := repository.New(entityStore, logger)
	clock := clockwork.NewRealClock()

	scoringApp := scoring.NewApp(repo, logger)
	return &Services{
		Draft:      draft.NewApp(repo, matcher, publisher, clock, logger),
		Scoring:    scoringApp,
		Transition: transition.NewApp(repo, scoringApp, publisher, clock, logger),
	}, nil
}

func setupStore(ctx context.Context, cfg *Config, logger zerolog.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case "memory":
		logger.Warn().Msg("using in-memory store; state is not persisted")
		return memstore.New(), nil
	case "dynamo":
		s, err := dynamostore.New(ctx, cfg.DynamoTable)
		if err != nil {
			return nil, fmt.Errorf("failed to set up dynamo store: %w", err)
		}
		logger.Info().Str("table", cfg.DynamoTable).Msg("connected to DynamoDB")
		return s, nil
	case "postgres":
		s, err := pgstore.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to set up postgres store: %w", err)
		}
		logger.Info().Msg("connected to Postgres")
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func setupPublisher(cfg *Config, logger zerolog.Logger) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		return events.NopPublisher{}, nil
	}
	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info().Str("url", cfg.NATSURL).Msg("connected to NATS")
	return events.NewNATSPublisher(conn, cfg.NATSSubjectPrefix, logger), nil
}

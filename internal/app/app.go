package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/boardkeep/tabletop-league/internal/config"
	"github.com/boardkeep/tabletop-league/internal/domain/group"
	"github.com/boardkeep/tabletop-league/internal/domain/match"
	"github.com/boardkeep/tabletop-league/internal/domain/user"
	"github.com/boardkeep/tabletop-league/internal/infrastructure/account/roster"
	repocache "github.com/boardkeep/tabletop-league/internal/infrastructure/repository/cache"
	"github.com/boardkeep/tabletop-league/internal/infrastructure/repository/memory"
	"github.com/boardkeep/tabletop-league/internal/infrastructure/repository/postgres"
	"github.com/boardkeep/tabletop-league/internal/interfaces/httpapi"
	idgen "github.com/boardkeep/tabletop-league/internal/platform/id"
	"github.com/boardkeep/tabletop-league/internal/platform/logging"
	"github.com/boardkeep/tabletop-league/internal/platform/resilience"
	"github.com/boardkeep/tabletop-league/internal/usecase"
)

type repositories struct {
	matches match.Repository
	groups  group.Repository
	users   user.Repository
	close   func() error
}

// NewHTTPServer wires storage, services and the HTTP router into a
// ready-to-run server. The returned cleanup releases the database
// connection pool; it is a no-op in memory mode.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	groups := repos.groups
	if cfg.CacheEnabled {
		groups = repocache.NewGroupRepository(groups, cfg.CacheTTL)
	}

	rankingSvc := usecase.NewRankingService(repos.users, groups, logger)
	rankingSvc.SetWorkers(cfg.RankingWorkers)
	matchSvc := usecase.NewMatchService(repos.matches, groups, rankingSvc, idgen.NewUUIDGenerator(), logger)

	rosterClient := roster.NewClient(roster.Config{
		BaseURL:         cfg.RosterBaseURL,
		IntrospectPath:  cfg.RosterIntrospectPath,
		Timeout:         cfg.RosterTimeout,
		CacheTTL:        cfg.RosterCacheTTL,
		CacheMaxEntries: cfg.RosterCacheMaxEntries,
		Breaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.RosterCircuitEnabled,
			FailureThreshold: cfg.RosterCircuitFailureCount,
			OpenTimeout:      cfg.RosterCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.RosterCircuitHalfOpenMaxReq,
		},
	}, logger)

	handler := httpapi.NewHandler(matchSvc, rankingSvc, logger)
	router := httpapi.NewRouter(handler, rosterClient, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		repos.close()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, repos.close, nil
}

func buildRepositories(cfg config.Config, logger *logging.Logger) (repositories, error) {
	dbURL := strings.TrimSpace(cfg.DBURL)
	if dbURL == "" {
		logger.Info("storage mode", "mode", "memory")
		return repositories{
			matches: memory.NewMatchRepository(memory.SeedMatches()),
			groups:  memory.NewGroupRepository(memory.SeedGroups()),
			users:   memory.NewUserRepository(memory.SeedUsers()),
			close:   func() error { return nil },
		}, nil
	}

	db, err := otelsqlx.Connect("postgres", normalizeDBURL(dbURL, cfg.DBDisablePreparedBinary),
		otelsql.WithDBName(dbNameFromURL(dbURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return repositories{}, fmt.Errorf("connect database: %w", err)
	}

	if cfg.DBBootstrapSeed {
		if err := postgres.BootstrapSeed(context.Background(), db); err != nil {
			_ = db.Close()
			return repositories{}, fmt.Errorf("bootstrap seed: %w", err)
		}
	}

	logger.Info("storage mode", "mode", "postgres", "db_name", dbNameFromURL(dbURL))
	return newPostgresRepositories(db), nil
}

func newPostgresRepositories(db *sqlx.DB) repositories {
	return repositories{
		matches: postgres.NewMatchRepository(db),
		groups:  postgres.NewGroupRepository(db),
		users:   postgres.NewUserRepository(db),
		close:   db.Close,
	}
}

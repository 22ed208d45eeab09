package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	api "github.com/mind-engage/mindengage-assess/internal/api/http"
	auth "github.com/mind-engage/mindengage-assess/internal/auth/middleware"
	"github.com/mind-engage/mindengage-assess/internal/clock"
	"github.com/mind-engage/mindengage-assess/internal/config"
	"github.com/mind-engage/mindengage-assess/internal/db"
	"github.com/mind-engage/mindengage-assess/internal/eventlog"
	"github.com/mind-engage/mindengage-assess/internal/exam"
	"github.com/mind-engage/mindengage-assess/internal/logger"
	"github.com/mind-engage/mindengage-assess/internal/results"
	"github.com/mind-engage/mindengage-assess/internal/session"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.Load,
			NewLogger,
			NewDB,
			NewSQLStore,
			NewEventRepo,
			NewAggregator,
			NewSessionManager,
			NewReaper,
			NewAuthService,
			NewRouter,
		),
		fx.Invoke(SeedDemo),
		fx.Invoke(StartReaper),
		fx.Invoke(StartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to start application")
	}
	<-app.Done()
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("unclean shutdown")
	}
}

func NewLogger(cfg *config.Config) zerolog.Logger {
	return logger.Init(cfg.LogLevel, cfg.LogPretty)
}

func NewDB(lc fx.Lifecycle, cfg *config.Config) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return dbh.Close() }})
	return dbh, nil
}

func NewSQLStore(dbh *sql.DB, cfg *config.Config) *exam.SQLStore {
	return exam.NewSQLStore(dbh, cfg.DBDriver)
}

func NewEventRepo(dbh *sql.DB) *eventlog.EventRepo {
	return eventlog.NewEventRepo(dbh, "local")
}

// NewAggregator hydrates the in-memory aggregator from persisted results.
func NewAggregator(store *exam.SQLStore, l zerolog.Logger) (*results.Aggregator, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rs, err := store.ListResults(ctx)
	if err != nil {
		return nil, err
	}
	agg := results.NewAggregator()
	l.Info().Int("results", agg.Load(rs)).Msg("results loaded")
	return agg, nil
}

func NewSessionManager(cfg *config.Config, store *exam.SQLStore, agg *results.Aggregator,
	events *eventlog.EventRepo, l zerolog.Logger) *session.Manager {
	return session.NewManager(session.ManagerConfig{
		Store:   store,
		Results: agg,
		Persist: store,
		Events:  events,
		NewClock: func() clock.Clock {
			return clock.NewTicker(clock.WithSecond(cfg.SecondLength))
		},
		Logger: &l,
		OnSnapshot: func(s session.Snapshot) {
			if s.LowTime() && !s.Status.Terminal() {
				l.Debug().Str("session_id", s.SessionID).Int("remaining", s.RemainingSeconds).Msg("low time")
			}
		},
	})
}

func NewReaper(cfg *config.Config, m *session.Manager, l zerolog.Logger) (*session.Reaper, error) {
	return session.NewReaper(m, cfg.ReaperSchedule, cfg.ReaperRetention, l)
}

func NewAuthService(cfg *config.Config) *auth.AuthService {
	return auth.NewAuthService(cfg.AuthHMACSecret)
}

func NewRouter(cfg *config.Config, store *exam.SQLStore, m *session.Manager, agg *results.Aggregator,
	authSvc *auth.AuthService, l zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, api.RequestLogger(l), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// credential-free tokens only exist on demo installs
	if cfg.SeedDemo {
		r.Post("/auth/dev-token", auth.DevTokenHandler(authSvc))
	}

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		api.Mount(pr, api.Deps{
			Tests:    store,
			Persist:  store,
			Sessions: m,
			Results:  agg,
			Log:      l,
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}

func SeedDemo(cfg *config.Config, store *exam.SQLStore, l zerolog.Logger) error {
	if !cfg.SeedDemo {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	created, err := exam.SeedDemo(ctx, store)
	if err != nil {
		return err
	}
	l.Info().Bool("created", created).Str("test_id", exam.DemoTest().ID).Msg("demo test seeded")
	return nil
}

func StartReaper(lc fx.Lifecycle, r *session.Reaper) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			r.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			select {
			case <-r.Stop().Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, h http.Handler, l zerolog.Logger) {
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			l.Info().Str("addr", cfg.HTTPAddr).Str("db", cfg.DBDriver).Msg("listening")
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					l.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			l.Info().Msg("server shutting down")
			return server.Shutdown(ctx)
		},
	})
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/jkorri/gumshoe/internal/ai"
	"github.com/jkorri/gumshoe/internal/analysis"
	"github.com/jkorri/gumshoe/internal/engine"
	"github.com/jkorri/gumshoe/internal/envstruct"
	"github.com/jkorri/gumshoe/internal/logging"
	"github.com/jkorri/gumshoe/internal/pprofserver"
	"github.com/jkorri/gumshoe/internal/repositories"
	"github.com/jkorri/gumshoe/internal/sqlite"
	"github.com/joho/godotenv"
)

type application struct {
	logger         *slog.Logger
	engine         *engine.Engine
	results        *repositories.ResultRepository
	sessionManager *scs.SessionManager
}

// config holds the environment-provided settings. Flags cover the local
// deployment knobs; secrets and service locations come from the environment.
type config struct {
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:""`
	AnalysisURL  string `env:"ANALYSIS_URL" envDefault:"http://localhost:5000"`
}

func main() {
	addr := flag.String("addr", "localhost:4000", "HTTP network address")
	pprofPort := flag.String("pprof-port", ":6060", "Port for pprof listening on localhost")
	dbURL := flag.String("sqlite-url", "./gumshoe.sqlite", "SQLite URL")
	flag.Parse()

	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}))
	logger := slog.New(loggerHandler)

	// Initialise pprof listening on localhost so that it's not open to the world.
	pprofserver.Launch(*pprofPort, logger)

	// A missing .env file is fine in deployed environments where the
	// variables are set by the platform.
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err.Error())
	}

	var cfg config
	if err := envstruct.Populate(&cfg, os.LookupEnv); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	dbs, err := sqlite.NewDatabase(*dbURL)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	logger.Info("connected to db")

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite.DB, 24*time.Hour)
	sessionManager.Lifetime = 12 * time.Hour

	cases := repositories.NewCaseRepository(dbs, logger)
	sessions := repositories.NewSessionRepository(dbs, logger)
	results := repositories.NewResultRepository(dbs, logger)

	aiClient := ai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	analyzer := analysis.NewClient(cfg.AnalysisURL)

	app := application{
		logger:         logger,
		engine:         engine.New(cases, sessions, aiClient, analyzer, logger),
		results:        results,
		sessionManager: sessionManager,
	}

	if err = app.configureAndStartServer(context.Background(), *addr); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"quizduel/internal/app"
	"quizduel/internal/config"
	"quizduel/internal/domain"
	"quizduel/internal/infra/memory"
	pgbank "quizduel/internal/infra/postgres"
	redisinfra "quizduel/internal/infra/redis"
	"quizduel/internal/infra/scoring"
	"quizduel/internal/logger"
	transport "quizduel/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the match server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func loadConfig(path string) (config.Config, error) {
	envErr := godotenv.Load()
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file loaded")
	}
	return cfg, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg); err != nil {
			return err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	stack := buildStack(cfg, pool, redisClient)
	wsHandler := transport.NewWSHandler(stack.factory, stack.publisher)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      c.Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Str("opponent_mode", cfg.Opponent.Mode).Msg("starting match server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

type stack struct {
	factory   transport.EngineFactory
	publisher app.ProgressPublisher
}

// buildStack picks collaborators from what is configured. Without a scoring service
// the engine runs fully offline on the question bank and the heuristic scorer.
func buildStack(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client) stack {
	var bank interface {
		app.QuestionGenerator
		memory.TopicKnowledge
	}
	if pool != nil {
		bank = pgbank.NewQuestionBank(pool)
	} else {
		bank = memory.NewStaticQuestionBank(app.DefaultQuestions())
	}

	var generator app.QuestionGenerator = bank
	var scorer app.AnswerScorer = scoring.NewHeuristicScorer()
	if cfg.Scoring.BaseURL != "" {
		client := scoring.NewClient(cfg.Scoring.BaseURL,
			config.TTLDuration(cfg.Scoring.Timeout, 10*time.Second),
			scoring.WithMaxTries(cfg.Scoring.MaxTries),
		)
		cacheTTL := config.TTLDuration(cfg.Scoring.CacheTTL, time.Hour)
		if redisClient != nil {
			generator = redisinfra.NewQuestionCache(redisClient, client, cacheTTL)
		} else {
			generator = memory.NewQuestionCache(client, cacheTTL)
		}
		scorer = client
	}

	var progress app.ProgressSource
	var publisher app.ProgressPublisher
	switch cfg.Opponent.Mode {
	case "board":
		if redisClient != nil {
			board := redisinfra.NewProgressBoard(redisClient, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
			progress, publisher = board, board
		} else {
			board := memory.NewProgressBoard()
			progress, publisher = board, board
		}
	default:
		progress = memory.NewSimulatedOpponent(bank)
	}

	settings := domain.Settings{
		QuestionTimeLimit: cfg.Match.TimeLimit,
		NumberOfPlayers:   cfg.Match.Players,
		QuestionCount:     cfg.Match.QuestionCount,
	}
	if err := settings.Validate(); err != nil {
		log.Warn().Err(err).Interface("settings", settings).Msg("configured match settings invalid, using defaults")
		settings = domain.DefaultSettings()
	}
	topics := app.NewRandomTopicPicker(nil)

	factory := func(s transport.Session) *app.Engine {
		engine := app.NewEngine(app.EngineConfig{
			Generator: generator,
			Scorer:    scorer,
			Progress:  progress,
			Topics:    topics,
			Settings:  settings,
			LocalID:   s.UserID,
			RemoteIDs: s.Opponents,
			MatchID:   s.MatchID,
		})
		engine.SetPlayerName(cfg.Match.PlayerName)
		return engine
	}
	return stack{factory: factory, publisher: publisher}
}

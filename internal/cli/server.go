package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"sportsquiz-service/internal/app"
	"sportsquiz-service/internal/config"
	"sportsquiz-service/internal/genai"
	"sportsquiz-service/internal/infra/memory"
	pgstore "sportsquiz-service/internal/infra/postgres"
	rediscache "sportsquiz-service/internal/infra/redis"
	"sportsquiz-service/internal/logger"
	transport "sportsquiz-service/internal/transport/http"
)

const defaultAPIKeyEnv = "GEMINI_API_KEY"

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz generation and grading server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		quizzes  app.QuizStore
		attempts app.AttemptStore
	)
	if pool != nil {
		quizzes = pgstore.NewQuizStore(pool)
		attempts = pgstore.NewAttemptStore(pool)
	} else {
		// No Postgres configured: quizzes live only in this process.
		store := memory.NewStore()
		quizzes = store
		attempts = store
		log.Warn("postgres not configured, using in-memory store")
	}

	var keys app.AnswerKeySource = app.NewStoreAnswerKeys(quizzes)
	if redisClient != nil {
		keyTTL := config.TTLDuration(cfg.AnswerKey.TTL, 10*time.Minute)
		keys = rediscache.NewAnswerKeyCache(redisClient, keys, keyTTL)
	}

	apiKeyEnv := cfg.Gemini.APIKeyEnv
	if apiKeyEnv == "" {
		apiKeyEnv = defaultAPIKeyEnv
	}
	creds := genai.NewCredentialCache(genai.EnvResolver{}, apiKeyEnv)
	genTimeout := config.TTLDuration(cfg.Gemini.Timeout, 60*time.Second)
	generator := genai.NewGenerator(creds, cfg.Gemini.Model, genTimeout, log)
	defer generator.Close()

	service := app.NewQuizService(generator, quizzes, attempts, keys, log)
	handler := transport.NewHandler(service, log)
	wsHandler := transport.NewWSHandler(service, log)

	router := mux.NewRouter()
	handler.Register(router)
	router.HandleFunc("/ws/take", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // generation calls can be slow
	}

	go func() {
		log.Info("starting sports quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

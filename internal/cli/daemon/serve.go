package daemon

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aashrithhh/Legal-Assistant/internal/api/handlers"
	"github.com/Aashrithhh/Legal-Assistant/internal/config"
	"github.com/Aashrithhh/Legal-Assistant/internal/database"
	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/Aashrithhh/Legal-Assistant/internal/extract"
	"github.com/Aashrithhh/Legal-Assistant/internal/jobs"
	"github.com/Aashrithhh/Legal-Assistant/internal/openai"
	"github.com/Aashrithhh/Legal-Assistant/internal/repository"
	"github.com/Aashrithhh/Legal-Assistant/internal/server"
	"github.com/Aashrithhh/Legal-Assistant/internal/service"
	"github.com/Aashrithhh/Legal-Assistant/internal/storage"
	"github.com/Aashrithhh/Legal-Assistant/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the legal assistant API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.HasSentry() {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	caseRepo := repository.NewCaseRepository(pool)
	documentRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	embeddingJobRepo := repository.NewEmbeddingJobRepository(pool)
	analysisRepo := repository.NewAnalysisRepository(pool)
	questionLogRepo := repository.NewQuestionLogRepository(pool)
	searchRepo := repository.NewSearchRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	var storageClient service.StorageClientInterface
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		storageClient = s3Client
	}

	// Without an OpenAI key the server still ingests and serves documents;
	// analysis, questions, and embedding return provider-unavailable errors.
	var embeddingClient service.EmbeddingClient = unavailableProvider{}
	var chatClient service.ChatClientInterface = unavailableProvider{}
	var transcribers []extract.Transcriber
	if cfg.HasOpenAI() {
		embeddingClient = openai.NewClientWithConfig(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			EmbeddingModel: cfg.EmbeddingModel,
		})
		chatClient = openai.NewChatClient(openai.ChatConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.ChatModel,
		})
		transcribers = append(transcribers, openai.NewRemoteTranscriber(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.WhisperModel))
	}
	if cfg.HasLocalWhisper() {
		transcribers = append(transcribers, openai.NewLocalTranscriber(cfg.LocalWhisperURL, cfg.LocalWhisperModel))
	}

	var audio extract.Extractor
	if len(transcribers) > 0 {
		audio = extract.NewAudioExtractor(transcribers...)
	}

	extractor := extract.NewRouter(extract.RouterConfig{
		Audio:           audio,
		PDFMinTextChars: cfg.PDFMinTextChars,
	})

	ingestOpts := service.IngestionOptions{
		ChunkConfig: service.ChunkConfig{
			MaxWords:     cfg.ChunkMaxWords,
			OverlapWords: cfg.ChunkOverlapWords,
		},
		Workers: cfg.IngestWorkers,
		Storage: storageClient,
	}
	if cfg.EmbedSync && cfg.HasOpenAI() {
		ingestOpts.Embedder = embeddingClient
	}

	ingestSvc, err := service.NewIngestionService(extractor, caseRepo, documentRepo, chunkRepo, txRunner, ingestOpts)
	if err != nil {
		return fmt.Errorf("failed to create ingestion service: %w", err)
	}
	defer ingestSvc.Release()

	var embeddingWorker *jobs.Worker
	if cfg.HasOpenAI() {
		embeddingSvc, err := service.NewEmbeddingServiceWithConcurrency(embeddingClient, chunkRepo, cfg.EmbedConcurrency)
		if err != nil {
			return fmt.Errorf("failed to create embedding service: %w", err)
		}
		defer embeddingSvc.Release()

		embeddingProcessor := jobs.NewEmbeddingWorker(embeddingJobRepo, embeddingSvc)
		embeddingWorker = jobs.NewWorker(embeddingProcessor, cfg.WorkerInterval)
		go embeddingWorker.Start(ctx)
		log.Println("embedding worker started")
	}

	retriever := service.NewRetrievalService(embeddingClient, searchRepo, chunkRepo, service.RetrievalConfig{
		AnalysisTopK: cfg.AnalysisTopK,
		QuestionTopK: cfg.QuestionTopK,
		AudioBoost:   cfg.AudioBoost,
	})

	caseSvc := service.NewCaseServiceWithStorage(caseRepo, storageClient)
	analysisSvc := service.NewAnalysisService(caseRepo, documentRepo, retriever, chatClient, analysisRepo, cfg.ChatModel)
	conversationSvc := service.NewConversationServiceWithLog(caseRepo, retriever, chatClient, questionLogRepo)

	routerCfg := server.RouterConfig{
		CaseHandler:     handlers.NewCaseHandler(caseSvc),
		DocumentHandler: handlers.NewDocumentHandler(ingestSvc),
		AnalysisHandler: handlers.NewAnalysisHandler(analysisSvc),
		QuestionHandler: handlers.NewQuestionHandler(conversationSvc),
		MaxBodyBytes:    cfg.MaxUploadMB * 1024 * 1024,
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if embeddingWorker != nil {
		embeddingWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// unavailableProvider stands in for the OpenAI clients when no API key is
// configured, failing provider-backed operations with a 503-mapped error.
type unavailableProvider struct{}

func (unavailableProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", domain.ErrEmbedderUnavailable)
}

func (unavailableProvider) Complete(ctx context.Context, system, user string, history []domain.Exchange) (string, error) {
	return "", fmt.Errorf("%w: OPENAI_API_KEY is not set", domain.ErrChatUnavailable)
}

func (unavailableProvider) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	return "", fmt.Errorf("%w: OPENAI_API_KEY is not set", domain.ErrChatUnavailable)
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}

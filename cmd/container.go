package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Abraxas-365/screener/internal/ai/embeddings"
	"github.com/Abraxas-365/screener/internal/ai/llm"
	"github.com/Abraxas-365/screener/pkg/fsx"
	"github.com/Abraxas-365/screener/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/screener/pkg/logx"
	"github.com/Abraxas-365/screener/screening"
	"github.com/Abraxas-365/screener/screening/screeningapi"
	"github.com/Abraxas-365/screener/screening/screeninginfra"
	"github.com/Abraxas-365/screener/screening/screeningsrv"
	"github.com/Abraxas-365/screener/screening/worker"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies
type Container struct {
	// Infrastructure
	DB         *sqlx.DB
	Redis      *redis.Client
	FileSystem fsx.FileSystem
	S3Client   *s3.Client

	// AI clients
	TextService *llm.Client
	Embedder    *embeddings.Generator

	// Screening
	ScreeningService  *screeningsrv.Service
	ScreeningHandlers *screeningapi.ScreeningHandlers
	Worker            *worker.ScreeningWorker
}

// NewContainer initializes the dependency injection container
func NewContainer() *Container {
	c := &Container{}
	c.initInfrastructure()
	c.initServices()
	return c
}

func (c *Container) initInfrastructure() {
	// 1. Database Connection
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASS")
	dbName := os.Getenv("DB_NAME")
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPass, dbName)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	c.DB = db

	// 2. Redis Connection
	redisAddr := os.Getenv("REDIS_ADDR")
	redisPass := os.Getenv("REDIS_PASS")
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPass,
		DB:       0,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Warnf("Failed to connect to Redis: %v", err)
	}

	// 3. AWS S3 Configuration
	awsRegion := os.Getenv("AWS_REGION")
	awsBucket := os.Getenv("AWS_BUCKET")
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(awsRegion))
	if err != nil {
		logx.Fatalf("unable to load SDK config, %v", err)
	}
	c.S3Client = s3.NewFromConfig(cfg)
	c.FileSystem = fsxs3.NewS3FileSystem(c.S3Client, awsBucket, "uploads")

	// 4. OpenAI clients
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		logx.Fatalf("OPENAI_API_KEY is not set")
	}
	c.TextService = llm.NewClient(apiKey)
	if model := os.Getenv("OPENAI_CHAT_MODEL"); model != "" {
		c.TextService = c.TextService.WithModel(model)
	}
	c.Embedder = embeddings.NewGenerator(apiKey)
}

func (c *Container) initServices() {
	ctx := context.Background()

	// --- Repositories ---
	repo := screeninginfra.NewPostgresScreeningRepository(c.DB)
	jobRepo := screeninginfra.NewPostgresJobRepository(c.DB)
	vectorIndex := screeninginfra.NewPgVectorIndex(c.DB, embeddings.Dimension)

	if err := repo.EnsureSchema(ctx); err != nil {
		logx.Fatalf("Failed to create screenings schema: %v", err)
	}
	if err := jobRepo.EnsureSchema(ctx); err != nil {
		logx.Fatalf("Failed to create jobs schema: %v", err)
	}
	if err := vectorIndex.EnsureSchema(ctx); err != nil {
		logx.Fatalf("Failed to create vector schema: %v", err)
	}

	queue := screeninginfra.NewRedisQueue(c.Redis, "screening_jobs")

	// --- Scoring ---
	// A bad weight table must kill the process here, not per request.
	scoringConfig := screening.DefaultScoringConfig()
	engine, err := screening.NewScoringEngine(scoringConfig, c.Embedder)
	if err != nil {
		logx.Fatalf("Invalid scoring configuration: %v", err)
	}

	// --- Pipeline ---
	chunker := screeningsrv.NewChunker(c.TextService)
	extractor := screeningsrv.NewExtractor(c.TextService)
	summarizer := screeningsrv.NewSummarizer(c.TextService)
	workflow := screeningsrv.NewWorkflow(chunker, extractor, summarizer, c.Embedder, vectorIndex, engine)

	c.ScreeningService = screeningsrv.NewService(
		workflow,
		summarizer,
		repo,
		jobRepo,
		queue,
		vectorIndex,
		c.FileSystem,
	)

	// --- Handlers & Worker ---
	c.ScreeningHandlers = screeningapi.NewScreeningHandlers(c.ScreeningService, c.FileSystem)

	workers := 3
	if v := os.Getenv("WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workers = n
		}
	}
	c.Worker = worker.NewScreeningWorker(c.ScreeningService, queue, workers)
}

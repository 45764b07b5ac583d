package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	apiMiddleware "github.com/phrazzld/servertask/internal/api/middleware"
	"github.com/phrazzld/servertask/internal/config"
	"github.com/phrazzld/servertask/internal/platform/awsutil"
	"github.com/phrazzld/servertask/internal/platform/dynamo"
	"github.com/phrazzld/servertask/internal/platform/gemini"
	"github.com/phrazzld/servertask/internal/platform/memory"
	"github.com/phrazzld/servertask/internal/platform/postgres"
	"github.com/phrazzld/servertask/internal/platform/rekognition"
	"github.com/phrazzld/servertask/internal/platform/s3"
	"github.com/phrazzld/servertask/internal/service"
	"github.com/phrazzld/servertask/internal/service/auth"
	"github.com/phrazzld/servertask/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is only set for the postgres store driver.
	db *sql.DB

	taskStore store.TaskStore
	bucket    *s3.Bucket

	jwtService auth.JWTService
	identity   *apiMiddleware.IdentityMiddleware

	taskService       service.TaskService
	attachmentService service.AttachmentService
}

// newApplication creates a new application instance with all dependencies
// initialized. Service clients are constructed once here and injected.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	awsCfg, err := awsutil.LoadConfig(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	if err := app.setupTaskStore(ctx, awsCfg); err != nil {
		app.cleanup()
		return nil, err
	}

	app.bucket = s3.NewBucket(
		s3.NewClient(awsCfg, cfg.Storage),
		cfg.Storage.BucketName,
		cfg.Storage.UploadURLExpiry(),
	)

	recognizer, err := app.setupRecognizer(ctx, awsCfg)
	if err != nil {
		app.cleanup()
		return nil, err
	}

	if err := app.setupIdentity(); err != nil {
		app.cleanup()
		return nil, err
	}

	app.taskService = service.NewTaskService(app.taskStore, logger)
	app.attachmentService = service.NewAttachmentService(
		app.taskStore,
		app.bucket,
		recognizer,
		service.AnalysisOptions{
			MaxLabels:     cfg.Recognition.MaxLabels,
			MinConfidence: cfg.Recognition.MinConfidence,
		},
		logger,
	)

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupTaskStore builds the task store selected by store.driver.
func (app *application) setupTaskStore(ctx context.Context, awsCfg aws.Config) error {
	cfg := app.config

	switch cfg.Store.Driver {
	case config.StoreDriverDynamoDB:
		app.taskStore = dynamo.NewTaskStore(
			dynamo.NewClient(awsCfg, cfg.Store.Endpoint),
			cfg.Store.TableName,
			cfg.Store.UserIndexName,
			app.logger,
		)
		app.logger.Info("DynamoDB task store initialized",
			"table", cfg.Store.TableName,
			"index", cfg.Store.UserIndexName)

	case config.StoreDriverPostgres:
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		app.db = db

		if err := postgres.Migrate(ctx, db, app.logger); err != nil {
			return err
		}
		app.taskStore = postgres.NewPostgresTaskStore(db, app.logger)
		app.logger.Info("PostgreSQL task store initialized")

	case config.StoreDriverMemory:
		app.taskStore = memory.NewTaskStore()
		app.logger.Warn("in-memory task store initialized; tasks are lost on restart")

	default:
		return fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	return nil
}

// setupRecognizer builds the label recognizer selected by recognition.provider.
func (app *application) setupRecognizer(ctx context.Context, awsCfg aws.Config) (service.Recognizer, error) {
	cfg := app.config.Recognition

	switch cfg.Provider {
	case config.RecognitionProviderRekognition:
		app.logger.Info("Rekognition label recognizer initialized")
		return rekognition.NewRecognizer(rekognition.NewClient(awsCfg), app.bucket.Name()), nil

	case config.RecognitionProviderGemini:
		recognizer, err := gemini.NewGeminiRecognizer(
			ctx,
			app.logger.With("component", "gemini_recognizer"),
			cfg,
			app.bucket,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini recognizer: %w", err)
		}
		app.logger.Info("Gemini label recognizer initialized", "model", cfg.GeminiModel)
		return recognizer, nil

	default:
		return nil, fmt.Errorf("unsupported recognition provider %q", cfg.Provider)
	}
}

// setupIdentity builds the identity middleware selected by auth.mode.
func (app *application) setupIdentity() error {
	cfg := app.config.Auth

	switch cfg.Mode {
	case config.AuthModeStatic:
		app.identity = apiMiddleware.NewStaticIdentity(cfg.DefaultUserID)
		app.logger.Info("static identity configured", "user_id", cfg.DefaultUserID)

	case config.AuthModeJWT:
		jwtService, err := auth.NewJWTService(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize JWT service: %w", err)
		}
		app.jwtService = jwtService
		app.identity = apiMiddleware.NewJWTIdentity(jwtService)
		app.logger.Info("JWT identity configured")

	default:
		return fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}

	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}

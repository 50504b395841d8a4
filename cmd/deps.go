package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/internal/auth"
	authPostgres "github.com/frahmantamala/medical-filemanager/internal/auth/postgres"
	"github.com/frahmantamala/medical-filemanager/internal/browse"
	browsePostgres "github.com/frahmantamala/medical-filemanager/internal/browse/postgres"
	"github.com/frahmantamala/medical-filemanager/internal/category"
	categoryPostgres "github.com/frahmantamala/medical-filemanager/internal/category/postgres"
	"github.com/frahmantamala/medical-filemanager/internal/core/events"
	"github.com/frahmantamala/medical-filemanager/internal/department"
	departmentPostgres "github.com/frahmantamala/medical-filemanager/internal/department/postgres"
	"github.com/frahmantamala/medical-filemanager/internal/folder"
	folderPostgres "github.com/frahmantamala/medical-filemanager/internal/folder/postgres"
	"github.com/frahmantamala/medical-filemanager/internal/medicalfile"
	medicalfilePostgres "github.com/frahmantamala/medical-filemanager/internal/medicalfile/postgres"
	"github.com/frahmantamala/medical-filemanager/internal/queue"
	"github.com/frahmantamala/medical-filemanager/internal/session"
	sessionPostgres "github.com/frahmantamala/medical-filemanager/internal/session/postgres"
	"github.com/frahmantamala/medical-filemanager/internal/storage"
	"github.com/frahmantamala/medical-filemanager/internal/user"
	userPostgres "github.com/frahmantamala/medical-filemanager/internal/user/postgres"
	"github.com/frahmantamala/medical-filemanager/pkg/logger"
	"github.com/hibiken/asynq"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Services holds every domain service, wired once per process.
type Services struct {
	Departments *department.Service
	Sessions    *session.Service
	Provisioner *folder.Provisioner
	Folders     *folder.Resolver
	Categories  *category.Service
	Auth        *auth.Service
	Users       *user.Service
	Files       *medicalfile.Service
	Browse      *browse.Service
}

type Dependencies struct {
	Config   *internal.Config
	Gorm     *gorm.DB
	DB       *sqlx.DB
	Logger   *slog.Logger
	Signer   *storage.Signer
	Blob     storage.Blob
	Bus      *events.EventBus
	Queue    *asynq.Client
	Services *Services
}

func (d *Dependencies) Close() {
	if d.Queue != nil {
		if err := d.Queue.Close(); err != nil {
			d.Logger.Error("queue client close error", "error", err)
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Error("database close error", "error", err)
		}
	}
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	initLogger(config)
	log := logger.L()

	gormDB, db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	signer := storage.NewSigner(config.Security.MediaSigningSecret, config.Server.BaseURL)
	blob, err := storage.New(ctx, config.Storage, signer)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	deps := &Dependencies{
		Config: config,
		Gorm:   gormDB,
		DB:     db,
		Logger: log,
		Signer: signer,
		Blob:   blob,
		Bus:    events.NewEventBus(log),
	}

	if config.Queue.Enabled {
		deps.Queue = asynq.NewClient(queue.RedisOpt(config.Queue.RedisAddr, config.Queue.RedisPassword, config.Queue.RedisDB))
	}

	deps.Services = buildServices(deps)
	return deps, nil
}

func buildServices(deps *Dependencies) *Services {
	cfg := deps.Config
	log := deps.Logger

	departments := department.NewService(departmentPostgres.NewDepartmentRepository(deps.Gorm), log)
	sessions := session.NewService(sessionPostgres.NewSessionRepository(deps.Gorm), log)

	folderRepo := folderPostgres.NewFolderRepository(deps.Gorm)
	provisioner := folder.NewProvisioner(folderRepo, cfg.Folders.StartYear, cfg.Folders.EndYear, log)
	resolver := folder.NewResolver(folderRepo, log)

	categories := category.NewService(categoryPostgres.NewCategoryRepository(deps.Gorm), departments, provisioner, deps.Bus, log)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(deps.Gorm), tokens, sessions, cfg.Security.BCryptCost, log)
	users := user.NewService(userPostgres.NewUserRepository(deps.Gorm), departments, categories, sessions, authService, log)

	files := medicalfile.NewService(
		medicalfilePostgres.NewMedicalFileRepository(deps.Gorm),
		categories,
		resolver,
		deps.Blob,
		deps.Bus,
		medicalfile.Options{
			MaxFileSize: cfg.Upload.MaxFileSize,
			PageSize:    cfg.Browse.PageSize,
			URLTTL:      cfg.Storage.URLTTL,
			Processing:  cfg.Queue.Enabled,
		},
		log,
	)

	return &Services{
		Departments: departments,
		Sessions:    sessions,
		Provisioner: provisioner,
		Folders:     resolver,
		Categories:  categories,
		Auth:        authService,
		Users:       users,
		Files:       files,
		Browse:      browse.NewService(browsePostgres.NewBrowseRepository(deps.DB), sessions, log),
	}
}

// registerEventHandlers subscribes the background dispatcher and the audit log
// to domain events.
func registerEventHandlers(deps *Dependencies) {
	var enqueuer queue.Enqueuer
	if deps.Queue != nil {
		enqueuer = deps.Queue
	}
	queue.NewDispatcher(enqueuer, deps.Logger).Register(deps.Bus)

	audit := func(ctx context.Context, event events.Event) error {
		deps.Logger.Info("domain event",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"payload", event.Payload())
		return nil
	}
	deps.Bus.Subscribe(events.EventTypeFileDeleted, audit)
	deps.Bus.Subscribe(events.EventTypeCategoryCreated, audit)
}

// initDB opens one pgx pool shared by sqlx (read models, migrations) and gorm
// (repositories).
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, *sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	return gormDB, dbConn, nil
}

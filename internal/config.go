package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Queue         QueueConfig         `mapstructure:"queue"`
	Upload        UploadConfig        `mapstructure:"upload"`
	Browse        BrowseConfig        `mapstructure:"browse"`
	Folders       FoldersConfig       `mapstructure:"folders"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" validate:"min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source" validate:"required"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret" validate:"required,min=32"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret" validate:"required,min=32"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" validate:"required,min=1m,max=24h"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" validate:"required,min=1h"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" validate:"required,min=4,max=15"`
	MediaSigningSecret   string        `mapstructure:"media_signing_secret" validate:"required,min=32"`
}

type StorageConfig struct {
	Backend string              `mapstructure:"backend" validate:"required,oneof=local s3 gridfs"`
	URLTTL  time.Duration       `mapstructure:"url_ttl" validate:"required,min=1m"`
	Local   LocalStorageConfig  `mapstructure:"local"`
	S3      S3StorageConfig     `mapstructure:"s3"`
	GridFS  GridFSStorageConfig `mapstructure:"gridfs"`
}

type LocalStorageConfig struct {
	Dir string `mapstructure:"dir"`
}

type S3StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
}

type GridFSStorageConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
	Bucket   string `mapstructure:"bucket"`
}

type QueueConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	RedisAddr     string `mapstructure:"redis_addr" validate:"required_if=Enabled true"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"min=0"`
	Concurrency   int    `mapstructure:"concurrency" validate:"min=0"`
}

type UploadConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size" validate:"min=0"`
}

type BrowseConfig struct {
	PageSize int `mapstructure:"page_size" validate:"min=0,max=100"`
}

type FoldersConfig struct {
	StartYear int `mapstructure:"start_year" validate:"min=0"`
	EndYear   int `mapstructure:"end_year" validate:"min=0"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json text"`
}

const (
	DefaultMaxFileSize   int64 = 100 * 1024 * 1024
	DefaultPageSize            = 10
	DefaultStartYear           = 2015
	DefaultEndYear             = 2040
	DefaultStorageURLTTL       = 15 * time.Minute
)

// ApplyDefaults fills zero values that have a sensible fallback.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "local"
	}
	if c.Storage.URLTTL == 0 {
		c.Storage.URLTTL = DefaultStorageURLTTL
	}
	if c.Storage.Local.Dir == "" {
		c.Storage.Local.Dir = "./data/media"
	}
	if c.Storage.GridFS.Bucket == "" {
		c.Storage.GridFS.Bucket = "medical_files"
	}
	if c.Upload.MaxFileSize == 0 {
		c.Upload.MaxFileSize = DefaultMaxFileSize
	}
	if c.Browse.PageSize == 0 {
		c.Browse.PageSize = DefaultPageSize
	}
	if c.Folders.StartYear == 0 {
		c.Folders.StartYear = DefaultStartYear
	}
	if c.Folders.EndYear == 0 {
		c.Folders.EndYear = DefaultEndYear
	}
	if c.Queue.Concurrency == 0 {
		c.Queue.Concurrency = 5
	}
	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
}

// ----------------- ENV -----------------

// LoadConfigFromEnv builds the configuration from plain environment variables,
// used for container deployments where no config.yml is mounted.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("PORT", 8080),
			BaseURL:           getEnv("BASE_URL", ""),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
			IdleTimeout:       getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("WRITE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			AccessTokenSecret:    getEnv("ACCESS_TOKEN_SECRET", ""),
			RefreshTokenSecret:   getEnv("REFRESH_TOKEN_SECRET", ""),
			AccessTokenDuration:  getEnvAsDuration("ACCESS_TOKEN_DURATION", 15*time.Minute),
			RefreshTokenDuration: getEnvAsDuration("REFRESH_TOKEN_DURATION", 168*time.Hour),
			BCryptCost:           getEnvAsInt("BCRYPT_COST", 12),
			MediaSigningSecret:   getEnv("MEDIA_SIGNING_SECRET", ""),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", "local"),
			URLTTL:  getEnvAsDuration("STORAGE_URL_TTL", DefaultStorageURLTTL),
			Local:   LocalStorageConfig{Dir: getEnv("STORAGE_LOCAL_DIR", "./data/media")},
			S3: S3StorageConfig{
				Endpoint:  getEnv("S3_ENDPOINT", ""),
				AccessKey: getEnv("S3_ACCESS_KEY", ""),
				SecretKey: getEnv("S3_SECRET_KEY", ""),
				Bucket:    getEnv("S3_BUCKET", "medical-files"),
				UseSSL:    getEnvAsBool("S3_USE_SSL", false),
				Region:    getEnv("S3_REGION", ""),
			},
			GridFS: GridFSStorageConfig{
				URI:      getEnv("GRIDFS_URI", ""),
				Database: getEnv("GRIDFS_DATABASE", "medical_files"),
				Bucket:   getEnv("GRIDFS_BUCKET", "medical_files"),
			},
		},
		Queue: QueueConfig{
			Enabled:       getEnvAsBool("QUEUE_ENABLED", false),
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			Concurrency:   getEnvAsInt("QUEUE_CONCURRENCY", 5),
		},
		Upload:  UploadConfig{MaxFileSize: int64(getEnvAsInt("UPLOAD_MAX_FILE_SIZE", int(DefaultMaxFileSize)))},
		Browse:  BrowseConfig{PageSize: getEnvAsInt("BROWSE_PAGE_SIZE", DefaultPageSize)},
		Folders: FoldersConfig{StartYear: getEnvAsInt("FOLDERS_START_YEAR", DefaultStartYear), EndYear: getEnvAsInt("FOLDERS_END_YEAR", DefaultEndYear)},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnvAsBool("METRICS_ENABLED", true),
				Path:    getEnv("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

var configValidator = validator.New()

func (c *Config) Validate() error {
	var errs []string

	if err := configValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	if err := c.Folders.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("folders config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		for _, origin := range c.Origins() {
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *ServerConfig) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case "s3":
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return errors.New("s3 backend requires endpoint and bucket")
		}
	case "gridfs":
		if c.GridFS.URI == "" || c.GridFS.Database == "" {
			return errors.New("gridfs backend requires uri and database")
		}
	case "local":
		if c.Local.Dir == "" {
			return errors.New("local backend requires dir")
		}
	}
	return nil
}

func (c *FoldersConfig) Validate() error {
	if c.StartYear > c.EndYear {
		return errors.New("start_year must be <= end_year")
	}
	return nil
}

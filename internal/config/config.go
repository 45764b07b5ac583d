package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"      validate:"required"`
	AWS         AWSConfig         `mapstructure:"aws"         validate:"required"`
	Store       StoreConfig       `mapstructure:"store"       validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Storage     StorageConfig     `mapstructure:"storage"     validate:"required"`
	Recognition RecognitionConfig `mapstructure:"recognition" validate:"required"`
	Auth        AuthConfig        `mapstructure:"auth"        validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int      `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel               string   `mapstructure:"log_level"                validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int      `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
	CORSAllowedOrigins     []string `mapstructure:"cors_allowed_origins"`
}

// ShutdownTimeout returns the graceful shutdown window as a duration.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// AWSConfig holds settings shared by every AWS service client.
type AWSConfig struct {
	Region string `mapstructure:"region" validate:"required"`
}

// Store drivers.
const (
	StoreDriverDynamoDB = "dynamodb"
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// StoreConfig selects and configures the task store backend.
type StoreConfig struct {
	Driver        string `mapstructure:"driver"          validate:"required,oneof=dynamodb postgres memory"`
	TableName     string `mapstructure:"table_name"      validate:"required_if=Driver dynamodb"`
	UserIndexName string `mapstructure:"user_index_name" validate:"required_if=Driver dynamodb"`
	// Endpoint overrides the DynamoDB endpoint, e.g. for DynamoDB Local.
	Endpoint string `mapstructure:"endpoint"`
}

// DatabaseConfig contains the PostgreSQL connection settings used by the
// postgres store driver.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// StorageConfig describes the attachment bucket.
type StorageConfig struct {
	BucketName             string `mapstructure:"bucket_name"                validate:"required"`
	Endpoint               string `mapstructure:"endpoint"`
	UsePathStyle           bool   `mapstructure:"use_path_style"`
	UploadURLExpirySeconds int    `mapstructure:"upload_url_expiry_seconds"  validate:"gte=1,lte=3600"`
}

// UploadURLExpiry returns the lifetime of an issued upload URL.
func (c StorageConfig) UploadURLExpiry() time.Duration {
	return time.Duration(c.UploadURLExpirySeconds) * time.Second
}

// Recognition providers.
const (
	RecognitionProviderRekognition = "rekognition"
	RecognitionProviderGemini      = "gemini"
)

// RecognitionConfig contains the image label recognition settings.
type RecognitionConfig struct {
	Provider      string  `mapstructure:"provider"       validate:"required,oneof=rekognition gemini"`
	MaxLabels     int     `mapstructure:"max_labels"     validate:"gte=1,lte=100"`
	MinConfidence float64 `mapstructure:"min_confidence" validate:"gte=0,lte=100"`
	GeminiAPIKey  string  `mapstructure:"gemini_api_key" validate:"required_if=Provider gemini"`
	GeminiModel   string  `mapstructure:"gemini_model"   validate:"required_if=Provider gemini"`
}

// Identity resolution modes.
const (
	AuthModeStatic = "static"
	AuthModeJWT    = "jwt"
)

// AuthConfig controls how the caller identity is resolved for each request.
type AuthConfig struct {
	Mode          string `mapstructure:"mode"            validate:"required,oneof=static jwt"`
	DefaultUserID string `mapstructure:"default_user_id" validate:"required_if=Mode static"`
	JWTSecret     string `mapstructure:"jwt_secret"      validate:"required_if=Mode jwt,omitempty,min=32"`
	// TokenLifetimeMinutes is the lifetime of tokens minted by the
	// token-generator tool.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"gte=1"`
}

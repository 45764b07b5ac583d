package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "SERVERTASK"

// legacyEnv maps configuration keys to the environment variable names used by
// earlier deployments, so existing stacks keep working unchanged.
var legacyEnv = map[string]string{
	"store.table_name":    "TASKS_TABLE",
	"storage.bucket_name": "BUCKET_NAME",
	"aws.region":          "AWS_REGION",
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// A .env file in the working directory is loaded first when present.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		envName := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envName, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks a Config against its struct tags and the cross-section rules
// that tags cannot express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Store.Driver == StoreDriverPostgres && cfg.Database.URL == "" {
		return errors.New("config validation failed: database.url is required for the postgres store driver")
	}

	return nil
}

// setDefaults registers every known key so AutomaticEnv can resolve it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	v.SetDefault("aws.region", "us-east-1")

	v.SetDefault("store.driver", StoreDriverDynamoDB)
	v.SetDefault("store.table_name", "")
	v.SetDefault("store.user_index_name", "UserIdIndex")
	v.SetDefault("store.endpoint", "")

	v.SetDefault("database.url", "")

	v.SetDefault("storage.bucket_name", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.use_path_style", false)
	v.SetDefault("storage.upload_url_expiry_seconds", 60)

	v.SetDefault("recognition.provider", RecognitionProviderRekognition)
	v.SetDefault("recognition.max_labels", 5)
	v.SetDefault("recognition.min_confidence", 70.0)
	v.SetDefault("recognition.gemini_api_key", "")
	v.SetDefault("recognition.gemini_model", "gemini-2.0-flash")

	v.SetDefault("auth.mode", AuthModeStatic)
	v.SetDefault("auth.default_user_id", "demo-user")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
}

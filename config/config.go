package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	JWT          JWT
	Storage      Storage
	Grading      Grading
	GeminiApiKey string
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type JWT struct {
	Secret     string
	Expiration time.Duration
}

type Storage struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Grading holds the tunables of the grading pipeline. CorrectThreshold is the
// fraction of a question's points an AI-graded answer must reach to be
// reported as correct; it affects reporting only, never the awarded score.
type Grading struct {
	AITimeout        time.Duration
	CorrectThreshold float64
	FlushInterval    time.Duration
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("JWT_EXPIRATION_HOURS", 24)
	viper.SetDefault("MINIO_BUCKET", "exam-materials")
	viper.SetDefault("AI_GRADING_TIMEOUT_SECONDS", 60)
	viper.SetDefault("AI_CORRECT_THRESHOLD", 0.7)
	viper.SetDefault("AUTOSAVE_FLUSH_SECONDS", 30)

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.JWT.Secret = viper.GetString("JWT_SECRET")
	config.JWT.Expiration = time.Duration(viper.GetInt("JWT_EXPIRATION_HOURS")) * time.Hour

	config.Storage.Endpoint = viper.GetString("MINIO_ENDPOINT")
	config.Storage.AccessKey = viper.GetString("MINIO_ACCESS_KEY")
	config.Storage.SecretKey = viper.GetString("MINIO_SECRET_KEY")
	config.Storage.Bucket = viper.GetString("MINIO_BUCKET")
	config.Storage.UseSSL = viper.GetBool("MINIO_USE_SSL")

	config.Grading.AITimeout = time.Duration(viper.GetInt("AI_GRADING_TIMEOUT_SECONDS")) * time.Second
	config.Grading.CorrectThreshold = viper.GetFloat64("AI_CORRECT_THRESHOLD")
	config.Grading.FlushInterval = time.Duration(viper.GetInt("AUTOSAVE_FLUSH_SECONDS")) * time.Second

	config.GeminiApiKey = viper.GetString("GEMINI_API_KEY")

	log.Info().Str("port", config.Server.Port).Str("db_host", config.Database.Host).Msg("Config loaded")
	return &config, nil
}

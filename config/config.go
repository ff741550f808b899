package config

import (
	"database/sql"
	"errors"
	"fmt"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
	"os"
	"path/filepath"
	"strings"
	"videohub/constant"
)

type Config struct {
	MinIOBucket string        `yaml:"minio_bucket"`
	App         App           `yaml:"app"`
	DB          *sql.DB       `yaml:"db"`
	DatabaseURL string        `yaml:"database_url"`
	Queue       *RabbitMQ     `yaml:"rabbitmq"`
	Storage     *minio.Client `yaml:"storage"`
	Media       Media         `yaml:"media"`
	Server      Server        `yaml:"server"`
	Upload      Upload        `yaml:"upload"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

// BaseURL is the address clients reach the API on, empty when no host is set.
func (a App) BaseURL() string {
	if a.Host == "" {
		return ""
	}
	protocol := a.Protocol
	if protocol == "" {
		protocol = "http"
	}
	return fmt.Sprintf("%s://%s", protocol, a.Host)
}

type Server struct {
	HttpPort       string   `yaml:"http_port"`
	Workers        int      `yaml:"workers"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Media describes how stored objects are addressed from the outside.
type Media struct {
	PublicURL       string `yaml:"public_url"`
	SecurePublicURL string `yaml:"secure_public_url"`
	FFProbePath     string `yaml:"ffprobe_path"`
}

type Upload struct {
	TempDir   string `yaml:"temp_dir"`
	MaxMemory int64  `yaml:"max_memory"`
}

type RabbitMQ struct {
	Enabled      bool   `json:"enabled"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", constant.EnvironmentDevelop.String())
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.workers", 2)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("minio.secure", false)
	v.SetDefault("media.ffprobe_path", "ffprobe")
	v.SetDefault("rabbitmq.enabled", true)
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.kind", "direct")
	v.SetDefault("rabbitmq.exchange_name", constant.CleanupExchange)
	v.SetDefault("upload.temp_dir", filepath.Join(os.TempDir(), "videohub-uploads"))
	v.SetDefault("upload.max_memory", 32<<20)
}

func Load(path string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	databaseURL := v.GetString("postgres.dsn")
	if databaseURL == "" {
		return nil, errors.New("postgres.dsn is required")
	}
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Enabled:      v.GetBool("rabbitmq.enabled"),
		Host:         v.GetString("rabbitmq.host"),
		Port:         v.GetInt("rabbitmq.port"),
		User:         v.GetString("rabbitmq.user"),
		Pass:         v.GetString("rabbitmq.pass"),
		ExchangeName: v.GetString("rabbitmq.exchange_name"),
		Kind:         v.GetString("rabbitmq.kind"),
	}

	minioClient, err := minio.New(v.GetString("minio.url"), &minio.Options{
		Creds:  credentials.NewStaticV4(v.GetString("minio.access_id"), v.GetString("minio.secret_access_key"), ""),
		Secure: v.GetBool("minio.secure"),
	})
	if err != nil {
		return nil, err
	}

	media := Media{
		PublicURL:       strings.TrimRight(v.GetString("media.public_url"), "/"),
		SecurePublicURL: strings.TrimRight(v.GetString("media.secure_public_url"), "/"),
		FFProbePath:     v.GetString("media.ffprobe_path"),
	}
	if media.PublicURL == "" {
		scheme := "http"
		if v.GetBool("minio.secure") {
			scheme = "https"
		}
		media.PublicURL = fmt.Sprintf("%s://%s/%s", scheme, v.GetString("minio.url"), v.GetString("minio.bucket"))
	}
	if media.SecurePublicURL == "" {
		media.SecurePublicURL = secureURL(media.PublicURL)
	}

	return &Config{
		MinIOBucket: v.GetString("minio.bucket"),
		App: App{
			Environment: v.GetString("app.environment"),
			Host:        v.GetString("app.host"),
			Protocol:    v.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort:       v.GetString("server.port"),
			Workers:        v.GetInt("server.workers"),
			AllowedOrigins: v.GetStringSlice("server.allowed_origins"),
		},
		Upload: Upload{
			TempDir:   v.GetString("upload.temp_dir"),
			MaxMemory: v.GetInt64("upload.max_memory"),
		},
		DB:          db,
		DatabaseURL: databaseURL,
		Queue:       rabbitmq,
		Storage:     minioClient,
		Media:       media,
	}, nil
}

func secureURL(raw string) string {
	if strings.HasPrefix(raw, "http://") {
		return "https://" + strings.TrimPrefix(raw, "http://")
	}
	return raw
}

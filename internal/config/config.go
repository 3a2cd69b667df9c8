package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

var ErrEmptyJWTSecret = errors.New("jwt_secret must not be empty")

type Config struct {
	Env         string        `yaml:"env" env:"ENV" env-default:"production"`
	LogLevel    string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	PGSQL       PQSQL         `yaml:"pgsql"`
	HTTPServer  HTTPServer    `yaml:"http_server"`
	JWTSecret   string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	JWTLifetime time.Duration `yaml:"jwt_lifetime" env:"JWT_LIFETIME" env-default:"1h"`
	MinIO       MinIO         `yaml:"minio"`
	Media       Media         `yaml:"media"`
	Redis       Redis         `yaml:"redis"`
	RateLimit   RateLimit     `yaml:"rate_limit"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"5s"`
}

type PQSQL struct {
	Host         string        `yaml:"host" env:"PG_HOST" env-default:"localhost"`
	Port         string        `yaml:"port" env:"PG_PORT" env-default:"5432"`
	User         string        `yaml:"user" env:"PG_USER" env-default:"postgres"`
	Password     string        `yaml:"password" env:"PG_PASSWORD" env-default:"postgres"`
	DBName       string        `yaml:"dbname" env:"PG_DBNAME" env-default:"atlasnap"`
	SSLMode      string        `yaml:"sslmode" env:"PG_SSLMODE" env-default:"disable"`
	ConnTimeout  time.Duration `yaml:"conn_timeout" env-default:"5s"`
	QueryTimeout time.Duration `yaml:"query_timeout" env-default:"5s"` // bounds every repository call
}

// DSN is the postgres:// URL understood by both lib/pq and golang-migrate.
func (p PQSQL) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     "/" + p.DBName,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	return u.String()
}

type MinIO struct {
	Endpoint        string        `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKeyID     string        `yaml:"access_key_id" env:"MINIO_ACCESS_KEY_ID"`
	SecretAccessKey string        `yaml:"secret_access_key" env:"MINIO_SECRET_ACCESS_KEY"`
	UseSSL          bool          `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	Region          string        `yaml:"region" env:"MINIO_REGION" env-default:"us-east-1"`
	BucketName      string        `yaml:"bucket_name" env:"MINIO_BUCKET" env-default:"atlasnap-media"`
	CreateBucket    bool          `yaml:"create_bucket" env-default:"false"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env-default:"10s"`
}

type Media struct {
	MaxBatchSize      int           `yaml:"max_batch_size" env:"MEDIA_MAX_BATCH_SIZE" env-default:"20"`
	AllowedImageTypes []string      `yaml:"allowed_image_types" env:"MEDIA_ALLOWED_IMAGE_TYPES" env-default:"image/jpeg,image/png,image/gif,image/webp,image/heic"`
	AllowedVideoTypes []string      `yaml:"allowed_video_types" env:"MEDIA_ALLOWED_VIDEO_TYPES" env-default:"video/mp4,video/quicktime,video/webm"`
	MaxUploadSizeMB   int64         `yaml:"max_upload_size_mb" env:"MEDIA_MAX_UPLOAD_SIZE_MB" env-default:"100"`
	URLExpiry         time.Duration `yaml:"url_expiry" env:"MEDIA_URL_EXPIRY" env-default:"1h"`
	VerifyUploads     bool          `yaml:"verify_uploads" env-default:"false"` // HEAD the blob before confirm writes a row
	ConfirmWorkers    int           `yaml:"confirm_workers" env-default:"1"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

type RateLimit struct {
	Enabled         bool  `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"false"`
	UploadPerMinute int64 `yaml:"upload_per_minute" env-default:"30"`
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist at path: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("failed to read config: %s", err)
	}

	return cfg
}

// Load reads the yaml file at path and applies env overrides and defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}

	// cleanenv treats a set but empty JWT_SECRET as present.
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config %s: %w", path, ErrEmptyJWTSecret)
	}

	return &cfg, nil
}

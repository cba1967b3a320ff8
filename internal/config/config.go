package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string           `yaml:"env" env-default:"development"` // environment
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Migrations MigrationsConfig `yaml:"migrations"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Uploads    UploadsConfig    `yaml:"uploads"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Stripe     StripeConfig     `yaml:"stripe"`
	CORS       CORSConfig       `yaml:"cors"`
	Auth       AuthConfig       `yaml:"auth"`
	Jobs       JobsConfig       `yaml:"jobs"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// DatabaseConfig структура по работе с БД
type DatabaseConfig struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"-" env:"DB_PASSWORD" env-required:"true"`
	Name     string `yaml:"name" env-required:"true"`
}

// JWTConfig настройка jwt, время жизни в минутах
type JWTConfig struct {
	Secret        string `yaml:"-" env:"JWT_SECRET" env-required:"true"`
	RefreshSecret string `yaml:"-" env:"JWT_REFRESH_SECRET" env-required:"true"`
	TokenTTL      int    `yaml:"token_ttl" env-default:"1440"`
	RefreshTTL    int    `yaml:"refresh_ttl" env-default:"10080"`
}

type MigrationsConfig struct {
	Path string `yaml:"path" env-default:"./migrations"`
}

// RedisConfig - пустой адрес отключает кэш
type RedisConfig struct {
	Addr       string        `yaml:"addr" env:"REDIS_ADDR"`
	Password   string        `yaml:"-" env:"REDIS_PASSWORD"`
	DB         int           `yaml:"db" env-default:"0"`
	ProductTTL time.Duration `yaml:"product_ttl" env-default:"5m"`
}

// KafkaConfig - без брокеров события не публикуются
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env-default:"shop.events"`
	Buffer  int      `yaml:"buffer" env-default:"1024"`
}

// UploadsConfig хранение загруженных изображений
type UploadsConfig struct {
	Dir     string `yaml:"dir" env-default:"./uploads"`
	BaseURL string `yaml:"base_url" env-default:"/uploads"`
	MaxSize int64  `yaml:"max_size" env-default:"5242880"`
}

type SMTPConfig struct {
	Host         string `yaml:"host" env-default:"smtp.gmail.com"`
	Port         int    `yaml:"port" env-default:"587"`
	Username     string `yaml:"username"`
	Password     string `yaml:"-" env:"SMTP_PASSWORD"`
	From         string `yaml:"from"`
	StoreName    string `yaml:"store_name" env-default:"Shop"`
	OwnerEmail   string `yaml:"owner_email"`
	SupportEmail string `yaml:"support_email"`
}

type StripeConfig struct {
	SecretKey string `yaml:"-" env:"STRIPE_SECRET_KEY"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env-default:"http://localhost:5173"`
}

// AuthConfig ограничение попыток входа: LoginRateLimit запросов за LoginRateWindow
type AuthConfig struct {
	LoginRateLimit  int           `yaml:"login_rate_limit" env-default:"10"`
	LoginRateWindow time.Duration `yaml:"login_rate_window" env-default:"15m"`
}

// JobsConfig фоновые задачи
type JobsConfig struct {
	CartTTL         time.Duration `yaml:"cart_ttl" env-default:"720h"`
	CartCleanupSpec string        `yaml:"cart_cleanup_spec" env-default:"@daily"`
}

// MustLoad - если не загружаем - паникуем
func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		log.Fatal("CONFIG_PATH not exists")
	}
	return MustLoadByPath(configPath)
}

func fetchConfigPath() string {
	var path string

	flag.StringVar(&path, "config", "", "path to config file")
	flag.Parse()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can't read config file %s: %v", configPath, err)
	}

	return &cfg
}

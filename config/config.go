package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	HTTP         ServerConfig
	MySQL        MySQLConfig
	Log          LogConfig
	Kafka        KafkaConfig
	ExternalAPI  ExternalAPIConfig
	OrderService EndpointConfig
	UserService  EndpointConfig
}

type AppConfig struct {
	ServiceName string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type KafkaConfig struct {
	Brokers            []string
	CreatePaymentTopic string
	CreateOrderTopic   string
	ConsumerGroupID    string
	WriteTimeout       time.Duration
}

type ExternalAPIConfig struct {
	RandomNumberURL string
	Timeout         time.Duration
}

type EndpointConfig struct {
	BaseURL string
	Timeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "payment-service"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Kafka: KafkaConfig{
			Brokers:            getListEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			CreatePaymentTopic: getEnv("KAFKA_CREATE_PAYMENT_TOPIC", "create-payment-events"),
			CreateOrderTopic:   getEnv("KAFKA_CREATE_ORDER_TOPIC", "create-order-events"),
			ConsumerGroupID:    getEnv("KAFKA_CONSUMER_GROUP_ID", "payment-service-group"),
			WriteTimeout:       getSecondsEnv("KAFKA_WRITE_TIMEOUT_SECONDS", 10*time.Second),
		},
		ExternalAPI: ExternalAPIConfig{
			RandomNumberURL: getEnv("EXTERNAL_RANDOM_NUMBER_URL", "http://www.randomnumberapi.com/api/v1.0/random?min=1&max=100"),
			Timeout:         getSecondsEnv("EXTERNAL_API_TIMEOUT_SECONDS", 10*time.Second),
		},
		OrderService: EndpointConfig{
			BaseURL: getEnv("ORDER_SERVICE_URL", "http://order-service:8080"),
			Timeout: getSecondsEnv("ORDER_SERVICE_TIMEOUT_SECONDS", 10*time.Second),
		},
		UserService: EndpointConfig{
			BaseURL: getEnv("USER_SERVICE_URL", "http://user-service:8080"),
			Timeout: getSecondsEnv("USER_SERVICE_TIMEOUT_SECONDS", 10*time.Second),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	values := make([]string, 0)
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			values = append(values, item)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

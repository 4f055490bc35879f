package config

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// Config collects every environment knob the server reads at startup.
type Config struct {
	Port       string
	DataDir    string
	UploadsDir string

	// PublicBaseURL is the origin customers reach the shop on. Order QR
	// codes embed links built from it.
	PublicBaseURL string

	// StorageBackend selects "json" (default) or "postgres".
	StorageBackend string

	KafkaBroker string

	SessionTTL time.Duration

	WhatsAppToken        string
	WhatsAppPhoneID      string
	WhatsAppAdminNumber  string
	WhatsAppWebhookToken string
}

func Load() Config {
	return Config{
		Port:                 envOr("PORT", "8080"),
		DataDir:              envOr("DATA_DIR", "data"),
		UploadsDir:           envOr("UPLOADS_DIR", "uploads"),
		PublicBaseURL:        envOr("PUBLIC_BASE_URL", "http://localhost:8080"),
		StorageBackend:       envOr("STORAGE_BACKEND", "json"),
		KafkaBroker:          os.Getenv("KAFKA_BROKER"),
		SessionTTL:           sessionTTL(),
		WhatsAppToken:        os.Getenv("WHATSAPP_TOKEN"),
		WhatsAppPhoneID:      os.Getenv("WHATSAPP_PHONE_ID"),
		WhatsAppAdminNumber:  os.Getenv("WHATSAPP_ADMIN_NUMBER"),
		WhatsAppWebhookToken: os.Getenv("WHATSAPP_WEBHOOK_TOKEN"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func sessionTTL() time.Duration {
	hours, err := strconv.Atoi(envOr("SESSION_TTL_HOURS", "12"))
	if err != nil || hours < 1 {
		hours = 12
	}
	return time.Duration(hours) * time.Hour
}

func MustInitPostgres() *sql.DB {
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")

	connStr := "host=" + dbHost + " port=" + dbPort + " user=" + dbUser +
		" password=" + dbPassword + " dbname=" + dbName + " sslmode=disable"

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err = db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db
}

func MustInitRedis() *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: envOr("REDIS_HOST", "localhost") + ":" + envOr("REDIS_PORT", "6379"),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	return client
}

func NewKafkaWriter(broker, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(broker),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
}

package main

import (
	"log"
	"time"

	"nutrijus/config"
	httpapi "nutrijus/internal/api/http"
	"nutrijus/internal/notify"
	"nutrijus/internal/service"
	"nutrijus/internal/storage"
)

func main() {
	cfg := config.Load()

	redisClient := config.MustInitRedis()
	sessions := storage.NewSessionStore(redisClient, cfg.SessionTTL)
	carts := storage.NewCartStore(redisClient, 7*24*time.Hour)
	qrCache := storage.NewQRCache(redisClient, time.Hour)

	var (
		products service.ProductRepository
		orders   service.OrderRepository
		users    service.UserRepository
	)
	switch cfg.StorageBackend {
	case "postgres":
		db := config.MustInitPostgres()
		defer db.Close()
		repo := storage.NewPostgresRepository(db)
		if err := repo.EnsureSchema(); err != nil {
			log.Fatal("Failed to ensure schema:", err)
		}
		products, orders, users = repo, repo, repo
	default:
		store, err := storage.NewJSONStore(cfg.DataDir)
		if err != nil {
			log.Fatal("Failed to open data directory:", err)
		}
		products, orders, users = store, store, store
	}

	var notifier service.Notifier
	if cfg.WhatsAppToken != "" && cfg.WhatsAppPhoneID != "" {
		notifier = notify.NewWhatsAppClient(cfg.WhatsAppToken, cfg.WhatsAppPhoneID)
	} else {
		log.Println("[nutrijus] whatsapp credentials missing, notifications disabled")
	}

	orderService := service.NewOrderService(orders, products, carts)
	if notifier != nil {
		orderService = orderService.WithNotifier(notifier, cfg.WhatsAppAdminNumber)
	}
	if cfg.KafkaBroker != "" {
		writer := config.NewKafkaWriter(cfg.KafkaBroker, "order_placed")
		defer writer.Close()
		orderService = orderService.WithEvents(storage.NewKafkaPublisher(writer))
	} else {
		log.Println("[nutrijus] KAFKA_BROKER not set, order events disabled")
	}

	handler := &httpapi.Handler{
		Catalog:            service.NewCatalogService(products),
		Orders:             orderService,
		Users:              service.NewUserService(users),
		Auth:               service.NewAuthService(users, sessions),
		Carts:              service.NewCartService(carts, products),
		Reports:            service.NewReportService(orders, products),
		Notifier:           notifier,
		QRCache:            qrCache,
		QRGen:              &service.DefaultQRGenerator{BaseURL: cfg.PublicBaseURL},
		WebhookVerifyToken: cfg.WhatsAppWebhookToken,
		UploadsDir:         cfg.UploadsDir,
	}

	httpapi.StartServer(":"+cfg.Port, httpapi.NewRouter(handler))
}

/**
 * @description
 * This is the main entry point for the Kinta backend. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, external API clients, message brokers, repositories, the core
 * application service, and the HTTP server. It wires everything together and
 * starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages.
 * - pkg/billstackclient, pkg/qstashclient, pkg/mailer, pkg/rabbitmq: Clients.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/s00laimang01/kinta-backend/internal/api"
	"github.com/s00laimang01/kinta-backend/internal/app"
	"github.com/s00laimang01/kinta-backend/internal/config"
	"github.com/s00laimang01/kinta-backend/internal/store"
	"github.com/s00laimang01/kinta-backend/pkg/billstackclient"
	"github.com/s00laimang01/kinta-backend/pkg/mailer"
	"github.com/s00laimang01/kinta-backend/pkg/qstashclient"
	rmrabbit "github.com/s00laimang01/kinta-backend/pkg/rabbitmq"
)

const (
	accountEventsExchange = "account_events"
	accountProvisionedKey = "account.provisioned"
	notificationQueueName = "kinta_account_provisioned"
)

func main() {
	// Load a local .env file if present; production relies on real env vars.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.Signature) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"request signature must be configured\" env=SIGNATURE")
	}
	if strings.TrimSpace(cfg.AdminJWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"admin jwt secret must be configured\" env=ADMIN_JWT_SECRET")
	}

	log.Printf("level=info component=bootstrap msg=\"starting kinta-backend\" port=%s env=%s", cfg.ServerPort, cfg.AppEnv)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts behind poolers.
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// External clients.
	billstackClient := billstackclient.NewClient(cfg.BillstackAPIBaseURL, cfg.BillstackSecretKey)
	qstashClient := qstashclient.NewClient(cfg.QStashURL, cfg.QStashToken)
	smtpMailer := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom)

	// RabbitMQ producer for provisioning events. Missing broker config should
	// not prevent the service from booting; email notifications will degrade.
	var events app.EventPublisher
	rabbitProducer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; notifications disabled\" err=%v", err)
	} else {
		defer rabbitProducer.Close()
		events = rabbitProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Optional Redis-backed rate limiter for on-demand provisioning.
	var limiter app.ProvisionRateLimiter
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; rate limiting disabled\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; rate limiting disabled\" err=%v", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				limiter = app.NewRedisProvisionRateLimiter(redisClient, "")
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
			cancelPing()
		}
	}

	repository := store.NewPostgresRepository(dbpool)
	service := app.NewService(repository, billstackClient, events, limiter, cfg)

	// Consume provisioning events and send the corresponding emails. Runs only
	// when the broker is reachable.
	if events != nil {
		notifier := app.NewNotificationConsumer(smtpMailer)
		rabbitConsumer, consumerErr := rmrabbit.NewConsumer(cfg.RabbitMQURL)
		if consumerErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"rabbitmq consumer init failed; notifications disabled\" err=%v", consumerErr)
		} else {
			defer rabbitConsumer.Close()
			go func() {
				if consumeErr := rabbitConsumer.Consume(accountEventsExchange, notificationQueueName, accountProvisionedKey, notifier.HandleAccountProvisionedEvent); consumeErr != nil {
					log.Printf("level=error component=bootstrap msg=\"notification consumer stopped\" err=%v", consumeErr)
				}
			}()
			log.Println("level=info component=bootstrap msg=\"notification consumer started\"")
		}
	}

	// Optional in-process scheduler for deployments without QStash.
	if cfg.EnableLocalScheduler {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		scheduler := app.NewScheduler(service, slogger, cfg.CronSchedule)
		scheduler.Start()
		defer scheduler.Stop()
	}

	handlers := api.NewHandlers(service, qstashClient, cfg)
	router := api.NewRouter(handlers, cfg.AdminJWTSecret)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}

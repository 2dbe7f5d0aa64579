package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"care-link-platform/backend/internal/audit"
	auditrepo "care-link-platform/backend/internal/audit/repository"
	authservice "care-link-platform/backend/internal/auth/service"
	"care-link-platform/backend/internal/config"
	"care-link-platform/backend/internal/db"
	mfarepo "care-link-platform/backend/internal/mfa/repository"
	"care-link-platform/backend/internal/mfa/sms"
	"care-link-platform/backend/internal/security"
	"care-link-platform/backend/internal/server"
	"care-link-platform/backend/internal/server/interceptors"
	"care-link-platform/backend/internal/session/authority"
	"care-link-platform/backend/internal/session/store"
	"care-link-platform/backend/internal/telemetry/otel"
	"care-link-platform/backend/internal/telemetry/producer"
	userrepo "care-link-platform/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "care-link-server", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	sessionStore := store.NewRedisStore(redisClient)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := sessionStore.Ping(pingCtx); err != nil {
		cancel()
		log.Fatalf("session store: %v", err)
	}
	cancel()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer sqlDB.Close()

	auditRepo := auditrepo.NewPostgresRepository(sqlDB)
	auditLogger := audit.NewLogger(auditRepo, interceptors.ClientIP)

	policy, err := authority.ParsePolicy(cfg.SessionConcurrencyPolicy)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	sessions := authority.New(sessionStore, auditLogger, authority.Config{
		IdleTimeout: cfg.IdleTimeout(),
		Policy:      policy,
		HandoffTTL:  cfg.HandoffTTL(),
	})

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())

	var smsSender sms.Sender
	if cfg.SMSLocalAPIKey != "" {
		smsSender = sms.NewSMSLocalClient(cfg.SMSLocalAPIKey, cfg.SMSLocalBaseURL, cfg.SMSLocalSender)
	}
	authSvc := authservice.NewAuthService(
		userrepo.NewPostgresRepository(sqlDB),
		mfarepo.NewPostgresRepository(sqlDB),
		smsSender,
		sessions,
		security.NewHasher(cfg.BcryptCost),
		tokens,
	)

	kafkaProducer, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if err != nil {
		log.Fatalf("telemetry producer: %v", err)
	}
	var events producer.Producer
	if kafkaProducer != nil {
		events = kafkaProducer
		defer kafkaProducer.Close()
	} else if otelProducer := producer.NewOTelProducer(providers.LoggerProvider); otelProducer != nil {
		events = otelProducer
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	s := server.New(server.Deps{
		Tokens:    tokens,
		Sessions:  sessions,
		Auth:      authSvc,
		AuditRepo: auditRepo,
		Telemetry: events,
		SkipMethods: map[string]bool{
			"/grpc.health.v1.Health/Check": true,
		},
	})

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down gRPC server...")
	s.GracefulStop()
	log.Println("gRPC server stopped")
}

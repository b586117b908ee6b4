package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"smartcampus/backend/internal/api/handler"
	"smartcampus/backend/internal/complaint"
	"smartcampus/backend/internal/config"
	"smartcampus/backend/internal/identity"
	"smartcampus/backend/internal/localization"
	"smartcampus/backend/internal/logging"
	"smartcampus/backend/internal/moderation"
	"smartcampus/backend/internal/realtime"
	"smartcampus/backend/internal/storage"
	"smartcampus/backend/internal/telegram"
)

func googleOptions(cfg *config.Config) []option.ClientOption {
	if cfg.Google.CredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.Google.CredentialsFile)}
}

// newFirebaseApp is only needed by the Firestore store and Firebase auth.
func newFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	if cfg.Store.Driver != config.StoreDriverFirestore && cfg.Auth.Mode != config.AuthModeFirebase {
		return nil, nil
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Google.ProjectID}, googleOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	return app, nil
}

func newVerifier(ctx context.Context, cfg *config.Config, app *firebase.App) (identity.Verifier, error) {
	if cfg.Auth.Mode == config.AuthModeJWT {
		return identity.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	}
	return identity.NewFirebaseVerifier(ctx, app)
}

// newBroker uses Redis when an address is configured so several API
// instances share change events.
func newBroker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (realtime.Broker, func() error, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("Redis not configured, using in-process broker")
		return realtime.NewLocalBroker(), func() error { return nil }, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return realtime.NewRedisBroker(rdb, logger), rdb.Close, nil
}

func newModerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*moderation.Engine, error) {
	threshold, err := moderation.ParseLikelihood(cfg.Moderation.ImageThreshold)
	if err != nil {
		return nil, fmt.Errorf("image threshold: %w", err)
	}

	text, err := moderation.NewGeminiClassifier(ctx, moderation.GeminiConfig{
		APIKey:    cfg.Moderation.GeminiAPIKey,
		Model:     cfg.Moderation.GeminiModel,
		UseVertex: cfg.Moderation.UseVertex,
		Project:   cfg.Google.ProjectID,
		Location:  cfg.Moderation.VertexLocation,
	})
	if err != nil {
		return nil, err
	}
	image, err := moderation.NewVisionClassifier(ctx, googleOptions(cfg)...)
	if err != nil {
		return nil, err
	}

	return moderation.NewEngine(text, image,
		moderation.WithThreshold(threshold),
		moderation.WithLogger(logger),
	), nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	app, err := newFirebaseApp(ctx, cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := storage.Open(ctx, cfg, app, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	broker, closeBroker, err := newBroker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBroker()

	verifier, err := newVerifier(ctx, cfg, app)
	if err != nil {
		return err
	}
	moderator, err := newModerator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	messages, err := localization.NewLocalizer(cfg.LocalesDir)
	if err != nil {
		return err
	}
	notifier, err := telegram.NewStaffNotifier(cfg.Telegram.BotToken, cfg.Telegram.StaffChatID, logger)
	if err != nil {
		return err
	}

	hub := realtime.NewHub(broker, logger)
	h := &handler.Handler{
		Gateway:        complaint.NewGateway(moderator, store, broker, notifier, messages, logger),
		Service:        complaint.NewService(store, broker, notifier, logger),
		Hub:            hub,
		Verifier:       verifier,
		Messages:       messages,
		Logger:         logger,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}

	server := &http.Server{
		Addr:           cfg.HTTP.Addr,
		Handler:        handler.NewRouter(h),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return notifier.Run(gctx) })
	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting SmartCampus backend", zap.String("env", cfg.Env))
	if err := run(ctx, &cfg, logger); err != nil {
		logger.Error("Backend stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Backend stopped")
}

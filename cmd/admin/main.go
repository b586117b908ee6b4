// Command admin runs one-off maintenance tasks against the campus store.
package main

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"smartcampus/backend/internal/complaint"
	"smartcampus/backend/internal/config"
	"smartcampus/backend/internal/logging"
	"smartcampus/backend/internal/models"
	"smartcampus/backend/internal/realtime"
	"smartcampus/backend/internal/storage"
	"smartcampus/backend/internal/telegram"
)

// systemCaller is the identity every CLI operation runs as.
var systemCaller = &models.Caller{UID: "admin-cli", Email: "admin-cli", Role: models.RoleAdmin}

// env holds what a subcommand needs. It is built lazily so dev-token works
// without a database.
type env struct {
	cfg     config.Config
	logger  *zap.Logger
	service *complaint.Service
	close   func() error
}

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "SmartCampus administration",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.IsDevelopment())
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// openEnv connects the store. Changes are published to Redis when it is
// configured so running API instances push them to clients.
func openEnv(ctx context.Context) (*env, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var app *firebase.App
	if cfg.Store.Driver == config.StoreDriverFirestore {
		var opts []option.ClientOption
		if cfg.Google.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Google.CredentialsFile))
		}
		if app, err = firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Google.ProjectID}, opts...); err != nil {
			return nil, fmt.Errorf("init firebase app: %w", err)
		}
	}
	store, closeStore, err := storage.Open(ctx, &cfg, app, logger)
	if err != nil {
		return nil, err
	}

	var publisher realtime.Broker = realtime.NewLocalBroker()
	closeRedis := func() error { return nil }
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, changes will not be pushed", zap.Error(err))
			rdb.Close()
		} else {
			publisher = realtime.NewRedisBroker(rdb, logger)
			closeRedis = rdb.Close
		}
	}

	// Staff notifications come from the API process only.
	notifier := telegram.NewStaffNotifierWithSender(nil, 0, logger)

	return &env{
		cfg:     cfg,
		logger:  logger,
		service: complaint.NewService(store, publisher, notifier, logger),
		close: func() error {
			closeRedis()
			return closeStore()
		},
	}, nil
}

func withEnv(run func(ctx context.Context, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()
		defer e.logger.Sync()
		return run(cmd.Context(), e, args)
	}
}

func main() {
	rootCmd.AddCommand(setRoleCmd, listUsersCmd, setStatusCmd, exportCmd, devTokenCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

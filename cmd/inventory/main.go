package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/motorlot/inventory/internal/inventory"
	"github.com/motorlot/inventory/internal/media"
	"github.com/motorlot/inventory/pkg/cache"
	"github.com/motorlot/inventory/pkg/config"
	"github.com/motorlot/inventory/pkg/database"
	apperrors "github.com/motorlot/inventory/pkg/errors"
	"github.com/motorlot/inventory/pkg/eventbus"
	"github.com/motorlot/inventory/pkg/logger"
	"github.com/motorlot/inventory/pkg/redis"
)

func main() {
	cfg, err := config.Load("inventory")
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := apperrors.InitSentry(&cfg.Sentry, cfg.Server.ServiceName); err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer apperrors.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := inventory.Deps{Bus: eventbus.New()}

	if cfg.Inventory.Mode == config.ModeLive {
		pool, err := database.NewPostgresPool(&cfg.Database)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer database.Close(pool)

		if err := database.RunMigrations(&cfg.Database); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
		deps.Pool = pool

		if cfg.Redis.Enabled {
			redisClient, err := redis.NewClient(&cfg.Redis)
			if err != nil {
				logger.Warn("redis unavailable, running without cache", zap.Error(err))
			} else {
				defer redisClient.Close()
				deps.Cache = cache.NewManager(redisClient.Client)
			}
		}

		uploader, err := media.NewS3Uploader(ctx, cfg.Storage)
		if err != nil {
			logger.Fatal("object storage init failed", zap.Error(err))
		}
		deps.Uploader = media.NewResilientUploader(uploader)
	}

	repo, err := inventory.New(cfg.Inventory, deps)
	if err != nil {
		logger.Fatal("repository init failed", zap.Error(err))
	}

	log := logger.With(zap.String("dealerId", cfg.Inventory.DealerID))

	unsubscribe := repo.OnVehicleChange(func(e eventbus.Event) {
		log.Debug("inventory changed",
			zap.String("action", string(e.Action)),
			zap.String("vehicleId", e.VehicleID),
		)
	})
	defer unsubscribe()

	if cfg.Inventory.SeedDemo {
		seeded := repo.InitializeDemoVehicles(ctx)
		if !seeded.Success {
			log.Warn("demo seeding failed", zap.String("error", seeded.Error))
		}
	}

	log.Info("inventory service ready", zap.String("mode", string(cfg.Inventory.Mode)))

	<-ctx.Done()
	log.Info("shutting down")
}

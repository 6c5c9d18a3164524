package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mesmerism/api/internal/api"
	"github.com/mesmerism/api/internal/config"
	"github.com/mesmerism/api/internal/db"
	"github.com/mesmerism/api/internal/logger"
	"github.com/mesmerism/api/internal/storage"
)

// weekSchedulerInterval is how often week activation windows are re-checked.
const weekSchedulerInterval = time.Minute

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	uploader, err := storage.NewS3Uploader(storage.S3UploaderConfig{
		Endpoint:        conf.Storage.Endpoint,
		Region:          conf.Storage.Region,
		AccessKeyID:     conf.Storage.AccessKeyID,
		SecretAccessKey: conf.Storage.SecretAccessKey,
		BucketName:      conf.Storage.BucketName,
		PublicBaseURL:   conf.Storage.PublicBaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage -> %w", err)
	}

	s := api.NewServer(conf, postgresDB, uploader)

	go s.Hub.Run()
	go runWeekScheduler(s)

	addr := ":" + s.Config.API.Port
	zap.L().Info(fmt.Sprintf("starting server at %v", addr))
	if err = s.Router.Run(addr); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	return nil
}

// runWeekScheduler flips week activation flags as their date windows open and
// close, so voting state follows the calendar without manual toggling.
func runWeekScheduler(s *api.Server) {
	ticker := time.NewTicker(weekSchedulerInterval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := s.WeekService.AutoUpdateWeekStatusesByDates(ctx); err != nil {
			zap.L().Error("week scheduler pass failed", zap.Error(err))
		}
		cancel()
	}
}

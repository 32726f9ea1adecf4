// cmd/server/main.go
package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kmrl/metrodocs/internal/config"
	"github.com/kmrl/metrodocs/internal/database"
	"github.com/kmrl/metrodocs/internal/logging"
	"github.com/kmrl/metrodocs/internal/models"
	"github.com/kmrl/metrodocs/internal/router"
	"github.com/kmrl/metrodocs/internal/server"
	"github.com/kmrl/metrodocs/internal/services"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Error("Account server exited")
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred cleanup always happens.
func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Setup(cfg.Log)

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db, &models.User{}); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Bring over accounts from the JSON users file on first start
	outcomes, err := services.NewUserStore(db).ImportLegacy(cfg.LegacyUsersFile)
	if err != nil {
		logrus.WithError(err).Error("Legacy user import failed")
	}
	imported := 0
	for _, o := range outcomes {
		if o.Imported {
			imported++
		}
	}
	if len(outcomes) > 0 {
		logrus.WithFields(logrus.Fields{
			"imported": imported,
			"skipped":  len(outcomes) - imported,
			"file":     cfg.LegacyUsersFile,
		}).Info("Legacy users imported")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.InitializeAuth(db, cfg)

	return server.Run(server.New(cfg.Server, r))
}

// cmd/docmanager/main.go
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
		logrus.WithError(err).Error("Document manager exited")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Setup(cfg.Log)

	db, err := database.Initialize(cfg.Documents.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db, &models.Document{}); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	storage, err := services.NewDocumentStorage(cfg)
	if err != nil {
		return fmt.Errorf("initialize document storage: %w", err)
	}
	logrus.WithField("backend", cfg.Documents.Storage).Info("Document storage ready")

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.InitializeDocuments(db, cfg, storage)

	return server.Run(server.New(cfg.Documents.Server, r))
}

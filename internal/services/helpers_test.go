// internal/services/helpers_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kmrl/metrodocs/internal/config"
	"github.com/kmrl/metrodocs/internal/database"
	"github.com/kmrl/metrodocs/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Initialize(config.DatabaseConfig{
		Driver:   config.DriverSQLite,
		Path:     ":memory:",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db, &models.User{}, &models.Document{}))
	t.Cleanup(func() { database.Close(db) })
	return db
}

type fakeSession struct {
	username string
	cleared  bool
}

func (s *fakeSession) Username() (string, bool) {
	return s.username, s.username != ""
}

func (s *fakeSession) Establish(username string) error {
	s.username = username
	return nil
}

func (s *fakeSession) Clear() {
	s.username = ""
	s.cleared = true
}

func requireKind(t *testing.T, err error, kind ErrorKind, message string) {
	t.Helper()

	require.Error(t, err)
	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	require.Equal(t, kind, serviceErr.Kind)
	if message != "" {
		require.Equal(t, message, serviceErr.Message)
	}
}

// cmd/docmanager/main_test.go
package main

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsServerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("ENVIRONMENT", "test")
	dir := t.TempDir()
	t.Setenv("DOCS_DB_DRIVER", "sqlite")
	t.Setenv("DOCS_DB_PATH", filepath.Join(dir, "documents.db"))
	t.Setenv("DOCS_UPLOAD_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("DOCS_STORAGE", "local")
	t.Setenv("LOG_LEVEL", "error")

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	_, port, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	t.Setenv("DOCS_SERVER_HOST", "127.0.0.1")
	t.Setenv("DOCS_SERVER_PORT", port)

	err = run()
	assert.ErrorContains(t, err, "server failed")
}

func TestRunReturnsConfigErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("DOCS_DB_DRIVER", "sqlite")
	t.Setenv("DOCS_DB_PATH", filepath.Join(t.TempDir(), "documents.db"))
	t.Setenv("DOCS_STORAGE", "ftp")

	err := run()
	assert.ErrorContains(t, err, "load configuration")
}

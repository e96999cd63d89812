// Package testutils holds helpers shared by integration tests that need a
// live SurrealDB instance.
package testutils

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/nfrund/roomchat/internal/config"
)

// ConfigForTests loads .env.test from the project root into the test's
// environment and returns the resulting config. The test is skipped in
// short mode or when no database is configured.
func ConfigForTests(t *testing.T) *config.Config {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	if root, ok := projectRoot(); ok {
		env, err := godotenv.Read(filepath.Join(root, ".env.test"))
		if err == nil {
			for key, value := range env {
				t.Setenv(key, value)
			}
		}
	}

	if os.Getenv("SURREAL_URL") == "" {
		t.Skip("SURREAL_URL not set; create .env.test to run integration tests")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		t.Fatalf("invalid test configuration: %v", err)
	}
	return cfg
}

// UniqueEmail returns an address that will not collide with earlier runs.
func UniqueEmail() string {
	return fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8])
}

// UniqueID returns prefix followed by a short random suffix.
func UniqueID(prefix string) string {
	return prefix + uuid.NewString()[:8]
}

func projectRoot() (string, bool) {
	path, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
			return path, true
		}
		parent := filepath.Dir(path)
		if parent == path {
			return "", false
		}
		path = parent
	}
}

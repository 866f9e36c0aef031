package e2e_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	pgContainer *pgcontainer.PostgresContainer
	pgDSN       string
	pgDSNErr    error
	pgOnce      sync.Once
)

// terminatePostgres stops the shared container if one was started.
func terminatePostgres() {
	if pgContainer != nil {
		_ = testcontainers.TerminateContainer(pgContainer)
	}
}

// getSharedPostgresDSN returns a shared PostgreSQL database for E2E tests.
// The container is reused across all tests for performance; each test gets
// its own table.
func getSharedPostgresDSN(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres e2e tests in short mode")
	}

	pgOnce.Do(func() {
		ctx := context.Background()

		container, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			pgDSNErr = fmt.Errorf("start postgres container: %w", err)
			return
		}
		pgContainer = container

		pgDSN, pgDSNErr = container.ConnectionString(ctx, "sslmode=disable")
	})

	if pgDSNErr != nil {
		t.Fatalf("postgres unavailable: %v", pgDSNErr)
	}

	return pgDSN
}

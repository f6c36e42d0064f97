// Package dbtest opens isolated in-memory sqlite databases carrying the full
// schema, for repository and workflow tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/angelmondragon/rugstore-backend/pkg/config"
	"github.com/angelmondragon/rugstore-backend/pkg/db"
	"github.com/angelmondragon/rugstore-backend/pkg/migrate"
	"github.com/google/uuid"
)

// Open returns a client backed by a fresh sqlite database with foreign keys
// enforced. A single connection is used so concurrent transactions serialize
// instead of failing with "database table is locked".
func Open(t testing.TB) *db.Client {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := config.DBConfig{
		Driver:       config.DBDriverSQLite,
		DSN:          fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_busy_timeout=5000&_foreign_keys=1", name, uuid.NewString()),
		MaxOpenConns: 1,
	}

	client, err := db.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migrate.ApplySQLiteSchema(context.Background(), client.DB()); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

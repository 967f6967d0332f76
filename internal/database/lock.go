package database

import (
	"context"
	"hash/fnv"

	"rentloop/internal/config"
	"rentloop/internal/middleware"

	"github.com/jackc/pgx/v5"
)

// schemaLockName is hashed into the advisory lock key so unrelated
// applications sharing the database do not collide.
const schemaLockName = "rentloop:schema"

func schemaLockKey() int64 {
	h := fnv.New64a()
	h.Write([]byte(schemaLockName))
	return int64(h.Sum64())
}

// AcquireSchemaLock takes a session-scoped PostgreSQL advisory lock over a
// dedicated pgx connection. The returned function releases the lock and
// closes the connection. For non-postgres targets (tests on sqlite) it is a
// no-op: the lock connection simply fails to open and we proceed unlocked.
func AcquireSchemaLock(ctx context.Context, cfg *config.Config) (func(), error) {
	conn, err := pgx.Connect(ctx, DSN(cfg))
	if err != nil {
		middleware.Logger.Warn("Schema advisory lock unavailable, proceeding without it")
		return func() {}, nil
	}

	key := schemaLockKey()
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", key); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}

	return func() {
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", key); err != nil {
			middleware.Logger.Warn("Failed to release schema advisory lock")
		}
		_ = conn.Close(ctx)
	}, nil
}

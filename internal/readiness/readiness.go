// Package readiness implements ORIGIN's readiness check (C13): database
// reachability, migrations-at-head, cache reachability, blob bucket
// existence, and — outside development — the signer's ability to
// produce its public key (spec.md §4.13).
package readiness

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/originhq/origin/internal/blobstore"
	"github.com/originhq/origin/internal/platform"
	"github.com/originhq/origin/internal/signer"
)

// Check is the pass/fail result of a single readiness dependency.
type Check struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Checker runs every readiness dependency check.
type Checker struct {
	db            *pgxpool.Pool
	redis         *redis.Client
	blobs         blobstore.Store
	signer        signer.Signer
	databaseURL   string
	migrationsDir string
	checkSigner   bool
	logger        *slog.Logger
}

func New(db *pgxpool.Pool, rdb *redis.Client, blobs blobstore.Store, sgn signer.Signer, databaseURL, migrationsDir string, checkSigner bool, logger *slog.Logger) *Checker {
	return &Checker{
		db: db, redis: rdb, blobs: blobs, signer: sgn,
		databaseURL: databaseURL, migrationsDir: migrationsDir,
		checkSigner: checkSigner, logger: logger,
	}
}

// Check runs every dependency check and reports whether all of them
// passed, alongside the per-check detail spec.md §4.13 requires on
// failure.
func (c *Checker) Check(ctx context.Context) (bool, []Check) {
	checks := []Check{
		c.checkDatabase(ctx),
		c.checkMigrations(),
		c.checkCache(ctx),
		c.checkBlobBucket(ctx),
	}
	if c.checkSigner {
		checks = append(checks, c.checkSignerJWKS(ctx))
	}

	ok := true
	for _, chk := range checks {
		if !chk.OK {
			ok = false
		}
	}
	return ok, checks
}

func (c *Checker) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var one int
	if err := c.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return Check{Name: "database", OK: false, Error: err.Error()}
	}
	return Check{Name: "database", OK: true}
}

func (c *Checker) checkMigrations() Check {
	atHead, err := platform.MigrationsAtHead(c.databaseURL, c.migrationsDir)
	if err != nil {
		return Check{Name: "migrations", OK: false, Error: err.Error()}
	}
	return Check{Name: "migrations", OK: atHead}
}

func (c *Checker) checkCache(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := c.redis.Ping(ctx).Err(); err != nil {
		return Check{Name: "cache", OK: false, Error: err.Error()}
	}
	return Check{Name: "cache", OK: true}
}

func (c *Checker) checkBlobBucket(ctx context.Context) Check {
	exists, err := c.blobs.BucketExists(ctx)
	if err != nil {
		return Check{Name: "blob_store", OK: false, Error: err.Error()}
	}
	if !exists {
		return Check{Name: "blob_store", OK: false, Error: "bucket does not exist"}
	}
	return Check{Name: "blob_store", OK: true}
}

func (c *Checker) checkSignerJWKS(ctx context.Context) Check {
	if _, err := c.signer.PublicJWKS(ctx); err != nil {
		return Check{Name: "signer", OK: false, Error: err.Error()}
	}
	return Check{Name: "signer", OK: true}
}

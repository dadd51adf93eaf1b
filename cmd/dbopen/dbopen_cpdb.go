// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package dbopen

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardinalhq/contentpush/cpdb"
	cpdbmigrations "github.com/cardinalhq/contentpush/cpdb/migrations"
)

// Options configures database connection behavior.
type Options struct {
	// SkipMigrationCheck skips the schema version comparison. Used by the
	// migrate command, which exists to fix exactly that mismatch.
	SkipMigrationCheck bool
}

// ConnectToCPDB opens a pool to the export database configured by the
// CPDB_* environment variables and verifies the schema is current.
func ConnectToCPDB(ctx context.Context, opts ...Options) (*pgxpool.Pool, error) {
	connectionString, err := getDatabaseURLFromEnv("CPDB")
	if err != nil {
		return nil, errors.Join(ErrDatabaseNotConfigured, fmt.Errorf("failed to get CPDB connection string: %w", err))
	}

	pool, err := cpdb.NewConnectionPool(ctx, connectionString)
	if err != nil {
		return nil, err
	}

	skipMigrationCheck := false
	if len(opts) > 0 {
		skipMigrationCheck = opts[0].SkipMigrationCheck
	}

	if !skipMigrationCheck {
		if err := cpdbmigrations.CheckExpectedVersion(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("CPDB migration version check failed: %w", err)
		}
	}

	return pool, nil
}

// CPDBStore opens the export database and wraps it in a store.
func CPDBStore(ctx context.Context, opts ...Options) (*cpdb.Store, error) {
	pool, err := ConnectToCPDB(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return cpdb.NewStore(pool), nil
}

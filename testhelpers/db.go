//go:build integration

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

package testhelpers

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardinalhq/contentpush/cpdb"
	cpdbmigrations "github.com/cardinalhq/contentpush/cpdb/migrations"
)

// SetupTestCPDB creates a clean test database with migrations applied.
// Returns a connection pool and registers cleanup with t.Cleanup.
func SetupTestCPDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	dbName := fmt.Sprintf("test_cpdb_%d_%d", time.Now().Unix(), rand.Intn(10000))

	host := getEnvOrDefault("CPDB_HOST", "localhost")
	port := getEnvOrDefault("CPDB_PORT", "5432")
	user := getEnvOrDefault("CPDB_USER", os.Getenv("USER"))
	baseDB := getEnvOrDefault("CPDB_DBNAME", "testing_cpdb")

	password := os.Getenv("CPDB_PASSWORD")
	var baseConnStr string
	if password != "" {
		baseConnStr = fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, baseDB)
	} else {
		baseConnStr = fmt.Sprintf("postgresql://%s@%s:%s/%s", user, host, port, baseDB)
	}
	basePool, err := pgxpool.New(ctx, baseConnStr)
	if err != nil {
		t.Fatalf("Failed to connect to base database: %v", err)
	}

	_, err = basePool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", dbName))
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}

	var testConnStr string
	if password != "" {
		testConnStr = fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbName)
	} else {
		testConnStr = fmt.Sprintf("postgresql://%s@%s:%s/%s", user, host, port, dbName)
	}
	testPool, err := pgxpool.New(ctx, testConnStr)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	err = cpdbmigrations.RunMigrationsUp(ctx, testPool)
	if err != nil {
		testPool.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		testPool.Close()

		_, err := basePool.Exec(context.Background(), fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName))
		if err != nil {
			slog.Error("Failed to drop test database", slog.String("dbName", dbName), slog.Any("error", err))
		}

		basePool.Close()
	})

	return testPool
}

// NewTestStore creates a cpdb store connected to a fresh test database.
func NewTestStore(t *testing.T) *cpdb.Store {
	pool := SetupTestCPDB(t)
	store := cpdb.NewStore(pool)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

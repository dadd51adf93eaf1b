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

package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/contentpush/cmd/dbopen"
	cpdbmigrations "github.com/cardinalhq/contentpush/cpdb/migrations"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  "Bring the export database schema up to the version this binary expects",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(5*time.Minute))
		defer cancel()

		pool, err := dbopen.ConnectToCPDB(ctx, dbopen.Options{SkipMigrationCheck: true})
		if err != nil {
			return err
		}
		defer pool.Close()

		slog.Info("Running cpdb migrations")
		if err := cpdbmigrations.RunMigrationsUp(context.Background(), pool); err != nil {
			return err
		}
		slog.Info("cpdb migrations completed successfully")
		return nil
	},
}

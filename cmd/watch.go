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
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

var watchInterval time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 30*time.Second, "Delay between drain passes")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Drain the export queue on an interval",
	Long:  "Run drain passes until interrupted. Transport failures requeue their items, so this loop is also the retry scheduler.",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cleanup, err := setupApp("watch")
		if err != nil {
			return err
		}
		defer cleanup()

		p, err := newPipeline(ctx)
		if err != nil {
			return err
		}
		defer p.close()

		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		for {
			summary, err := p.exporter.DrainQueue(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				slog.Error("drain pass failed", slog.Any("error", err))
			}
			if summary.Processed+summary.Requeued+summary.Skipped > 0 {
				slog.Info("drain pass complete",
					slog.Int("processed", summary.Processed),
					slog.Int("requeued", summary.Requeued),
					slog.Int("skipped", summary.Skipped))
			}

			select {
			case <-ctx.Done():
				slog.Info("shutting down")
				return nil
			case <-ticker.C:
			}
		}
	},
}

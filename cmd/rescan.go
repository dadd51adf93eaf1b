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
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/contentpush/internal/rescan"
)

var rescanSync bool

func init() {
	rescanCmd.Flags().BoolVar(&rescanSync, "sync", false, "Drain the queue immediately after enqueueing")
	rootCmd.AddCommand(rescanCmd)
}

var rescanCmd = &cobra.Command{
	Use:   "rescan",
	Short: "Rebuild the export queue from the configured entity map",
	Long:  "Purge the export queue and refill it with every exportable entity. With --sync, drain the queue in the same run.",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cleanup, err := setupApp("rescan")
		if err != nil {
			return err
		}
		defer cleanup()

		p, err := newPipeline(ctx)
		if err != nil {
			return err
		}
		defer p.close()

		orch := rescan.New(slog.Default(), p.store, p.source, p.cfg.Entities, p.cfg.Queue.BulkMaxSize)
		stats, err := orch.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %d entities in %d queue items (%d skipped, %d stale purged)\n",
			stats.Entities, stats.Items, stats.Skipped, stats.Purged)

		if rescanSync {
			summary, err := p.exporter.DrainQueue(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("drained queue: %d processed, %d requeued, %d skipped\n",
				summary.Processed, summary.Requeued, summary.Skipped)
		}
		return nil
	},
}

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

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(processQueueCmd)
}

var processQueueCmd = &cobra.Command{
	Use:   "process-queue",
	Short: "Drain the export queue once",
	Long:  "Process every item currently in the export queue, then exit. Items requeued by transport failures are left for the next run.",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cleanup, err := setupApp("process-queue")
		if err != nil {
			return err
		}
		defer cleanup()

		p, err := newPipeline(ctx)
		if err != nil {
			return err
		}
		defer p.close()

		summary, err := p.exporter.DrainQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("processed %d, requeued %d, skipped %d\n",
			summary.Processed, summary.Requeued, summary.Skipped)
		return nil
	},
}

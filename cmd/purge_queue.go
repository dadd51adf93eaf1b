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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/contentpush/cmd/dbopen"
)

func init() {
	rootCmd.AddCommand(purgeQueueCmd)
}

var purgeQueueCmd = &cobra.Command{
	Use:   "purge-queue",
	Short: "Delete every item in the export queue",
	Long:  "Delete all export queue items, claimed or not. Tracking records are untouched.",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()
		store, err := dbopen.CPDBStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		depth, err := store.QueueDepth(ctx)
		if err != nil {
			return err
		}
		if err := store.QueuePurge(ctx); err != nil {
			return err
		}
		fmt.Printf("purged %d queue items\n", depth)
		return nil
	},
}

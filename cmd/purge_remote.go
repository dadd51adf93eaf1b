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
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/contentpush/config"
	"github.com/cardinalhq/contentpush/internal/perzapi"
)

var (
	purgeRemoteAll bool
	purgeRemoteYes bool
)

func init() {
	purgeRemoteCmd.Flags().BoolVar(&purgeRemoteAll, "all", false, "Delete the whole account's content, not just this site's origin")
	purgeRemoteCmd.Flags().BoolVar(&purgeRemoteYes, "yes", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(purgeRemoteCmd)
}

var purgeRemoteCmd = &cobra.Command{
	Use:   "purge-remote",
	Short: "Delete exported content from the personalization service",
	Long:  "Delete this site's variations from the personalization service. With --all, delete everything in the account regardless of origin.",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cleanup, err := setupApp("purge-remote")
		if err != nil {
			return err
		}
		defer cleanup()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		scope := fmt.Sprintf("origin %s", cfg.Site.SiteHash)
		if purgeRemoteAll {
			scope = fmt.Sprintf("ALL origins in account %s", cfg.Site.AccountID)
		}
		if !purgeRemoteYes {
			fmt.Printf("This permanently deletes %s from the personalization service. Continue? [y/N]: ", scope)
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			answer = strings.ToLower(strings.TrimSpace(answer))
			if answer != "y" && answer != "yes" {
				fmt.Println("aborted")
				return nil
			}
		}

		criteria := perzapi.DeleteCriteria{
			AccountID:   cfg.Site.AccountID,
			Environment: cfg.Site.Environment,
		}
		if !purgeRemoteAll {
			criteria.Origin = cfg.Site.SiteHash
		}

		client := perzapi.NewClient(cfg.API)
		if err := client.DeleteEntities(ctx, criteria); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", scope)
		return nil
	},
}

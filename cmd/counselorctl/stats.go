package main

import (
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmstudyabroad/counselor-bot/internal/storage"
)

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print how often each topic answered a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			db, err := storage.New(cmd.Context(), cfg.SQLitePath(), cfg.ProfileCacheTTL)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			stats, err := db.TopicStats(cmd.Context())
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				printf(cmd.OutOrStdout(), "No replies recorded yet.\n")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			printf(tw, "ENTRY\tSOURCE\tCOUNT\tLAST SEEN\n")
			for _, s := range stats {
				entry := s.EntryID
				if entry == "" {
					entry = "-"
				}
				printf(tw, "%s\t%s\t%d\t%s\n", entry, s.Source, s.Count, time.Unix(s.LastSeenAt, 0).UTC().Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

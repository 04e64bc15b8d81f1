package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"featurelab/adapters/sqlstore"
	"featurelab/internal/config"
	"featurelab/internal/migration"

	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded clustering runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := sqlstore.Open(ctx, cfg.Database.Driver(), cfg.Database.DSN())
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migration.NewRunner().Run(ctx, db); err != nil {
				return err
			}

			records, err := sqlstore.NewRunRepository(db).List(ctx, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "id\tcreated\tdataset\trows\talgorithm\tclusters\tnoise")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\t%d\n",
					r.ID, r.CreatedAt.Format(time.RFC3339), r.Dataset, r.RowCount, r.Algorithm, r.Clusters, r.NoiseCount)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}

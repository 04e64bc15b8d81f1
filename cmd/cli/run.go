package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"featurelab/adapters/excel"
	"featurelab/adapters/sqlstore"
	"featurelab/domain/core"
	"featurelab/domain/dataset"
	"featurelab/domain/run"
	"featurelab/internal/migration"
	"featurelab/internal/pipeline"
	"featurelab/internal/pipelinefile"

	"github.com/spf13/cobra"
)

// batchResult is everything one batch run produces
type batchResult struct {
	Table     *dataset.Table
	Processed *pipeline.Processed
	Cluster   *pipeline.ClusterResult
	Plot      *pipeline.PlotResult
	Dropped   int
}

// runBatch loads a dataset and runs selection, processing, clustering and the optional
// plot projection described by the pipeline file
func runBatch(dataPath string, pf *pipelinefile.File, opts pipeline.Options) (*batchResult, error) {
	table, loaded, err := excel.ReadFile(dataPath, excel.DefaultReaderConfig())
	if err != nil {
		return nil, err
	}
	sel, err := pf.ApplySelection(pipeline.InferSelection(table))
	if err != nil {
		return nil, err
	}
	processed, err := pipeline.Process(table, sel)
	if err != nil {
		return nil, err
	}
	opts = pf.Options(opts)
	clustered, err := pipeline.Cluster(&processed.Table, pf.Cluster, opts)
	if err != nil {
		return nil, err
	}

	out := &batchResult{Table: table, Processed: processed, Cluster: clustered, Dropped: loaded.DroppedRows}
	if pf.Plot != nil {
		if out.Plot, err = pipeline.PlotData(&clustered.Table, *pf.Plot, opts); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// writeTable writes t as XLSX when path ends in .xlsx, CSV otherwise; "-" is stdout
func writeTable(path string, t *dataset.Table, stdout io.Writer) error {
	if path == "" || path == "-" {
		return excel.WriteCSV(stdout, t)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return excel.WriteXLSX(f, t)
	}
	return excel.WriteCSV(f, t)
}

func newRunCmd() *cobra.Command {
	var dataPath, configPath, outPath, plotPath string
	var record bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process and cluster a dataset, writing the clustered table",
		Long: `Run the full pipeline over one dataset file.

Example: featurelab-cli run --data people.csv --config pipeline.yaml --out clustered.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pf := pipelinefile.Default()
			if configPath != "" {
				var err error
				if pf, err = pipelinefile.Load(configPath); err != nil {
					return err
				}
			}
			opts, cfg, err := pipelineOptions()
			if err != nil {
				return err
			}

			result, err := runBatch(dataPath, pf, opts)
			if err != nil {
				return err
			}
			if err := writeTable(outPath, &result.Cluster.Table, cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("write clustered table: %w", err)
			}
			if result.Plot != nil && plotPath != "" {
				if err := writeTable(plotPath, &result.Plot.Table, cmd.OutOrStdout()); err != nil {
					return fmt.Errorf("write plot data: %w", err)
				}
			}

			report := cmd.ErrOrStderr()
			if outPath != "" && outPath != "-" {
				report = cmd.OutOrStdout()
			}
			fmt.Fprintf(report, "Loaded %d rows (%d dropped) from %s\n", result.Table.Rows(), result.Dropped, dataPath)
			fmt.Fprintln(report, result.Cluster.Report.Markdown())

			if record {
				seed := pf.Options(opts).Seed
				rec := &run.Record{
					ID:           core.NewID(),
					Dataset:      filepath.Base(dataPath),
					RowCount:     result.Cluster.Table.Rows(),
					FeatureCount: len(result.Processed.Table.Columns),
					Reduction:    string(result.Cluster.Reduction.Algorithm),
					Components:   result.Cluster.Reduction.Components,
					Algorithm:    string(pf.Cluster.Algorithm),
					Clusters:     result.Cluster.Clusters,
					NoiseCount:   result.Cluster.NoiseCount,
					Seed:         seed,
					Fingerprint:  run.Fingerprint(filepath.Base(dataPath), result.Processed.Table.Rows(), seed, pf.Cluster),
					Messages:     result.Cluster.Report.Messages,
				}
				if rec.Algorithm == "" {
					rec.Algorithm = string(pipeline.ClusterKMeans)
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
				if err := sqlstore.NewRunRepository(db).Create(ctx, rec); err != nil {
					return err
				}
				fmt.Fprintf(report, "Recorded run %s\n", rec.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "dataset file (csv, xlsx, json, txt)")
	cmd.Flags().StringVar(&configPath, "config", "", "pipeline definition (yaml or json)")
	cmd.Flags().StringVar(&outPath, "out", "-", "clustered table output (.csv or .xlsx, - for stdout)")
	cmd.Flags().StringVar(&plotPath, "plot-out", "", "plot points output when the definition has a plot section")
	cmd.Flags().BoolVar(&record, "record", false, "store the run in the configured run history")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newInitCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default pipeline definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipelinefile.Save(pipelinefile.Default(), outPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "pipeline.yaml", "output path")
	return cmd
}

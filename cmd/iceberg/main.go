package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/parquet-go/parquet-go"
	"github.com/spf13/cobra"

	"github.com/Parth-Brahmbhatt/iceberg/pkg/parquetread"
	"github.com/Parth-Brahmbhatt/iceberg/pkg/schema"
	"github.com/Parth-Brahmbhatt/iceberg/pkg/table"
)

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	root := &cobra.Command{
		Use:           "iceberg",
		Short:         "Inspect tables stored as immutable columnar files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(schemaCommand(), dumpCommand(), manifestCommand(logger))

	if err := root.Execute(); err != nil {
		level.Error(logger).Log("err", err)
		os.Exit(1)
	}
}

func schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <file.parquet>",
		Short: "Print the logical schema of a parquet file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, closer, err := openParquet(args[0])
			if err != nil {
				return err
			}
			defer closer.Close()

			sc, err := schema.FromParquet(pf.Schema())
			if err != nil {
				return err
			}
			for _, f := range sc.Fields() {
				fmt.Fprintln(cmd.OutOrStdout(), f.String())
			}
			return nil
		},
	}
}

func dumpCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "dump <file.parquet>",
		Short: "Stream the records of a parquet file as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, closer, err := openParquet(args[0])
			if err != nil {
				return err
			}
			defer closer.Close()

			sc, err := schema.FromParquet(pf.Schema())
			if err != nil {
				return err
			}
			reader, err := parquetread.NewRecordReader(sc, pf.Schema())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			printed := 0
			for _, rg := range pf.RowGroups() {
				reader.SetPageSource(parquetread.RowGroupSource(rg))
				for i, n := int64(0), rg.NumRows(); i < n; i++ {
					if limit > 0 && printed >= limit {
						return nil
					}
					rec, err := reader.Read()
					if err != nil {
						return err
					}
					if err := enc.Encode(rec.ToMap()); err != nil {
						return err
					}
					printed++
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many records (0 = all)")
	return cmd
}

func manifestCommand(logger log.Logger) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "manifest <dir>",
		Short: "Write a manifest listing the parquet files of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			entries, err := os.ReadDir(dir)
			if err != nil {
				return err
			}

			var files []table.DataFile
			for _, e := range entries {
				if e.IsDir() || filepath.Ext(e.Name()) != ".parquet" {
					continue
				}
				path := filepath.Join(dir, e.Name())
				pf, closer, err := openParquet(path)
				if err != nil {
					return err
				}
				fi, statErr := os.Stat(path)
				if statErr != nil {
					closer.Close()
					return statErr
				}
				files = append(files, table.DataFile{
					Path:        path,
					Format:      "parquet",
					RecordCount: pf.NumRows(),
					SizeBytes:   fi.Size(),
				})
				closer.Close()
			}
			sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

			if out == "" {
				out = filepath.Join(dir, "manifest.snappy")
			}
			m := table.NewManifest(files)
			if err := table.WriteManifest(out, m); err != nil {
				return err
			}
			level.Info(logger).Log("msg", "wrote manifest", "path", out, "id", m.ID, "files", len(files))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Manifest output path (default <dir>/manifest.snappy)")
	return cmd
}

func openParquet(path string) (*parquet.File, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	pf, err := parquet.OpenFile(f, fi.Size(),
		parquet.SkipBloomFilters(true),
		parquet.SkipPageIndex(true),
	)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return pf, f, nil
}

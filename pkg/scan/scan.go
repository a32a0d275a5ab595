package scan

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/parquet-go/parquet-go"
	"golang.org/x/sync/errgroup"

	"github.com/Parth-Brahmbhatt/iceberg/pkg/parquetread"
	"github.com/Parth-Brahmbhatt/iceberg/pkg/schema"
	"github.com/Parth-Brahmbhatt/iceberg/pkg/table"
	"github.com/Parth-Brahmbhatt/iceberg/pkg/util"
)

// Scanner plans and executes one table scan. Planning fans out manifest
// reads across the shared worker pool; the whole planning operation itself
// occupies a slot on the planner pool. Record assembly stays single
// threaded: the scanner owns its reader tree exclusively.
type Scanner struct {
	table      *table.Table
	projection *schema.Schema
	logger     log.Logger
	metrics    *Metrics
	planner    *util.Pool
	workers    *util.Pool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithProjection restricts the scan to a schema projection. Defaults to the
// table's full schema.
func WithProjection(sc *schema.Schema) Option {
	return func(s *Scanner) { s.projection = sc }
}

func WithLogger(logger log.Logger) Option {
	return func(s *Scanner) { s.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// WithPools overrides the process-wide pools, typically in tests.
func WithPools(planner, workers *util.Pool) Option {
	return func(s *Scanner) {
		s.planner = planner
		s.workers = workers
	}
}

// New builds a scanner over the table.
func New(t *table.Table, opts ...Option) *Scanner {
	s := &Scanner{
		table:      t,
		projection: t.Schema,
		logger:     log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.planner == nil {
		s.planner = util.PlannerPool()
	}
	if s.workers == nil {
		s.workers = util.WorkerPool()
	}
	return s
}

// PlanFiles reads every manifest of the table and returns the data files to
// scan, in manifest order. Manifest reads run concurrently on the worker
// pool; the call itself holds one planner pool slot.
func (s *Scanner) PlanFiles(ctx context.Context) ([]table.DataFile, error) {
	var files []table.DataFile
	err := s.planner.Run(ctx, func() error {
		start := time.Now()
		planned, err := s.planFiles(ctx)
		if err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.PlanDuration.Observe(time.Since(start).Seconds())
			s.metrics.FilesPlanned.Add(float64(len(planned)))
		}
		files = planned
		return nil
	})
	return files, err
}

func (s *Scanner) planFiles(ctx context.Context) ([]table.DataFile, error) {
	manifests := s.table.ManifestPaths
	perManifest := make([][]table.DataFile, len(manifests))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range manifests {
		i, path := i, path
		g.Go(func() error {
			return s.workers.Run(ctx, func() error {
				m, err := table.ReadManifest(path)
				if err != nil {
					return err
				}
				if s.metrics != nil {
					s.metrics.ManifestsRead.Inc()
				}
				perManifest[i] = m.DataFiles
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var files []table.DataFile
	for _, fs := range perManifest {
		files = append(files, fs...)
	}
	level.Debug(s.logger).Log("msg", "planned scan", "manifests", len(manifests), "files", len(files))
	return files, nil
}

// Records plans the scan and streams every record to fn, file by file and
// row group by row group, in physical storage order. fn returning an error
// stops the scan.
func (s *Scanner) Records(ctx context.Context, fn func(parquetread.Record) error) error {
	files, err := s.PlanFiles(ctx)
	if err != nil {
		return fmt.Errorf("plan scan: %w", err)
	}

	for _, df := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.readFile(ctx, df, fn); err != nil {
			return fmt.Errorf("read %s: %w", df.Path, err)
		}
	}
	return nil
}

func (s *Scanner) readFile(ctx context.Context, df table.DataFile, fn func(parquetread.Record) error) error {
	f, err := os.Open(df.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}
	pf, err := parquet.OpenFile(f, fi.Size(),
		parquet.SkipBloomFilters(true),
		parquet.SkipPageIndex(true),
	)
	if err != nil {
		return fmt.Errorf("open parquet: %w", err)
	}

	reader, err := parquetread.NewRecordReader(s.projection, pf.Schema())
	if err != nil {
		return fmt.Errorf("build reader tree: %w", err)
	}

	for _, rg := range pf.RowGroups() {
		if err := ctx.Err(); err != nil {
			return err
		}
		reader.SetPageSource(parquetread.RowGroupSource(rg))
		if s.metrics != nil {
			s.metrics.RowGroupsRead.Inc()
		}
		for i, n := int64(0), rg.NumRows(); i < n; i++ {
			rec, err := reader.Read()
			if err != nil {
				return err
			}
			if s.metrics != nil {
				s.metrics.RecordsRead.Inc()
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
	}
	level.Debug(s.logger).Log("msg", "read data file", "path", df.Path, "records", df.RecordCount)
	return nil
}

package app

import (
	"context"
	"io"
	"slices"
	"strings"
	"time"

	"featurelab/adapters/excel"
	"featurelab/domain/core"
	"featurelab/domain/dataset"
	"featurelab/domain/run"
	"featurelab/internal"
	"featurelab/internal/errors"
	"featurelab/internal/pipeline"
	"featurelab/internal/session"
	"featurelab/ports"

	"golang.org/x/sync/semaphore"
)

var logger = internal.DefaultLogger.With("Workbench")

// ExportFormat selects the file format of a clustered table download
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// WorkbenchService drives the upload → select → process → cluster → plot flow for
// every session and records each clustering run in the run history.
type WorkbenchService struct {
	sessions    *session.Store
	runs        ports.RunRepository
	opts        pipeline.Options
	reader      excel.ReaderConfig
	maxFeatures int
	// sem bounds the number of processing, reduction and clustering runs executing at once
	sem     *semaphore.Weighted
	process func(*dataset.Table, pipeline.Selection) (*pipeline.Processed, error)
}

// WorkbenchConfig carries the limits and estimator settings of the service
type WorkbenchConfig struct {
	Options           pipeline.Options
	Reader            excel.ReaderConfig
	MaxFeatures       int
	MaxConcurrentRuns int
}

// ProcessResult is a processed table with its descriptive statistics
type ProcessResult struct {
	Processed  *pipeline.Processed
	Statistics []pipeline.ColumnStats
}

// ClusterOutcome is a clustering result and the run record stored for it
type ClusterOutcome struct {
	Result *pipeline.ClusterResult
	Run    *run.Record
}

// NewWorkbenchService creates the workbench service. runs may be nil, in which case
// run history is not recorded.
func NewWorkbenchService(sessions *session.Store, runs ports.RunRepository, cfg WorkbenchConfig) *WorkbenchService {
	limit := cfg.MaxConcurrentRuns
	if limit < 1 {
		limit = 1
	}
	return &WorkbenchService{
		sessions:    sessions,
		runs:        runs,
		opts:        cfg.Options,
		reader:      cfg.Reader,
		maxFeatures: cfg.MaxFeatures,
		sem:         semaphore.NewWeighted(int64(limit)),
		process:     pipeline.Process,
	}
}

// Upload parses a dataset file and opens a session over it with the inferred selection
func (s *WorkbenchService) Upload(ctx context.Context, filename string, src io.Reader) (session.Session, error) {
	reader, err := excel.NewDataReader(filename, s.reader)
	if err != nil {
		return session.Session{}, err
	}
	table, result, err := reader.ReadTable(src)
	if err != nil {
		return session.Session{}, errors.Wrapf(err, "failed to load %s", filename)
	}
	if s.maxFeatures > 0 && len(table.Columns) > s.maxFeatures {
		return session.Session{}, errors.Newf(errors.CodeValidationError,
			"dataset has %d features, at most %d are supported", len(table.Columns), s.maxFeatures)
	}

	sess := s.sessions.Create(filename, table, pipeline.InferSelection(table), result.DroppedRows)
	logger.Info("session %s: loaded %s (%d rows, %d features, %d rows dropped)",
		sess.ID, filename, table.Rows(), len(table.Columns), result.DroppedRows)
	return sess, nil
}

// Session returns the current state of a session
func (s *WorkbenchService) Session(id core.ID) (session.Session, error) {
	return s.sessions.Get(id)
}

// Sessions lists open sessions
func (s *WorkbenchService) Sessions() []session.Session {
	return s.sessions.List()
}

// CloseSession discards a session and everything derived from it
func (s *WorkbenchService) CloseSession(id core.ID) error {
	return s.sessions.Delete(id)
}

// ExpireSessions drops idle sessions and returns how many were removed
func (s *WorkbenchService) ExpireSessions() int {
	return s.sessions.Expire()
}

// EditSelection folds the edits into the session's selection. Earlier processing and
// clustering results no longer match the selection and are cleared.
func (s *WorkbenchService) EditSelection(id core.ID, edits []dataset.SelectionEdit) (pipeline.Selection, error) {
	sess, err := s.sessions.Update(id, func(sess *session.Session) error {
		next, err := sess.Selection.Apply(edits...)
		if err != nil {
			return err
		}
		sess.Selection = next
		sess.Processed = nil
		sess.Clustered = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess.Selection, nil
}

// SetWeights replaces every feature weight at once
func (s *WorkbenchService) SetWeights(id core.ID, weights []float64) (pipeline.Selection, error) {
	sess, err := s.sessions.Update(id, func(sess *session.Session) error {
		next, err := sess.Selection.SetWeights(weights)
		if err != nil {
			return err
		}
		sess.Selection = next
		sess.Processed = nil
		sess.Clustered = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess.Selection, nil
}

// Process encodes, weights and transforms the session's raw table under its selection.
// The work runs on a snapshot outside the session store lock and takes a run slot.
func (s *WorkbenchService) Process(ctx context.Context, id core.ID) (*ProcessResult, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	processed, err := s.process(sess.Raw, sess.Selection)
	if err != nil {
		return nil, err
	}
	stats, err := pipeline.Describe(&processed.Table)
	if err != nil {
		return nil, err
	}

	_, err = s.sessions.Update(id, func(next *session.Session) error {
		if next.Raw != sess.Raw || !slices.Equal(next.Selection, sess.Selection) {
			return errors.New(errors.CodeValidationError, "selection changed while processing")
		}
		next.Processed = processed
		next.Clustered = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("session %s: processed into %d columns", id, len(processed.Table.Columns))
	return &ProcessResult{Processed: processed, Statistics: stats}, nil
}

// Processed returns the session's processed table
func (s *WorkbenchService) Processed(id core.ID) (*pipeline.Processed, error) {
	sess, _, err := s.processed(id)
	if err != nil {
		return nil, err
	}
	return sess.Processed, nil
}

func (s *WorkbenchService) processed(id core.ID) (session.Session, *dataset.Table, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.Session{}, nil, err
	}
	if sess.Processed == nil {
		return session.Session{}, nil, errors.ValidationError("dataset has not been processed")
	}
	return sess, &sess.Processed.Table, nil
}

func (s *WorkbenchService) clustered(id core.ID) (session.Session, *pipeline.ClusterResult, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.Session{}, nil, err
	}
	if sess.Clustered == nil {
		return session.Session{}, nil, errors.ValidationError("dataset has not been clustered")
	}
	return sess, sess.Clustered, nil
}

// Statistics describes every processed column
func (s *WorkbenchService) Statistics(id core.ID) ([]pipeline.ColumnStats, error) {
	_, table, err := s.processed(id)
	if err != nil {
		return nil, err
	}
	return pipeline.Describe(table)
}

// Correlation computes the correlation matrix of the processed features
func (s *WorkbenchService) Correlation(id core.ID, features []string, method pipeline.CorrelationMethod) (*pipeline.Correlation, error) {
	_, table, err := s.processed(id)
	if err != nil {
		return nil, err
	}
	return pipeline.CorrelateWith(table, features, method)
}

// Scree returns the explained variance ratios of the processed table
func (s *WorkbenchService) Scree(id core.ID) ([]float64, error) {
	_, table, err := s.processed(id)
	if err != nil {
		return nil, err
	}
	return pipeline.Scree(table)
}

// Histogram bins one processed feature
func (s *WorkbenchService) Histogram(id core.ID, feature string, bins int) (*pipeline.HistogramBins, error) {
	_, table, err := s.processed(id)
	if err != nil {
		return nil, err
	}
	return pipeline.Histogram(table, feature, bins)
}

func (s *WorkbenchService) acquire(ctx context.Context) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return errors.Wrap(errors.WithCode(errors.CodeCanceled, err), "no run slot available")
	}
	return nil
}

// Cluster runs sampling, reduction and clustering over the processed table, stores
// the result on the session and records the run.
func (s *WorkbenchService) Cluster(ctx context.Context, id core.ID, cfg pipeline.ClusterConfig) (*ClusterOutcome, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	sess, table, err := s.processed(id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := pipeline.Cluster(table, cfg, s.opts)
	if err != nil {
		return nil, err
	}

	_, err = s.sessions.Update(id, func(next *session.Session) error {
		// a concurrent edit or reprocess makes this result stale
		if next.Processed != sess.Processed {
			return errors.New(errors.CodeValidationError, "dataset changed while clustering")
		}
		next.Clustered = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	record := newRunRecord(sess, table, cfg, result, s.opts.Seed)
	if s.runs != nil {
		if err := s.runs.Create(ctx, record); err != nil {
			logger.Warn("session %s: failed to record run: %v", id, err)
		}
	}
	logger.Info("session %s: %s run found %d clusters over %d rows in %s",
		id, record.Algorithm, result.Clusters, result.Table.Rows(), time.Since(start).Round(time.Millisecond))
	return &ClusterOutcome{Result: result, Run: record}, nil
}

func newRunRecord(sess session.Session, table *dataset.Table, cfg pipeline.ClusterConfig, result *pipeline.ClusterResult, seed int64) *run.Record {
	algorithm := cfg.Algorithm
	if algorithm == "" {
		algorithm = pipeline.ClusterKMeans
	}
	return &run.Record{
		ID:           core.NewID(),
		SessionID:    sess.ID,
		Dataset:      sess.Dataset,
		RowCount:     result.Table.Rows(),
		FeatureCount: len(table.Columns),
		Reduction:    string(result.Reduction.Algorithm),
		Components:   result.Reduction.Components,
		Algorithm:    string(algorithm),
		Clusters:     result.Clusters,
		NoiseCount:   result.NoiseCount,
		Seed:         seed,
		Fingerprint:  run.Fingerprint(sess.Dataset, table.Rows(), seed, cfg),
		Messages:     append([]string(nil), result.Report.Messages...),
		CreatedAt:    time.Now().UTC(),
	}
}

// Plot prepares 2D/3D plot points from the clustered table
func (s *WorkbenchService) Plot(ctx context.Context, id core.ID, cfg pipeline.ReductionConfig) (*pipeline.PlotResult, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	_, result, err := s.clustered(id)
	if err != nil {
		return nil, err
	}
	return pipeline.PlotData(&result.Table, cfg, s.opts)
}

// Clustered returns the latest clustering result of the session
func (s *WorkbenchService) Clustered(id core.ID) (*pipeline.ClusterResult, error) {
	_, result, err := s.clustered(id)
	return result, err
}

// Report returns the message log of the latest clustering run
func (s *WorkbenchService) Report(id core.ID) (pipeline.Report, error) {
	_, result, err := s.clustered(id)
	if err != nil {
		return pipeline.Report{}, err
	}
	return result.Report, nil
}

// ParseExportFormat maps a format name to an ExportFormat, defaulting to CSV
func ParseExportFormat(name string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(name))) {
	case "", ExportCSV:
		return ExportCSV, nil
	case ExportXLSX:
		return ExportXLSX, nil
	}
	return "", errors.Newf(errors.CodeInvalidInput, "unsupported export format %q", name)
}

// Export writes the clustered table of the session
func (s *WorkbenchService) Export(id core.ID, format ExportFormat, w io.Writer) error {
	_, result, err := s.clustered(id)
	if err != nil {
		return err
	}
	switch format {
	case ExportXLSX:
		return excel.WriteXLSX(w, &result.Table)
	default:
		return excel.WriteCSV(w, &result.Table)
	}
}

// Runs lists recorded runs, newest first, optionally restricted to one session
func (s *WorkbenchService) Runs(ctx context.Context, sessionID core.ID, limit int) ([]*run.Record, error) {
	if s.runs == nil {
		return []*run.Record{}, nil
	}
	if sessionID.IsEmpty() {
		return s.runs.List(ctx, limit)
	}
	return s.runs.ListBySession(ctx, sessionID, limit)
}

// Run fetches one recorded run
func (s *WorkbenchService) Run(ctx context.Context, id core.ID) (*run.Record, error) {
	if s.runs == nil {
		return nil, errors.NotFound("run " + id.String())
	}
	return s.runs.GetByID(ctx, id)
}

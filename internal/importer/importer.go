package importer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Dan9191/account-record-service/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBatchSize = 10
	maxLineLength    = 1 << 20
)

// BatchWriter persists one batch atomically
type BatchWriter interface {
	InsertBatch(ctx context.Context, accounts []models.Account) (int, error)
}

// Processor transforms a parsed record before it is written.
// Returning nil without an error drops the record.
type Processor func(*models.Account) (*models.Account, error)

// PassThrough is the default processor
func PassThrough(a *models.Account) (*models.Account, error) {
	return a, nil
}

// Result summarizes one import run
type Result struct {
	RunID          string        `json:"runId"`
	RecordsRead    int           `json:"recordsRead"`
	RecordsWritten int           `json:"recordsWritten"`
	RecordsSkipped int           `json:"recordsSkipped"`
	Batches        int           `json:"batches"`
	Duration       time.Duration `json:"duration"`
}

// Importer streams records from a source into a BatchWriter
type Importer struct {
	writer    BatchWriter
	processor Processor
	batchSize int
	log       logrus.FieldLogger
}

// Option configures an Importer
type Option func(*Importer)

// WithBatchSize sets the number of records per write
func WithBatchSize(size int) Option {
	return func(i *Importer) {
		if size > 0 {
			i.batchSize = size
		}
	}
}

// WithProcessor replaces the pass-through processor
func WithProcessor(p Processor) Option {
	return func(i *Importer) {
		if p != nil {
			i.processor = p
		}
	}
}

// NewImporter initializes a new importer
func NewImporter(writer BatchWriter, log logrus.FieldLogger, opts ...Option) *Importer {
	i := &Importer{
		writer:    writer,
		processor: PassThrough,
		batchSize: DefaultBatchSize,
		log:       log,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import reads the header line, then parses, processes and writes every record.
// The first failing line aborts the run; batches already written stay committed.
func (i *Importer) Import(ctx context.Context, source io.Reader, runID string) (Result, error) {
	started := time.Now()
	res := Result{RunID: runID}
	log := i.log.WithField("run_id", runID)

	scanner := bufio.NewScanner(source)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	batch := make([]models.Account, 0, i.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := i.writer.InsertBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to write batch %d: %w", res.Batches+1, err)
		}
		res.Batches++
		res.RecordsWritten += n
		log.WithFields(logrus.Fields{
			"batch": res.Batches,
			"size":  n,
			"total": res.RecordsWritten,
		}).Info("Batch written")
		batch = make([]models.Account, 0, i.batchSize)
		return nil
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo == 1 {
			continue
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return i.finish(res, started), err
		}

		res.RecordsRead++
		account, err := ParseLine(line)
		if err != nil {
			return i.finish(res, started), &LineError{Line: lineNo, Err: err}
		}
		account, err = i.processor(account)
		if err != nil {
			return i.finish(res, started), &LineError{Line: lineNo, Err: err}
		}
		if account == nil {
			res.RecordsSkipped++
			continue
		}

		batch = append(batch, *account)
		if len(batch) >= i.batchSize {
			if err := flush(); err != nil {
				return i.finish(res, started), err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return i.finish(res, started), fmt.Errorf("failed to read source: %w", err)
	}
	if err := flush(); err != nil {
		return i.finish(res, started), err
	}

	res = i.finish(res, started)
	log.WithFields(logrus.Fields{
		"read":     res.RecordsRead,
		"written":  res.RecordsWritten,
		"skipped":  res.RecordsSkipped,
		"batches":  res.Batches,
		"duration": res.Duration.String(),
	}).Info("Import completed")
	return res, nil
}

func (i *Importer) finish(res Result, started time.Time) Result {
	res.Duration = time.Since(started)
	return res
}

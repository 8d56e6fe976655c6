package bootstrap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Dan9191/account-record-service/internal/events"
	"github.com/Dan9191/account-record-service/internal/importer"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Counter reports how many account records are stored
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// ReportSender delivers a summary of a finished import
type ReportSender interface {
	SendImportReport(res importer.Result) error
}

// Guard decides whether the startup import runs and runs it at most once per empty store
type Guard struct {
	mu        sync.Mutex
	store     Counter
	importer  *importer.Importer
	path      string
	publisher events.Publisher
	reporter  ReportSender
	log       logrus.FieldLogger
}

// NewGuard initializes a new startup guard
func NewGuard(store Counter, imp *importer.Importer, path string, publisher events.Publisher, reporter ReportSender, log logrus.FieldLogger) *Guard {
	return &Guard{
		store:     store,
		importer:  imp,
		path:      path,
		publisher: publisher,
		reporter:  reporter,
		log:       log.WithField("component", "startup_import"),
	}
}

// ShouldImport checks, in order: file present, store empty, file has a data line
func (g *Guard) ShouldImport(ctx context.Context) (bool, error) {
	if _, err := os.Stat(g.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			g.log.WithField("file", g.path).Warn("Import file not found, skipping import")
			return false, nil
		}
		return false, fmt.Errorf("failed to stat import file: %w", err)
	}

	count, err := g.store.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count accounts: %w", err)
	}
	if count > 0 {
		g.log.WithField("records", count).Info("Accounts already loaded, skipping import")
		return false, nil
	}

	hasData, err := hasDataLine(g.path)
	if err != nil {
		return false, err
	}
	if !hasData {
		g.log.WithField("file", g.path).Warn("Import file has no data after the header, skipping import")
		return false, nil
	}
	return true, nil
}

func hasDataLine(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	if !scanner.Scan() {
		return false, scanner.Err()
	}
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("failed to read import file: %w", err)
	}
	return false, nil
}

// Run performs the import when warranted. It never returns an error or panics:
// failures are logged so the service still starts.
func (g *Guard) Run(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			g.log.WithField("panic", r).Error("Startup import panicked")
		}
	}()

	ok, err := g.ShouldImport(ctx)
	if err != nil {
		g.log.WithError(err).Error("Startup import check failed")
		return
	}
	if !ok {
		return
	}

	runID := NewRunID(time.Now())
	res, err := g.importFile(ctx, runID)
	if err != nil {
		g.log.WithError(err).WithFields(logrus.Fields{
			"run_id":  runID,
			"written": res.RecordsWritten,
		}).Error("Startup import failed")
		return
	}

	if err := g.publisher.PublishAccountsImported(ctx, events.AccountsImported{
		RunID:          res.RunID,
		RecordsWritten: res.RecordsWritten,
		RecordsSkipped: res.RecordsSkipped,
		OccurredAt:     time.Now().UTC(),
	}); err != nil {
		g.log.WithError(err).Warn("Failed to publish import event")
	}
	if err := g.reporter.SendImportReport(res); err != nil {
		g.log.WithError(err).Warn("Failed to send import report")
	}
}

func (g *Guard) importFile(ctx context.Context, runID string) (importer.Result, error) {
	f, err := os.Open(g.path)
	if err != nil {
		return importer.Result{RunID: runID}, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	g.log.WithFields(logrus.Fields{"run_id": runID, "file": g.path}).Info("Starting account import")
	return g.importer.Import(ctx, f, runID)
}

// ScheduleRetry re-runs the guard on a cron schedule until the store is populated
func (g *Guard) ScheduleRetry(schedule string) (*cron.Cron, error) {
	cronLogger := cron.PrintfLogger(g.log)
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))
	if _, err := c.AddFunc(schedule, func() { g.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("failed to schedule import retry: %w", err)
	}
	c.Start()
	g.log.WithField("schedule", schedule).Info("Import retry scheduled")
	return c, nil
}

// NewRunID builds a unique import run identifier
func NewRunID(now time.Time) string {
	return fmt.Sprintf("import-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

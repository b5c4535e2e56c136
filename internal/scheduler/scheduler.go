package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/treadstock/internal/config"
	"github.com/mamadbah2/treadstock/internal/domain/models"
	"github.com/mamadbah2/treadstock/internal/spreadsheet"
)

const (
	jobTimeout      = 2 * time.Minute
	backupDateStamp = "2006-01-02"
)

// InventoryReader lists what the backup job writes out.
type InventoryReader interface {
	ListItems(ctx context.Context) ([]models.StockRecord, error)
	ListTransactions(ctx context.Context) ([]models.AuditEntry, error)
}

// SnapshotSource captures the inventory for archiving.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (models.InventorySnapshot, error)
}

// SnapshotArchive stores snapshots.
type SnapshotArchive interface {
	SaveSnapshot(ctx context.Context, snapshot models.InventorySnapshot) error
}

// SheetMirror overwrites a spreadsheet range.
type SheetMirror interface {
	ReplaceRange(ctx context.Context, sheetRange string, values [][]interface{}) error
}

// Alerter sends the low-stock digest.
type Alerter interface {
	SendLowStockAlert(ctx context.Context) (int, error)
}

// Deps groups the collaborators of the scheduled jobs. Archive, Mirror and
// Alerter are optional; their jobs are not registered when nil.
type Deps struct {
	Inventory InventoryReader
	Snapshots SnapshotSource
	Archive   SnapshotArchive
	Mirror    SheetMirror
	Alerter   Alerter
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron   *cron.Cron
	deps   Deps
	cfg    config.Config
	logger *zap.Logger
	now    func() time.Time
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.Config, deps Deps, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Standard five-field expressions, evaluated in the configured time zone.
	c := cron.New(cron.WithLocation(cfg.Location()))

	return &Scheduler{
		cron:   c,
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Start registers the jobs and starts the scheduler. An invalid cron
// expression is returned before anything runs.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
		on   bool
	}{
		{"backup", s.cfg.Backup.CronSchedule, s.RunBackup, s.deps.Inventory != nil},
		{"snapshot", s.cfg.Backup.CronSchedule, s.RunSnapshot, s.deps.Archive != nil && s.deps.Snapshots != nil},
		{"sheets_mirror", s.cfg.Backup.CronSchedule, s.RunMirror, s.deps.Mirror != nil && s.deps.Inventory != nil},
		{"low_stock_alert", s.cfg.Backup.AlertCron, s.RunAlert, s.deps.Alerter != nil},
	}

	for _, job := range jobs {
		if !job.on {
			s.logger.Debug("job disabled", zap.String("job", job.name))
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, s.wrap(job.name, job.run)); err != nil {
			return fmt.Errorf("schedule %s job %q: %w", job.name, job.spec, err)
		}
		s.logger.Info("job scheduled", zap.String("job", job.name), zap.String("spec", job.spec))
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// RunBackup writes the inventory and the audit log to dated xlsx files.
func (s *Scheduler) RunBackup(ctx context.Context) error {
	items, err := s.deps.Inventory.ListItems(ctx)
	if err != nil {
		return err
	}
	entries, err := s.deps.Inventory.ListTransactions(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.cfg.Backup.Dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	stamp := s.now().In(s.cfg.Location()).Format(backupDateStamp)
	itemsPath := filepath.Join(s.cfg.Backup.Dir, fmt.Sprintf("inventory_backup_%s.xlsx", stamp))
	txPath := filepath.Join(s.cfg.Backup.Dir, fmt.Sprintf("transactions_%s.xlsx", stamp))

	if err := writeFile(itemsPath, func(f *os.File) error { return spreadsheet.WriteItems(f, items) }); err != nil {
		return err
	}
	if err := writeFile(txPath, func(f *os.File) error { return spreadsheet.WriteTransactions(f, entries) }); err != nil {
		return err
	}

	s.logger.Info("backup written", zap.String("items", itemsPath), zap.String("transactions", txPath), zap.Int("item_count", len(items)))
	return nil
}

// RunSnapshot archives the current inventory.
func (s *Scheduler) RunSnapshot(ctx context.Context) error {
	snapshot, err := s.deps.Snapshots.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := s.deps.Archive.SaveSnapshot(ctx, snapshot); err != nil {
		return err
	}
	s.logger.Info("snapshot archived", zap.Int("items", snapshot.DistinctItems), zap.Int("low", snapshot.LowStockCount))
	return nil
}

// RunMirror overwrites the export range with the current item grid.
func (s *Scheduler) RunMirror(ctx context.Context) error {
	items, err := s.deps.Inventory.ListItems(ctx)
	if err != nil {
		return err
	}
	return s.deps.Mirror.ReplaceRange(ctx, s.cfg.Sheets.ExportRange, spreadsheet.ItemValues(items))
}

// RunAlert sends the low-stock digest when something is low.
func (s *Scheduler) RunAlert(ctx context.Context) error {
	_, err := s.deps.Alerter.SendLowStockAlert(ctx)
	return err
}

func (s *Scheduler) wrap(name string, run func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := s.now()
		if err := run(ctx); err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Info("scheduled job finished", zap.String("job", name), zap.Duration("duration", time.Since(start)))
	}
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

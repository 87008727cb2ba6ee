package scrape

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"chartscraper/internal/config"
	"chartscraper/internal/domain"
	"chartscraper/internal/export"
	"chartscraper/internal/insight"
	"chartscraper/internal/monitoring"
	"chartscraper/internal/storage"
)

// taskTimeout bounds one job end to end; a full date-range walk with
// retries can legitimately take many minutes.
const taskTimeout = 30 * time.Minute

type TaskKind int

const (
	TaskTrack TaskKind = iota
	TaskRange
	TaskCountry
)

// Task is one scrape job accepted from the API.
type Task struct {
	Kind    TaskKind
	TrackID string
	Start   time.Time
	End     time.Time
	Country string
	Mode    domain.ViewMode
	Force   bool // bypass the recently-scraped check
}

// Key identifies a task for dedup and status queries.
func (t Task) Key() string {
	switch t.Kind {
	case TaskRange:
		return fmt.Sprintf("range:%s:%s",
			t.Start.Format(domain.SnapshotDateFormat),
			t.End.Format(domain.SnapshotDateFormat))
	case TaskCountry:
		return fmt.Sprintf("country:%s:%s", t.Country, t.Mode)
	default:
		return "track:" + t.TrackID
	}
}

// Scraper owns the scrape pipeline: one browser session consumed serially
// by one worker goroutine. Concurrent tabs would need independent sessions
// and the target site penalizes burst traffic, so the queue is drained
// strictly in order.
type Scraper struct {
	cfg      *config.Config
	browser  Browser
	driver   *Driver
	redis    *storage.RedisStore
	pg       *storage.PostgresStore
	insights *insight.Generator
	metrics  *monitoring.Metrics
	logger   *zap.Logger

	taskQueue chan Task
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

func NewScraper(cfg *config.Config, b Browser, rs *storage.RedisStore, ps *storage.PostgresStore, gen *insight.Generator, m *monitoring.Metrics, l *zap.Logger) *Scraper {
	nav := NewNavigator(b,
		time.Duration(cfg.LocatorTimeout)*time.Second,
		cfg.SettleDelay(),
		l,
	)
	return &Scraper{
		cfg:       cfg,
		browser:   b,
		driver:    NewDriver(b, nav, cfg, m, l),
		redis:     rs,
		pg:        ps,
		insights:  gen,
		metrics:   m,
		logger:    l,
		taskQueue: make(chan Task, 16),
		stopChan:  make(chan struct{}),
	}
}

func (s *Scraper) Start() {
	s.wg.Add(1)
	go s.worker()
}

func (s *Scraper) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

// Submit queues a task for the worker. After Stop the task is dropped; the
// queue channel is never closed, so a late Submit can not panic.
func (s *Scraper) Submit(task Task) {
	select {
	case s.taskQueue <- task:
	case <-s.stopChan:
	}
}

func (s *Scraper) worker() {
	defer s.wg.Done()
	for {
		select {
		case task := <-s.taskQueue:
			s.process(task)
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scraper) process(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	key := task.Key()

	if !task.Force {
		recent, err := s.redis.IsRecentlyScraped(ctx, key)
		if err != nil {
			s.logger.Error("failed to check redis for scrape status", zap.String("key", key), zap.Error(err))
		}
		if recent {
			s.logger.Info("skipping recently scraped job", zap.String("key", key))
			return
		}
	}

	if err := s.pg.SaveJobStatus(ctx, key, domain.JobProcessing, "", 0); err != nil {
		s.logger.Error("failed to mark job as processing", zap.String("key", key), zap.Error(err))
	}

	rows, err := s.run(ctx, task)
	if err != nil {
		s.logger.Error("job failed", zap.String("key", key), zap.Error(err))
		if perr := s.pg.SaveJobStatus(ctx, key, domain.JobFailed, err.Error(), 0); perr != nil {
			s.logger.Error("failed to mark job as failed", zap.String("key", key), zap.Error(perr))
		}
		return
	}

	if err := s.pg.SaveJobStatus(ctx, key, domain.JobCompleted, "", rows); err != nil {
		s.logger.Error("failed to mark job as completed", zap.String("key", key), zap.Error(err))
	}
	ttl := time.Duration(s.cfg.DeduplicationDays) * 24 * time.Hour
	if err := s.redis.MarkScraped(ctx, key, ttl); err != nil {
		s.logger.Error("failed to mark job in redis", zap.String("key", key), zap.Error(err))
	}
	s.logger.Info("job completed", zap.String("key", key), zap.Int("rows", rows))
}

func (s *Scraper) run(ctx context.Context, task Task) (int, error) {
	switch task.Kind {
	case TaskRange:
		return s.runRange(ctx, task)
	case TaskCountry:
		return s.runCountry(ctx, task)
	default:
		return s.runTrack(ctx, task)
	}
}

func (s *Scraper) runTrack(ctx context.Context, task Task) (int, error) {
	history, err := s.ScrapeTrack(ctx, task.TrackID)
	if err != nil {
		return 0, err
	}

	if err := s.pg.SaveTrackRows(ctx, history); err != nil {
		return 0, fmt.Errorf("persist track rows: %w", err)
	}

	out := filepath.Join(s.cfg.OutputDir, fmt.Sprintf("track_%s.csv", history.TrackID))
	if err := export.WriteTrackCSV(out, history); err != nil {
		return 0, fmt.Errorf("export track history: %w", err)
	}
	return len(history.Batch.Rows), nil
}

func (s *Scraper) runRange(ctx context.Context, task Task) (int, error) {
	table, err := s.ScrapeRange(ctx, task.Start, task.End)
	if err != nil {
		return 0, err
	}

	if err := s.pg.SaveRangeRows(ctx, task.Key(), table); err != nil {
		return 0, fmt.Errorf("persist range rows: %w", err)
	}

	base := filepath.Join(s.cfg.OutputDir, "all_charts")
	for _, format := range s.exportFormats() {
		if err := export.WriteTable(table, format, base); err != nil {
			return 0, fmt.Errorf("export %s: %w", format, err)
		}
	}

	// Insights are best-effort decoration; they must never fail the scrape.
	s.generateInsights(ctx, table)

	return len(table.Rows), nil
}

func (s *Scraper) runCountry(ctx context.Context, task Task) (int, error) {
	batch, err := s.ScrapeCountry(ctx, task.Country, task.Mode)
	if err != nil {
		return 0, err
	}

	out := filepath.Join(s.cfg.OutputDir, fmt.Sprintf("country_%s_%s.csv", task.Country, task.Mode))
	if err := export.WriteBatchCSV(out, batch); err != nil {
		return 0, fmt.Errorf("export country chart: %w", err)
	}
	return len(batch.Rows), nil
}

func (s *Scraper) exportFormats() []string {
	var formats []string
	for _, f := range strings.Split(s.cfg.ExportFormats, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		formats = []string{"csv"}
	}
	return formats
}

func (s *Scraper) generateInsights(ctx context.Context, table *domain.RangeTable) {
	summary, err := s.insights.SummarizeRange(ctx, table)
	if err != nil {
		s.logger.Warn("insight generation failed", zap.Error(err))
		return
	}
	if summary == "" {
		return
	}
	path := filepath.Join(s.cfg.OutputDir, "ai_insights.txt")
	if err := export.WriteText(path, summary); err != nil {
		s.logger.Warn("failed to write insights", zap.Error(err))
		return
	}
	s.logger.Info("insights written", zap.String("path", path))
}

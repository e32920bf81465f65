package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/twitchstats/sestats/internal/feed"
)

// Recorder accumulates stat changes and batch-inserts them into the
// stat_changes table. Record is safe for concurrent use.
type Recorder struct {
	cfg    Config
	logger *slog.Logger

	// Database
	db *pgxpool.Pool

	// Batching
	batch       []changeRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics Metrics
}

// New creates a Recorder writing to db.
func New(cfg Config, db *pgxpool.Pool, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		cfg:    cfg,
		db:     db,
		logger: logger,
		batch:  make([]changeRow, 0, cfg.BatchSize),
	}
}

// Start begins the periodic flush loop.
func (r *Recorder) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.flushTicker = time.NewTicker(r.cfg.FlushInterval)

	r.wg.Add(1)
	go r.flushLoop()

	r.logger.Info("stat recorder started",
		"batch_size", r.cfg.BatchSize,
		"flush_interval", r.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the recorder, flushing any buffered rows.
func (r *Recorder) Stop(ctx context.Context) error {
	r.logger.Info("stopping stat recorder")

	if r.cancel != nil {
		r.cancel()
	}

	if r.flushTicker != nil {
		r.flushTicker.Stop()
	}

	// Wait for the flush loop
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("stat recorder stopped")
	case <-ctx.Done():
		r.logger.Warn("stat recorder stop timed out")
	}

	// Final flush under the caller's context, not the canceled run context
	r.flush(ctx)

	return nil
}

// Stats returns current metrics.
func (r *Recorder) Stats() Metrics {
	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	return r.metrics
}

// Record adds the changes from one feed message to the batch. All rows
// from the same call share an observation timestamp. Record may be
// called before Start; rows buffer until the first flush.
func (r *Recorder) Record(channel, messageID string, changes []feed.StatChange) {
	if len(changes) == 0 {
		return
	}
	observedAt := time.Now()

	r.batchMu.Lock()
	for _, change := range changes {
		r.batch = append(r.batch, r.transform(observedAt, channel, messageID, change))
	}
	shouldFlush := len(r.batch) >= r.cfg.BatchSize
	r.batchMu.Unlock()

	if shouldFlush {
		r.flush(r.flushContext())
	}
}

// flushContext returns the run context, or a background context before
// Start has set one.
func (r *Recorder) flushContext() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// flushLoop periodically flushes the batch.
func (r *Recorder) flushLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.flushTicker.C:
			r.flush(r.ctx)
		}
	}
}

// transform converts a StatChange to a changeRow.
func (r *Recorder) transform(observedAt time.Time, channel, messageID string, change feed.StatChange) changeRow {
	row := changeRow{
		ObservedAt: observedAt.UnixMicro(),
		MessageID:  messageID,
		Channel:    channel,
	}
	switch c := change.(type) {
	case feed.ChatterChange:
		row.Kind = feed.TypeChatters
		row.Key = c.Key
		row.Amount = int64(c.Amount)
	case feed.EmoteChange:
		row.Kind = feed.TypeEmotes
		row.Key = c.Key
		row.EmoteID = c.ID
		row.Provider = c.Provider
		row.Amount = int64(c.Amount)
	}
	return row
}

// flush writes the current batch to the database. Without a pool the
// batch is left in place.
func (r *Recorder) flush(ctx context.Context) {
	if r.db == nil {
		return
	}

	r.batchMu.Lock()
	if len(r.batch) == 0 {
		r.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := r.batch
	r.batch = make([]changeRow, 0, r.cfg.BatchSize)
	r.batchMu.Unlock()

	start := time.Now()

	conflicts, err := r.batchInsert(ctx, batch)
	if err != nil {
		r.logger.Error("batch insert failed", "error", err, "count", len(batch))
		r.batchMu.Lock()
		r.metrics.Errors++
		r.batchMu.Unlock()
		return
	}

	r.batchMu.Lock()
	r.metrics.Inserts += int64(len(batch) - conflicts)
	r.metrics.Conflicts += int64(conflicts)
	r.metrics.Flushes++
	r.batchMu.Unlock()

	r.logger.Debug("flushed stat changes",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (r *Recorder) batchInsert(ctx context.Context, rows []changeRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO stat_changes (observed_at, message_id, channel, kind, key, emote_id, provider, amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (message_id, channel, kind, key, provider) DO NOTHING
		`, row.ObservedAt, row.MessageID, row.Channel, row.Kind, row.Key, row.EmoteID, row.Provider, row.Amount)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}

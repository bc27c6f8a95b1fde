/*
scheduler.go - Daily charge scheduler

PURPOSE:
  Periodically applies the two daily allocations: the transport fees and the
  overhead distribution. Both tasks are idempotent per (site, date, kind), so
  the scheduler only has to make sure each eventually runs once per day;
  running more often is harmless.

DESIGN:
  - Background goroutine with a configurable check interval
  - A last-run-date guard skips re-runs within the same day; the guard
    advances only when both tasks completed without error
  - Each run gets a generated ID for log correlation

USAGE:
  scheduler := NewFeeScheduler(handler.Allocator, handler.Distributor)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - transport/allocator.go: The idempotent transport allocation
  - overhead/distributor.go: The idempotent overhead distribution
  - handlers.go: ApplyTransportFees / ApplyOverheadCharges, the manual triggers
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/batiflow/cost-engine/charging"
	"github.com/batiflow/cost-engine/overhead"
	"github.com/batiflow/cost-engine/transport"

	"github.com/shopspring/decimal"
)

// FeeScheduler applies the daily allocations once per day.
type FeeScheduler struct {
	Allocator     *transport.Allocator
	Distributor   *overhead.Distributor
	CheckInterval time.Duration
	Enabled       bool

	ticker      *time.Ticker
	stop        chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	lastRunDate string // YYYY-MM-DD of the last fully completed run
}

// NewFeeScheduler creates a scheduler with an hourly check interval.
func NewFeeScheduler(allocator *transport.Allocator, distributor *overhead.Distributor) *FeeScheduler {
	return &FeeScheduler{
		Allocator:     allocator,
		Distributor:   distributor,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (fs *FeeScheduler) Start() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !fs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	fs.ticker = time.NewTicker(fs.CheckInterval)
	fs.wg.Add(1)
	go fs.run(fs.ticker)

	log.Printf("[Scheduler] Started with check interval: %v", fs.CheckInterval)
}

// Stop stops the scheduler and waits for any in-flight run to finish.
//
// The wait happens outside the mutex: an in-flight run takes the same mutex
// to advance the daily guard, so waiting while holding it would never return.
func (fs *FeeScheduler) Stop() {
	fs.mu.Lock()
	ticker := fs.ticker
	fs.ticker = nil
	if ticker != nil {
		ticker.Stop()
		close(fs.stop)
	}
	fs.mu.Unlock()

	if ticker != nil {
		fs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (fs *FeeScheduler) run(ticker *time.Ticker) {
	defer fs.wg.Done()

	// Run immediately on start
	fs.checkAndApply()

	for {
		select {
		case <-ticker.C:
			fs.checkAndApply()
		case <-fs.stop:
			return
		}
	}
}

func (fs *FeeScheduler) checkAndApply() {
	today := charging.FormatDay(time.Now().UTC())

	fs.mu.Lock()
	if fs.lastRunDate == today {
		fs.mu.Unlock()
		return
	}
	fs.mu.Unlock()

	runID := uuid.NewString()
	complete := true

	log.Printf("[Scheduler] run %s: applying transport fees for %s", runID, today)
	if result, err := fs.Allocator.Apply(context.Background(), today, decimal.Zero, 0); err != nil {
		// Validation errors (e.g. no transport amount configured) are
		// ordinary states, not faults; retry on the next tick either way.
		log.Printf("[Scheduler] run %s: transport: %v", runID, err)
		complete = false
	} else {
		log.Printf("[Scheduler] run %s: transport created=%d skipped=%d failed=%d amount=%s",
			runID, result.Created, result.Skipped, len(result.Failures), result.Amount)
	}

	log.Printf("[Scheduler] run %s: distributing overhead for %s", runID, today)
	if result, err := fs.Distributor.Apply(context.Background(), today); err != nil {
		log.Printf("[Scheduler] run %s: overhead: %v", runID, err)
		complete = false
	} else {
		log.Printf("[Scheduler] run %s: overhead created=%d skipped=%d failed=%d daily=%s",
			runID, result.Created, result.Skipped, len(result.Failures), result.DailyAmount)
	}

	if !complete {
		return
	}

	fs.mu.Lock()
	fs.lastRunDate = today
	fs.mu.Unlock()
}

// RunNow triggers an immediate check, bypassing the daily guard.
func (fs *FeeScheduler) RunNow() {
	fs.mu.Lock()
	fs.lastRunDate = ""
	fs.mu.Unlock()
	fs.checkAndApply()
}

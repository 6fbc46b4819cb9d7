// Package dispatch fans ingestion work out to the external enrichment
// process. The boundary is an explicit queue: the ingestion path
// enqueues one job per persisted property and returns immediately;
// worker goroutines drain the queue and POST each job to the
// enrichment endpoint. Delivery is best-effort — a failed dispatch is
// logged and has no other effect anywhere in the system.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/propscout/api/internal/config"
	"github.com/propscout/api/internal/logger"
)

const requestTimeout = 30 * time.Second

// Job is one enrichment notification for one property.
type Job struct {
	PropertyID string `json:"property_id"`
	AccountID  string `json:"account_id"`
}

// Dispatcher drains a bounded queue of jobs with a fixed pool of
// worker goroutines. It is safe for concurrent enqueue from any
// number of request handlers.
type Dispatcher struct {
	client  *http.Client
	log     *logger.Logger
	queue   chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	url     string
	workers int
	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

// New creates a Dispatcher from explicit configuration. Call Start
// before enqueueing.
func New(cfg config.DispatchConfig, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		client:  &http.Client{Timeout: requestTimeout},
		log:     log,
		queue:   make(chan Job, cfg.QueueSize),
		url:     cfg.EnrichmentURL,
		workers: cfg.Workers,
	}
}

// Start launches the worker pool. Workers run until Stop is called or
// the given context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	d.ctx = ctx
	d.cancel = cancel

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(ctx)
	}

	d.log.Info("Dispatch workers started", map[string]interface{}{
		"workers":    d.workers,
		"queue_size": cap(d.queue),
		"url":        d.url,
	})
}

// Enqueue queues one job per property without ever blocking the
// caller. When the queue is full the overflow jobs are dropped and
// logged; there is no retry and no effect on persisted state.
func (d *Dispatcher) Enqueue(jobs []Job) {
	d.closeMu.Lock()
	defer d.closeMu.Unlock()
	if d.closed {
		d.log.Warn("Dispatch queue closed, dropping jobs", map[string]interface{}{
			"dropped": len(jobs),
		})
		return
	}

	for _, job := range jobs {
		select {
		case d.queue <- job:
		default:
			d.log.Warn("Dispatch queue full, dropping job", map[string]interface{}{
				"property_id": job.PropertyID,
				"account_id":  job.AccountID,
			})
		}
	}
}

// Stop closes the queue and waits for in-flight dispatches to finish,
// up to the given timeout.
func (d *Dispatcher) Stop(timeout time.Duration) {
	d.closeMu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.closeMu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info("Dispatch workers drained", nil)
	case <-time.After(timeout):
		d.log.Warn("Dispatch drain timed out", map[string]interface{}{
			"timeout": timeout.String(),
		})
	}

	// Release the derived context whether the drain finished or not
	if d.cancel != nil {
		d.cancel()
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-d.queue:
			if !ok {
				return
			}
			if err := d.send(ctx, job); err != nil {
				// Logged only: dispatch failures are invisible to
				// every other component.
				d.log.Error("Enrichment dispatch failed", err, map[string]interface{}{
					"property_id": job.PropertyID,
					"account_id":  job.AccountID,
				})
			}
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode dispatch payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch request failed: %w", err)
	}
	defer resp.Body.Close()

	// No response contract is enforced beyond "accepted".
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("enrichment endpoint returned status %d", resp.StatusCode)
	}

	return nil
}

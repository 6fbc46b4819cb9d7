// Package progress derives display-ready progress metrics from the
// dataset read endpoint by polling on a fixed interval. It never
// writes state, so any number of trackers may watch the same datasets
// concurrently; stopping is entirely the consumer's responsibility
// via context cancellation.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultInterval matches the original 5-second polling cadence.
const DefaultInterval = 5 * time.Second

const requestTimeout = 30 * time.Second

// Config holds the tracker's explicit configuration.
type Config struct {
	// DatasetsURL is the base URL of the dataset list endpoint,
	// e.g. "http://host:8080/api/v1/datasets".
	DatasetsURL string
	// AccountID scopes every read.
	AccountID string
	// Interval between polls; DefaultInterval when zero.
	Interval time.Duration
	// HTTPClient overrides the default client when set.
	HTTPClient *http.Client
}

// DatasetProgress is the per-dataset slice of a snapshot.
type DatasetProgress struct {
	DatasetID      string  `json:"dataset_id"`
	Status         string  `json:"status"`
	RowCount       int     `json:"row_count"`
	ProcessedCount int     `json:"processed_count"`
	ErrorCount     int     `json:"error_count"`
	Percent        float64 `json:"percent"`
}

// Snapshot is one observation of the tracked datasets. Counters are
// summed across all tracked ids before the aggregate percentage is
// derived.
type Snapshot struct {
	Datasets       []DatasetProgress `json:"datasets"`
	RowCount       int               `json:"row_count"`
	ProcessedCount int               `json:"processed_count"`
	ErrorCount     int               `json:"error_count"`
	Percent        float64           `json:"percent"`
}

// Done reports whether every counted row has been accounted for.
func (s Snapshot) Done() bool {
	return s.RowCount > 0 && s.ProcessedCount+s.ErrorCount >= s.RowCount
}

// Tracker polls dataset state and derives progress. Read-only.
type Tracker struct {
	client   *http.Client
	cfg      Config
	interval time.Duration
}

// New creates a Tracker, filling zero config values with defaults.
func New(cfg Config) *Tracker {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	return &Tracker{client: client, cfg: cfg, interval: interval}
}

// Percentage derives a progress percentage, guarding the zero-row
// case: a dataset with no rows reads as 0%, not a division error.
func Percentage(processed, rowCount int) float64 {
	if rowCount <= 0 {
		return 0
	}
	return float64(processed) / float64(rowCount) * 100
}

// Snapshot fetches the tracked datasets once and derives progress.
func (t *Tracker) Snapshot(ctx context.Context, datasetIDs []string) (*Snapshot, error) {
	if len(datasetIDs) == 0 {
		return nil, fmt.Errorf("at least one dataset id is required")
	}

	datasets, err := t.fetch(ctx, datasetIDs)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Datasets: make([]DatasetProgress, 0, len(datasets))}
	for _, d := range datasets {
		snap.RowCount += d.RowCount
		snap.ProcessedCount += d.ProcessedCount
		snap.ErrorCount += d.ErrorCount
		snap.Datasets = append(snap.Datasets, DatasetProgress{
			DatasetID:      d.DatasetID,
			Status:         d.Status,
			RowCount:       d.RowCount,
			ProcessedCount: d.ProcessedCount,
			ErrorCount:     d.ErrorCount,
			Percent:        Percentage(d.ProcessedCount, d.RowCount),
		})
	}
	snap.Percent = Percentage(snap.ProcessedCount, snap.RowCount)

	return snap, nil
}

// Watch polls every interval and emits a snapshot per poll until the
// context is cancelled. A poll that fails is skipped silently; the
// next tick tries again. The returned channel closes when the context
// ends — there is no other stop mechanism.
func (t *Tracker) Watch(ctx context.Context, datasetIDs []string) <-chan Snapshot {
	out := make(chan Snapshot)

	go func() {
		defer close(out)

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			snap, err := t.Snapshot(ctx, datasetIDs)
			if err == nil {
				select {
				case out <- *snap:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// datasetRecord mirrors the dataset read endpoint's response shape.
type datasetRecord struct {
	DatasetID      string `json:"dataset_id"`
	Status         string `json:"status"`
	RowCount       int    `json:"row_count"`
	ProcessedCount int    `json:"processed_count"`
	ErrorCount     int    `json:"error_count"`
}

type datasetListResponse struct {
	Datasets []datasetRecord `json:"datasets"`
}

func (t *Tracker) fetch(ctx context.Context, datasetIDs []string) ([]datasetRecord, error) {
	query := url.Values{}
	query.Set("ids", strings.Join(datasetIDs, ","))
	query.Set("account_id", t.cfg.AccountID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		t.cfg.DatasetsURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var result datasetListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Datasets, nil
}

// Package uploader is the client-side coordinator for batched CSV
// uploads. It admits candidate files, groups them into fixed-size
// batches, and calls the ingestion endpoint concurrently within each
// batch while batches themselves run sequentially, so peak
// concurrency equals the batch size.
package uploader

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Default admission thresholds.
const (
	DefaultMaxFileSizeBytes      = 10 * 1024 * 1024
	DefaultLargeFileWarningBytes = 5 * 1024 * 1024
	DefaultBatchSize             = 10

	requestTimeout = 2 * time.Minute
)

// Config holds the coordinator's explicit configuration. Nothing is
// read from ambient state.
type Config struct {
	// IngestURL is the full URL of the ingestion endpoint.
	IngestURL string
	// MaxFileSizeBytes rejects files above this size.
	MaxFileSizeBytes int64
	// LargeFileWarningBytes flags (but still admits) files above
	// this size.
	LargeFileWarningBytes int64
	// BatchSize bounds how many files upload concurrently.
	BatchSize int
	// HTTPClient overrides the default client when set.
	HTTPClient *http.Client
}

// File is one candidate upload.
type File struct {
	Name string
	Data []byte
}

// RejectedFile records why a candidate was not admitted.
type RejectedFile struct {
	Name   string
	Reason string
}

// Admission is the result of validating a candidate file list.
type Admission struct {
	// Admitted files, in input order.
	Admitted []File
	// LargeFiles names admitted files over the warning threshold.
	// The warning is informational; these files still upload.
	LargeFiles []string
	// Rejected files with reasons.
	Rejected []RejectedFile
}

// Uploader coordinates batched uploads against one ingestion endpoint.
type Uploader struct {
	client *http.Client
	cfg    Config
}

// New creates an Uploader, filling zero config values with defaults.
func New(cfg Config) *Uploader {
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = DefaultMaxFileSizeBytes
	}
	if cfg.LargeFileWarningBytes <= 0 {
		cfg.LargeFileWarningBytes = DefaultLargeFileWarningBytes
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	return &Uploader{client: client, cfg: cfg}
}

// Admit validates candidates before any network call: the extension
// must be .csv and the size must be within the configured max. Files
// over the warning threshold are admitted but flagged.
func (u *Uploader) Admit(files []File) Admission {
	var adm Admission
	for _, f := range files {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			adm.Rejected = append(adm.Rejected, RejectedFile{
				Name:   f.Name,
				Reason: "not a .csv file",
			})
			continue
		}
		if int64(len(f.Data)) > u.cfg.MaxFileSizeBytes {
			adm.Rejected = append(adm.Rejected, RejectedFile{
				Name: f.Name,
				Reason: fmt.Sprintf("%.2fMB exceeds %dMB limit",
					float64(len(f.Data))/1024/1024, u.cfg.MaxFileSizeBytes/1024/1024),
			})
			continue
		}
		if int64(len(f.Data)) > u.cfg.LargeFileWarningBytes {
			adm.LargeFiles = append(adm.LargeFiles, f.Name)
		}
		adm.Admitted = append(adm.Admitted, f)
	}
	return adm
}

// Upload sends the given (already admitted) files in sequential
// batches of BatchSize, concurrently within each batch, and returns
// the dataset ids in file order.
//
// The batch join is all-or-nothing: if any file in a batch fails, the
// whole batch fails and sibling results from that batch are not
// surfaced, even though their server-side ingestion may have
// succeeded. Ids from batches completed before the failure are
// returned alongside the error.
func (u *Uploader) Upload(ctx context.Context, accountID string, files []File) ([]string, error) {
	datasetIDs := make([]string, 0, len(files))

	for start := 0; start < len(files); start += u.cfg.BatchSize {
		end := start + u.cfg.BatchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[start:end]

		batchIDs := make([]string, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, f := range batch {
			g.Go(func() error {
				id, err := u.uploadOne(gctx, accountID, f)
				if err != nil {
					return fmt.Errorf("upload failed for %s: %w", f.Name, err)
				}
				batchIDs[i] = id
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return datasetIDs, err
		}
		datasetIDs = append(datasetIDs, batchIDs...)
	}

	return datasetIDs, nil
}

// uploadRequest mirrors the ingestion endpoint's body contract.
type uploadRequest struct {
	AccountID string     `json:"account_id"`
	File      uploadFile `json:"file"`
}

type uploadFile struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

type uploadResponse struct {
	DatasetID string `json:"dataset_id"`
	Success   bool   `json:"success"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (u *Uploader) uploadOne(ctx context.Context, accountID string, f File) (string, error) {
	body, err := json.Marshal(uploadRequest{
		AccountID: accountID,
		File: uploadFile{
			Name: f.Name,
			Data: base64.StdEncoding.EncodeToString(f.Data),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.cfg.IngestURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("server rejected upload (%s): %s", errResp.Error.Code, errResp.Error.Message)
		}
		return "", fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var result uploadResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if result.DatasetID == "" {
		return "", fmt.Errorf("server response missing dataset_id")
	}

	return result.DatasetID, nil
}

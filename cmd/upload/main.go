// Command upload drives the client-side upload coordinator against a
// running ingestion API, then watches aggregate progress until every
// row is accounted for or the process is interrupted.
//
//	upload -server http://localhost:8080 -account acct-1 leads1.csv leads2.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/propscout/api/pkg/progress"
	"github.com/propscout/api/pkg/uploader"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "base URL of the ingestion API")
	account := flag.String("account", "", "account id owning the upload")
	batchSize := flag.Int("batch-size", uploader.DefaultBatchSize, "files uploaded concurrently per batch")
	interval := flag.Duration("interval", progress.DefaultInterval, "progress polling interval")
	flag.Parse()

	if *account == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: upload -account <id> [-server <url>] <file.csv> [...]")
		os.Exit(2)
	}

	files := make([]uploader.File, 0, flag.NArg())
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", path, err)
			os.Exit(1)
		}
		files = append(files, uploader.File{Name: path, Data: data})
	}

	u := uploader.New(uploader.Config{
		IngestURL: *server + "/api/v1/uploads",
		BatchSize: *batchSize,
	})

	adm := u.Admit(files)
	for _, rej := range adm.Rejected {
		fmt.Fprintf(os.Stderr, "skipping %s: %s\n", rej.Name, rej.Reason)
	}
	for _, name := range adm.LargeFiles {
		fmt.Fprintf(os.Stderr, "warning: %s is large, processing may take longer\n", name)
	}
	if len(adm.Admitted) == 0 {
		fmt.Fprintln(os.Stderr, "no valid files to upload")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	datasetIDs, err := u.Upload(ctx, *account, adm.Admitted)
	if err != nil {
		fmt.Fprintf(os.Stderr, "upload failed: %v\n", err)
		if len(datasetIDs) == 0 {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "tracking the %d dataset(s) from completed batches\n", len(datasetIDs))
	}

	for _, id := range datasetIDs {
		fmt.Printf("dataset %s\n", id)
	}

	tracker := progress.New(progress.Config{
		DatasetsURL: *server + "/api/v1/datasets",
		AccountID:   *account,
		Interval:    *interval,
	})

	start := time.Now()
	for snap := range tracker.Watch(ctx, datasetIDs) {
		fmt.Printf("[%s] %d/%d rows processed, %d errors (%.1f%%)\n",
			time.Since(start).Round(time.Second),
			snap.ProcessedCount, snap.RowCount, snap.ErrorCount, snap.Percent)
		if snap.Done() {
			break
		}
	}
}

package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscout/api/internal/config"
	"github.com/propscout/api/internal/logger"
)

// enrichmentServer is a fake enrichment endpoint recording received jobs.
type enrichmentServer struct {
	mu       sync.Mutex
	received []Job
	status   int
}

func newEnrichmentServer(status int) (*enrichmentServer, *httptest.Server) {
	es := &enrichmentServer{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var job Job
		if err := json.NewDecoder(r.Body).Decode(&job); err == nil {
			es.mu.Lock()
			es.received = append(es.received, job)
			es.mu.Unlock()
		}
		w.WriteHeader(es.status)
	}))
	return es, srv
}

func (es *enrichmentServer) jobs() []Job {
	es.mu.Lock()
	defer es.mu.Unlock()
	return append([]Job(nil), es.received...)
}

func (es *enrichmentServer) waitFor(t *testing.T, count int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(es.jobs()) >= count {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d jobs, got %d", count, len(es.jobs()))
}

func newTestDispatcher(url string, queueSize int) *Dispatcher {
	return New(config.DispatchConfig{
		EnrichmentURL: url,
		Workers:       2,
		QueueSize:     queueSize,
	}, logger.New("test"))
}

func TestDispatcher_DeliversOneNotificationPerJob(t *testing.T) {
	es, srv := newEnrichmentServer(http.StatusOK)
	defer srv.Close()

	d := newTestDispatcher(srv.URL, 16)
	d.Start(context.Background())

	d.Enqueue([]Job{
		{PropertyID: "PROP-1", AccountID: "acct-1"},
		{PropertyID: "PROP-2", AccountID: "acct-1"},
		{PropertyID: "PROP-3", AccountID: "acct-1"},
	})

	es.waitFor(t, 3)
	d.Stop(time.Second)

	jobs := es.jobs()
	require.Len(t, jobs, 3)

	seen := make(map[string]bool)
	for _, job := range jobs {
		assert.Equal(t, "acct-1", job.AccountID)
		seen[job.PropertyID] = true
	}
	// No ordering guarantee among dispatches, only delivery
	assert.Len(t, seen, 3)
}

func TestDispatcher_EnqueueDoesNotBlockCaller(t *testing.T) {
	// A server that never responds within the test window
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	d := newTestDispatcher(srv.URL, 2)
	d.Start(context.Background())

	// Far more jobs than queue + workers can hold; Enqueue must
	// still return promptly, dropping the overflow.
	jobs := make([]Job, 100)
	for i := range jobs {
		jobs[i] = Job{PropertyID: "PROP", AccountID: "acct-1"}
	}

	done := make(chan struct{})
	go func() {
		d.Enqueue(jobs)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestDispatcher_FailureIsSwallowed(t *testing.T) {
	es, srv := newEnrichmentServer(http.StatusInternalServerError)
	defer srv.Close()

	d := newTestDispatcher(srv.URL, 16)
	d.Start(context.Background())

	// Enqueue returns normally even though every dispatch will fail
	d.Enqueue([]Job{{PropertyID: "PROP-1", AccountID: "acct-1"}})

	es.waitFor(t, 1)
	d.Stop(time.Second)
}

func TestDispatcher_UnreachableEndpointIsSwallowed(t *testing.T) {
	d := newTestDispatcher("http://127.0.0.1:1", 16)
	d.Start(context.Background())

	d.Enqueue([]Job{{PropertyID: "PROP-1", AccountID: "acct-1"}})
	d.Stop(2 * time.Second)
}

func TestDispatcher_EnqueueAfterStopDropsJobs(t *testing.T) {
	es, srv := newEnrichmentServer(http.StatusOK)
	defer srv.Close()

	d := newTestDispatcher(srv.URL, 16)
	d.Start(context.Background())
	d.Stop(time.Second)

	// Must not panic on a closed queue
	d.Enqueue([]Job{{PropertyID: "PROP-late", AccountID: "acct-1"}})
	assert.Empty(t, es.jobs())
}

func TestDispatcher_StopReleasesWorkerContext(t *testing.T) {
	es, srv := newEnrichmentServer(http.StatusOK)
	defer srv.Close()

	d := newTestDispatcher(srv.URL, 16)
	d.Start(context.Background())

	d.Enqueue([]Job{{PropertyID: "PROP-1", AccountID: "acct-1"}})
	es.waitFor(t, 1)

	d.Stop(time.Second)

	// The derived context is cancelled on a clean drain, not only on
	// the timeout path
	require.Error(t, d.ctx.Err())
}

func TestDispatcher_StopDrainsPendingJobs(t *testing.T) {
	es, srv := newEnrichmentServer(http.StatusOK)
	defer srv.Close()

	d := newTestDispatcher(srv.URL, 64)
	d.Start(context.Background())

	jobs := make([]Job, 20)
	for i := range jobs {
		jobs[i] = Job{PropertyID: "PROP", AccountID: "acct-1"}
	}
	d.Enqueue(jobs)
	d.Stop(5 * time.Second)

	assert.Len(t, es.jobs(), 20)
}

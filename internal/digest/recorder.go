package digest

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coni/hyperisle/internal/logging"
	"github.com/coni/hyperisle/internal/shared/id"
	"github.com/coni/hyperisle/internal/shared/types"
	"github.com/coni/hyperisle/internal/storage"
)

// Recorder queues digest rows and flushes them to storage off the
// pipeline hot path.
type Recorder struct {
	store  *storage.Store
	logger *logging.Logger

	queue chan types.DigestItem
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store *storage.Store, logger *logging.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.Component("digest"),
		queue:  make(chan types.DigestItem, 512),
	}
}

// Start launches the background writer.
func (r *Recorder) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for item := range r.queue {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := r.store.AppendDigest(ctx, item); err != nil {
				r.logger.Warn("digest write failed",
					logging.Pkg(item.PackageName), zap.Error(err))
			}
			cancel()
		}
	}()
}

// Close drains pending rows and stops the writer.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.queue)
	})
	r.wg.Wait()
}

// Record logs one event outcome. Reason is empty for events that
// reached arbitration. Never blocks: a full queue drops the row.
func (r *Recorder) Record(pkg string, postTime time.Time, reason types.Reason) {
	item := types.DigestItem{
		ID:          id.NewDigestID().String(),
		PackageName: pkg,
		PostTime:    postTime,
		Reason:      reason,
	}
	select {
	case r.queue <- item:
	default:
		r.logger.Warn("digest queue full, dropping row", logging.Pkg(pkg))
	}
}

// Query returns raw digest rows within [from, to).
func (r *Recorder) Query(ctx context.Context, from, to time.Time) ([]types.DigestItem, error) {
	return r.store.QueryDigest(ctx, from, to)
}

// AppCount is one per-app aggregate in a summary.
type AppCount struct {
	Package    string `json:"package"`
	Total      int    `json:"total"`
	Suppressed int    `json:"suppressed"`
}

// Summary aggregates a digest range for the summary UI.
type Summary struct {
	From       time.Time      `json:"from"`
	To         time.Time      `json:"to"`
	Total      int            `json:"total"`
	Shown      int            `json:"shown"`
	Suppressed int            `json:"suppressed"`
	ByReason   map[string]int `json:"by_reason"`
	TopApps    []AppCount     `json:"top_apps"`
}

// Summarize aggregates the digest rows within [from, to).
func (r *Recorder) Summarize(ctx context.Context, from, to time.Time) (*Summary, error) {
	items, err := r.store.QueryDigest(ctx, from, to)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		From:     from,
		To:       to,
		ByReason: make(map[string]int),
	}
	perApp := make(map[string]*AppCount)

	for _, item := range items {
		sum.Total++
		app, ok := perApp[item.PackageName]
		if !ok {
			app = &AppCount{Package: item.PackageName}
			perApp[item.PackageName] = app
		}
		app.Total++

		if item.Reason != "" {
			sum.Suppressed++
			sum.ByReason[string(item.Reason)]++
			app.Suppressed++
		} else {
			sum.Shown++
		}
	}

	sum.TopApps = make([]AppCount, 0, len(perApp))
	for _, app := range perApp {
		sum.TopApps = append(sum.TopApps, *app)
	}
	sort.Slice(sum.TopApps, func(i, j int) bool {
		if sum.TopApps[i].Total != sum.TopApps[j].Total {
			return sum.TopApps[i].Total > sum.TopApps[j].Total
		}
		return sum.TopApps[i].Package < sum.TopApps[j].Package
	})

	return sum, nil
}

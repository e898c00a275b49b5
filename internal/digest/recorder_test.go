package digest

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coni/hyperisle/internal/logging"
	"github.com/coni/hyperisle/internal/shared/types"
	"github.com/coni/hyperisle/internal/storage"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "digest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	r := NewRecorder(store, logging.NewDevelopment())
	r.Start()
	return r
}

func TestRecordAndSummarize(t *testing.T) {
	r := newTestRecorder(t)
	base := time.UnixMilli(1_000_000)

	r.Record("com.example.chat", base.Add(1*time.Minute), types.ReasonMuted)
	r.Record("com.example.chat", base.Add(2*time.Minute), types.ReasonMuted)
	r.Record("com.example.chat", base.Add(3*time.Minute), "")
	r.Record("com.dialer", base.Add(4*time.Minute), "")
	r.Close()

	sum, err := r.Summarize(context.Background(), base, base.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 2, sum.Shown)
	assert.Equal(t, 2, sum.Suppressed)
	assert.Equal(t, 2, sum.ByReason[string(types.ReasonMuted)])

	require.Len(t, sum.TopApps, 2)
	assert.Equal(t, "com.example.chat", sum.TopApps[0].Package)
	assert.Equal(t, 3, sum.TopApps[0].Total)
	assert.Equal(t, 2, sum.TopApps[0].Suppressed)
}

func TestExportGzipRoundTrip(t *testing.T) {
	r := newTestRecorder(t)
	base := time.UnixMilli(1_000_000)

	r.Record("com.example.chat", base.Add(time.Minute), types.ReasonCooldown)
	r.Close()

	var buf bytes.Buffer
	require.NoError(t, r.ExportGzip(context.Background(), &buf, base, base.Add(time.Hour)))

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)

	var doc struct {
		Items []types.DigestItem `json:"items"`
	}
	require.NoError(t, sonic.Unmarshal(raw, &doc))
	require.Len(t, doc.Items, 1)
	assert.Equal(t, types.ReasonCooldown, doc.Items[0].Reason)
}

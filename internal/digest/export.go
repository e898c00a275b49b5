package digest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
)

// ExportGzip writes the digest rows within [from, to) as a
// gzip-compressed JSON document.
func (r *Recorder) ExportGzip(ctx context.Context, w io.Writer, from, to time.Time) error {
	items, err := r.store.QueryDigest(ctx, from, to)
	if err != nil {
		return err
	}

	payload, err := sonic.Marshal(map[string]any{
		"from":  from,
		"to":    to,
		"items": items,
	})
	if err != nil {
		return fmt.Errorf("encode digest export: %w", err)
	}

	gz := gzip.NewWriter(w)
	if _, err := gz.Write(payload); err != nil {
		gz.Close()
		return fmt.Errorf("compress digest export: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finish digest export: %w", err)
	}
	return nil
}

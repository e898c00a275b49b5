package http

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coni/hyperisle/internal/shared/types"
)

// digestWindow reads the from/to query parameters as unix milliseconds,
// defaulting to the trailing 24 hours.
func digestWindow(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.Add(-24 * time.Hour)
	to := now

	if raw := c.Query("from"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from: %q", raw)
		}
		from = time.UnixMilli(ms)
	}
	if raw := c.Query("to"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to: %q", raw)
		}
		to = time.UnixMilli(ms)
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to precedes from")
	}
	return from, to, nil
}

func validActionKind(kind types.ActionKind) bool {
	switch kind {
	case types.ActionAccept, types.ActionDecline, types.ActionDismiss,
		types.ActionReply, types.ActionOpen, types.ActionMute,
		types.ActionBlock, types.ActionExpand:
		return true
	}
	return false
}

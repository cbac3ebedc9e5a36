package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrRetryExhausted is returned once every retry attempt against an
// upstream server has failed.
var ErrRetryExhausted = errors.New("mcp tool call failed after retries")

// retryDelays are the backoff steps for a transient upstream failure
// (spec §14 "Tool-call retry/backoff for MCP upstream").
var retryDelays = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

var retryAfterRe = regexp.MustCompile(`Retry-After:\s*(\d+)`)
var tryAgainRe = regexp.MustCompile(`Try again in (\d+) seconds?`)

func parseRetryAfter(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	msg := err.Error()
	if m := retryAfterRe.FindStringSubmatch(msg); len(m) > 1 {
		if s, e := strconv.Atoi(m[1]); e == nil {
			return time.Duration(s) * time.Second, true
		}
	}
	if m := tryAgainRe.FindStringSubmatch(msg); len(m) > 1 {
		if s, e := strconv.Atoi(m[1]); e == nil {
			return time.Duration(s) * time.Second, true
		}
	}
	return 0, false
}

// CallWithRetry calls name on upstream, retrying transient (429 / explicit
// Retry-After) failures with bounded backoff before giving up.
func CallWithRetry(ctx context.Context, upstream UpstreamClient, name string, arguments json.RawMessage) (*ToolResult, error) {
	var lastErr error
	for attempt := 0; attempt <= len(retryDelays); attempt++ {
		if attempt > 0 {
			delay := retryDelays[attempt-1]
			if ra, ok := parseRetryAfter(lastErr); ok {
				if ra > 30*time.Second {
					ra = 30 * time.Second
				}
				delay = ra
			}
			log.Warn().Str("tool", name).Int("attempt", attempt).Dur("delay", delay).Err(lastErr).Msg("mcp: retrying tool call")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := upstream.CallTool(ctx, name, arguments)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
}

func isRetryable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "Retry-After") || strings.Contains(msg, "Rate limit")
}

// StringifyContent joins text-typed content blocks and stringifies any
// other block type (image/audio/resource/resource_link) as a placeholder,
// per spec §6's "sanitize names and string args ... format typed content
// blocks to text" requirement.
func StringifyContent(blocks []ContentBlock) string {
	var b strings.Builder
	for _, blk := range blocks {
		if blk.Type == "text" {
			b.WriteString(blk.Text)
			continue
		}
		fmt.Fprintf(&b, "[%s content omitted]", blk.Type)
	}
	return b.String()
}

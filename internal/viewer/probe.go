package viewer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/orgball2608/insta-story-player/internal/domain"
	"github.com/orgball2608/insta-story-player/pkg/logger"
	"github.com/orgball2608/insta-story-player/pkg/retry"
)

var ErrMediaUnavailable = errors.New("story media unavailable")

// Prober loads an item's media far enough to know it can be shown.
type Prober interface {
	Probe(ctx context.Context, item domain.StoryItem) (time.Duration, error)
}

// HTTPProber checks media with a HEAD request. Servers that send
// X-Content-Duration report the video length with it.
type HTTPProber struct {
	client   *http.Client
	logger   logger.Logger
	retryCfg retry.Config
}

func NewHTTPProber(client *http.Client, log logger.Logger, cfg retry.Config) *HTTPProber {
	return &HTTPProber{
		client:   client,
		logger:   log.WithComponent("Prober"),
		retryCfg: cfg,
	}
}

var _ Prober = (*HTTPProber)(nil)

func (p *HTTPProber) Probe(ctx context.Context, item domain.StoryItem) (time.Duration, error) {
	return retry.DoWithData(ctx, p.logger, "probe_media", func() (time.Duration, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, item.MediaURL, nil)
		if err != nil {
			return 0, retry.Permanent(fmt.Errorf("bad media url: %w", err))
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= http.StatusInternalServerError:
			return 0, fmt.Errorf("media server returned %d", resp.StatusCode)
		case resp.StatusCode >= http.StatusBadRequest:
			return 0, retry.Permanent(fmt.Errorf("%w: status %d", ErrMediaUnavailable, resp.StatusCode))
		}

		return parseContentDuration(resp.Header.Get("X-Content-Duration")), nil
	}, p.retryCfg)
}

func parseContentDuration(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

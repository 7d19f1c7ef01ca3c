package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kilianp07/kgc/auth"
	"github.com/kilianp07/kgc/core/schedule"
)

// maxBodyBytes bounds the schedule document size.
const maxBodyBytes = 8 << 20

// HTTPLoader fetches the schedule document over HTTP. Concurrent Load calls
// share a single in-flight request.
type HTTPLoader struct {
	url       *url.URL
	param     string
	userAgent string
	client    *http.Client
	cred      *auth.ClientCred
	now       func() time.Time
	group     singleflight.Group
}

// NewHTTPLoader validates the URL and prepares the client.
func NewHTTPLoader(cfg Config) (*HTTPLoader, error) {
	cfg.SetDefaults()
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("source: parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("source: unsupported url scheme %q", u.Scheme)
	}
	l := &HTTPLoader{
		url:       u,
		param:     cfg.CacheBustParam,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		now:       time.Now,
	}
	if cfg.Auth.Enabled() {
		l.cred = auth.NewClientCred(cfg.Auth)
	}
	return l, nil
}

// Load fetches, decodes and normalizes the schedule. A caller whose ctx ends
// stops waiting without failing the callers sharing the same request.
func (l *HTTPLoader) Load(ctx context.Context) ([]schedule.Record, error) {
	// the shared fetch must outlive any single caller; the client timeout
	// bounds it
	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan("load", func() (any, error) {
		return l.fetch(shared)
	})
	select {
	case <-ctx.Done():
		return nil, loadFailure(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]schedule.Record), nil
	}
}

// requestURL appends the cache-busting timestamp to the configured URL.
func (l *HTTPLoader) requestURL() string {
	u := *l.url
	q := u.Query()
	q.Set(l.param, strconv.FormatInt(l.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String()
}

func (l *HTTPLoader) fetch(ctx context.Context) ([]schedule.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.requestURL(), nil)
	if err != nil {
		return nil, loadFailure(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("User-Agent", l.userAgent)
	if l.cred != nil {
		if err := l.cred.SetAuthHeader(req); err != nil {
			return nil, loadFailure(err)
		}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, loadFailure(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, loadFailure(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, loadFailure(err)
	}
	records, err := schedule.Decode(body)
	if err != nil {
		return nil, loadFailure(err)
	}
	return records, nil
}

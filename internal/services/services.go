// package services defines interface Source for the metadata providers
//
// Spotify, Last.fm, MusicBrainz
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/shared"
	"github.com/tidwall/gjson"
)

// Source is a metadata provider queried once per track.
type Source interface {
	// Name returns the source name, which is also the prefix of its columns.
	Name() string

	// Columns returns the fields this source can produce, in output order.
	Columns() []string

	// Enabled reports whether the source is configured to make network calls.
	Enabled() bool

	// Lookup searches for the track. It never panics and never returns a bare error:
	// every failure is folded into a non-hit [Result].
	Lookup(ctx context.Context, q models.TrackQuery) Result
}

// Outcome classifies a single lookup.
type Outcome int

const (
	Hit      Outcome = iota // Source matched and produced fields
	Miss                    // Source answered but had no match
	Disabled                // Source is not configured; no network call made
	Failed                  // Transport, status or decode failure
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case Disabled:
		return "disabled"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// Result is the tagged outcome of [Source.Lookup].
type Result struct {
	Source  string
	Record  models.SourceRecord
	Outcome Outcome
	Err     error
}

// OK reports whether the result contributes fields to the merged record.
func (r Result) OK() bool {
	return r.Outcome == Hit && len(r.Record) > 0
}

func hit(source string, rec models.SourceRecord) Result {
	if len(rec) == 0 {
		return Result{Source: source, Outcome: Miss, Err: shared.ErrSourceMiss}
	}
	return Result{Source: source, Record: rec, Outcome: Hit}
}

func miss(source string, reason string) Result {
	return Result{Source: source, Outcome: Miss, Err: fmt.Errorf("%w: %s", shared.ErrSourceMiss, reason)}
}

func failed(source string, err error) Result {
	return Result{Source: source, Outcome: Failed, Err: err}
}

func disabled(source string, err error) Result {
	return Result{Source: source, Outcome: Disabled, Err: err}
}

// client holds the transport shared by every source.
type client struct {
	name       string
	baseURL    string
	userAgent  string
	disabled   bool
	httpClient *http.Client
	limiter    *Limiter
	logger     *log.Logger
}

// Option configures a source.
type Option func(*client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *client) {
		if u = strings.TrimSpace(u); u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithLimiter sets the pacing limiter owned by the source.
func WithLimiter(l *Limiter) Option {
	return func(c *client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// WithLogger sets the logger; the source adds its own "source" key.
func WithLogger(l *log.Logger) Option {
	return func(c *client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDisabled turns the source off without removing it from the pipeline.
func WithDisabled(d bool) Option {
	return func(c *client) { c.disabled = d }
}

func newClient(name, baseURL string, opts ...Option) client {
	c := client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		limiter:    NewLimiter(0),
		logger:     shared.NewLogger(io.Discard),
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.logger = shared.WithLogger(c.logger, "source", name)
	return c
}

// response is a raw API reply.
type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// get performs a paced GET request against the source API.
func (c *client) get(ctx context.Context, endpoint string, query url.Values, header http.Header) (*response, error) {
	apiURL := c.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var resp *response
	err := c.limiter.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		req.Header.Set("Accept", "application/json")

		res, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: request failed: %v", shared.ErrTransport, err)
		}
		defer res.Body.Close()

		body, err := io.ReadAll(res.Body)
		if err != nil {
			return fmt.Errorf("%w: failed to read response: %v", shared.ErrTransport, err)
		}

		resp = &response{status: res.StatusCode, body: body}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// getJSON performs get and requires a 2xx status with a valid JSON body.
func (c *client) getJSON(ctx context.Context, endpoint string, query url.Values, header http.Header) ([]byte, error) {
	resp, err := c.get(ctx, endpoint, query, header)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, fmt.Errorf("%w: %s API error: status %d", shared.ErrAPIRequest, c.name, resp.status)
	}
	if !gjson.ValidBytes(resp.body) {
		return nil, fmt.Errorf("failed to decode response: invalid JSON from %s", c.name)
	}
	return resp.body, nil
}

func (c *client) logResult(q models.TrackQuery, r Result) Result {
	if r.Err != nil {
		c.logger.Debug("lookup", "track", q.String(), "outcome", r.Outcome, "error", r.Err)
	} else {
		c.logger.Debug("lookup", "track", q.String(), "outcome", r.Outcome, "fields", len(r.Record))
	}
	return r
}

// put stores a scalar JSON value as text. Missing and null values are left absent.
func put(rec models.SourceRecord, key string, v gjson.Result) {
	if !v.Exists() || v.Type == gjson.Null {
		return
	}
	rec[key] = v.String()
}

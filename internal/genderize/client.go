package genderize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mcules/gender-form/internal/metrics"
)

// Exactly one of these three errors (or success) comes out of every Predict
// call. There is no retry.
var (
	// ErrNotFound: the endpoint answered 404 for this name.
	ErrNotFound = errors.New("genderize: no prediction for name")
	// ErrUpstream: any other non-2xx answer.
	ErrUpstream = errors.New("genderize: upstream error")
	// ErrUnreachable: the request never completed, or the body was not valid JSON.
	ErrUnreachable = errors.New("genderize: request failed")
)

type Client struct {
	BaseURL string
	HTTP    *http.Client

	// Optional observability. Both may be nil.
	Logger  *zap.Logger
	Latency *metrics.Tracker
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Result is the endpoint's answer for one name. A nil Gender means the
// service has no data for that name; that is not an error.
type Result struct {
	Name        string  `json:"name"`
	Gender      *string `json:"gender"`
	Probability float64 `json:"probability"`
	Count       int64   `json:"count"`
}

// Display renders the result the way the form shows it, e.g. "87.00% male".
// Callers must check Gender for nil first.
func (r *Result) Display() string {
	if r == nil || r.Gender == nil {
		return ""
	}
	return fmt.Sprintf("%.2f%% %s", r.Probability*100, *r.Gender)
}

// Predict issues a single GET {base}/?name=<url-encoded> and maps the answer
// to a Result or one of the three sentinel errors.
func (c *Client) Predict(ctx context.Context, name string) (*Result, error) {
	// Operators configure the base URL with or without a trailing slash.
	target := strings.TrimSuffix(c.BaseURL, "/") + "/?name=" + url.QueryEscape(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	start := time.Now()
	res, reqErr := c.HTTP.Do(req)
	rtt := time.Since(start)
	if reqErr != nil {
		c.observe(rtt, false)
		c.logError("prediction request failed", name, reqErr)
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, reqErr)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		c.observe(rtt, true)
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if res.StatusCode/100 != 2 {
		c.observe(rtt, false)
		err := fmt.Errorf("%w: status=%d", ErrUpstream, res.StatusCode)
		c.logError("prediction upstream error", name, err)
		return nil, err
	}

	var out Result
	if decErr := json.NewDecoder(res.Body).Decode(&out); decErr != nil {
		c.observe(rtt, false)
		c.logError("prediction decode failed", name, decErr)
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, decErr)
	}

	c.observe(rtt, true)
	if c.Logger != nil {
		c.Logger.Info("prediction fetched",
			zap.String("name", name),
			zap.Bool("has_gender", out.Gender != nil),
			zap.Float64("probability", out.Probability),
			zap.Duration("rtt", rtt),
		)
	}
	return &out, nil
}

func (c *Client) observe(rtt time.Duration, ok bool) {
	if c.Latency == nil {
		return
	}
	if ok {
		c.Latency.ObserveOK(c.host(), rtt)
	} else {
		c.Latency.ObserveError(c.host(), rtt)
	}
}

func (c *Client) host() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" {
		return c.BaseURL
	}
	return u.Host
}

func (c *Client) logError(msg, name string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Error(msg, zap.String("name", name), zap.Error(err))
}

package providers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 8 << 20

// Options holds the resilience settings shared by every adapter.
type Options struct {
	HTTPClient *http.Client
	Policy     Policy
	Breaker    BreakerSettings
	Timeout    time.Duration // per attempt
}

func (o Options) withDefaults(timeout time.Duration) Options {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	if o.Policy.Attempts <= 0 {
		o.Policy = DefaultPolicy
	}
	if o.Breaker == (BreakerSettings{}) {
		o.Breaker = DefaultBreakerSettings
	}
	if o.Timeout <= 0 {
		o.Timeout = timeout
	}
	return o
}

// caller bundles one provider's HTTP client, retry policy and breaker.
type caller struct {
	provider string
	http     *http.Client
	policy   Policy
	breaker  *Breaker
	timeout  time.Duration
}

func newCaller(provider string, o Options) *caller {
	return &caller{
		provider: provider,
		http:     o.HTTPClient,
		policy:   o.Policy,
		breaker:  NewBreaker(provider, o.Breaker),
		timeout:  o.Timeout,
	}
}

// call runs fn under the retry policy, each attempt bounded by timeout (the
// caller's default when zero) and guarded by the breaker.
func call[T any](ctx context.Context, c *caller, operation string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	start := time.Now()
	v, err := Retry(ctx, c.policy, func(ctx context.Context) (T, error) {
		actx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return guard(c.breaker, func() (T, error) { return fn(actx) })
	})
	observe(c.provider, operation, err, time.Since(start))
	return v, err
}

// doJSON performs one HTTP exchange. A non-nil body is sent as JSON; a 2xx
// response is decoded into out when out is non-nil.
func (c *caller) doJSON(ctx context.Context, method, url string, header http.Header, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Provider: c.provider, Kind: KindRejected, Err: err}
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return &Error{Provider: c.provider, Kind: KindRejected, Err: err}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(c.provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return transportError(c.provider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(c.provider, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return malformed(c.provider, err)
	}
	return nil
}

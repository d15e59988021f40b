// Package fallback resolves channel identifiers without the Data API,
// trying alternate backends in order until one succeeds. It exists for
// the quota-exhausted and no-credential paths; results are equivalent
// to API resolutions but may carry less metadata.
package fallback

import (
	"context"
	"errors"
	"log"
	"net/url"
	"time"

	ytfhttp "ytfeed/http"
	"ytfeed/youtube"
)

// DefaultRelays are CORS relay prefixes tried after a direct fetch of
// each source fails. The target URL is appended query-escaped. The
// empty string means "no relay" and is always implied first.
var DefaultRelays = []string{
	"https://api.allorigins.win/raw?url=",
	"https://corsproxy.io/?",
}

// DefaultAttemptTimeout bounds one source+relay attempt so a hanging
// mirror cannot stall the whole chain.
const DefaultAttemptTimeout = 8 * time.Second

// Chain tries each source in order, direct first and then through each
// relay, and returns the first successful resolution. Sources are
// independent; one failing never prevents the next from being tried.
type Chain struct {
	client         *ytfhttp.Client
	sources        []Source
	relays         []string
	attemptTimeout time.Duration
}

// NewChain creates a chain with the default sources and relays.
func NewChain(client *ytfhttp.Client) *Chain {
	if client == nil {
		client = ytfhttp.New(nil)
	}
	return &Chain{
		client:         client,
		sources:        DefaultSources(),
		relays:         DefaultRelays,
		attemptTimeout: DefaultAttemptTimeout,
	}
}

// SetSources replaces the source order.
func (c *Chain) SetSources(sources []Source) {
	c.sources = sources
}

// SetRelays replaces the relay list. nil disables relays entirely.
func (c *Chain) SetRelays(relays []string) {
	c.relays = relays
}

// SetAttemptTimeout overrides the per-attempt timeout.
func (c *Chain) SetAttemptTimeout(d time.Duration) {
	c.attemptTimeout = d
}

// Resolve tries every source until one yields a resolution. A source
// that cannot handle the identifier kind is skipped, failures are
// logged and the chain moves on. Once all attempts are exhausted the
// identifier is reported as not found; exhaustion is indistinguishable
// from a channel that does not exist.
func (c *Chain) Resolve(ctx context.Context, id youtube.ChannelIdentifier) (*youtube.ChannelResolution, error) {
	if id.Kind == youtube.KindInvalid {
		return nil, &youtube.ResolveError{Source: "fallback", Query: id.Raw, Err: youtube.ErrInvalidInput}
	}

	for _, source := range c.sources {
		target := source.BuildURL(id)
		if target == "" {
			continue
		}

		for _, relay := range append([]string{""}, c.relays...) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			res, err := c.attempt(ctx, source, relay, target, id)
			if err != nil {
				label := source.Name
				if relay != "" {
					label += " via " + relayHost(relay)
				}
				log.Printf("fallback: %s: %v", label, err)
				continue
			}

			res.Source = source.Name
			if relay != "" {
				res.Source += "+" + relayHost(relay)
			}
			return res, nil
		}
	}

	return nil, &youtube.ResolveError{Source: "fallback", Query: id.Raw, Err: youtube.ErrChannelNotFound}
}

// attempt fetches target (optionally through relay) and parses it.
func (c *Chain) attempt(ctx context.Context, source Source, relay, target string, id youtube.ChannelIdentifier) (*youtube.ChannelResolution, error) {
	fetchURL := target
	if relay != "" {
		fetchURL = relay + url.QueryEscape(target)
	}

	attemptCtx := ctx
	if c.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
		defer cancel()
	}

	resp, err := c.client.Get(attemptCtx, fetchURL)
	if err != nil {
		return nil, err
	}

	res, err := source.Parse(resp.Body, id)
	if err != nil {
		return nil, err
	}
	if res.ChannelID == "" {
		return nil, errors.New("source returned empty channel id")
	}
	return res, nil
}

// relayHost extracts a short label for a relay prefix.
func relayHost(relay string) string {
	if u, err := url.Parse(relay); err == nil && u.Host != "" {
		return u.Host
	}
	return relay
}

package portal

import (
	"context"
	"net/url"
	"time"

	"github.com/HerbHall/labportal/internal/fetch"
	"go.uber.org/zap"
)

// DefaultPingPath is the auth-gate liveness page.
const DefaultPingPath = "/portal/ping.html"

// ResilientLoader fetches the config document with exponential backoff and
// publishes each success into a Store.
type ResilientLoader struct {
	client          *fetch.Client
	configURL       string
	pingURL         string
	manifestVersion string
	backoff         fetch.Backoff
	store           *Store
	logger          *zap.Logger
}

// ResilientConfig configures a ResilientLoader.
type ResilientConfig struct {
	ConfigURL string
	PingURL   string
	// ManifestVersion, when set, is appended as ?v= to bust intermediary caches.
	ManifestVersion string
	Backoff         fetch.Backoff
}

// NewResilientLoader creates a loader writing into store.
func NewResilientLoader(client *fetch.Client, cfg ResilientConfig, store *Store, logger *zap.Logger) *ResilientLoader {
	if cfg.Backoff.MaxAttempts == 0 {
		cfg.Backoff = fetch.DefaultBackoff()
	}
	if cfg.Backoff.Name == "" {
		cfg.Backoff.Name = "portal_config"
	}
	return &ResilientLoader{
		client:          client,
		configURL:       cfg.ConfigURL,
		pingURL:         cfg.PingURL,
		manifestVersion: cfg.ManifestVersion,
		backoff:         cfg.Backoff,
		store:           store,
		logger:          logger,
	}
}

// URL returns the config URL including the manifest version query, if any.
func (r *ResilientLoader) URL() string {
	if r.manifestVersion == "" {
		return r.configURL
	}
	u, err := url.Parse(r.configURL)
	if err != nil {
		return r.configURL + "?v=" + url.QueryEscape(r.manifestVersion)
	}
	q := u.Query()
	q.Set("v", r.manifestVersion)
	u.RawQuery = q.Encode()
	return u.String()
}

// Fetch retries the config GET with backoff. Success overwrites the store.
// Exhausting every attempt returns (nil, false); it is not an error.
func (r *ResilientLoader) Fetch(ctx context.Context) (*Document, bool) {
	b := r.backoff
	b.OnRetry = func(attempt int, delay time.Duration, err error) {
		r.logger.Debug("config fetch failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.String("outcome", fetch.Outcome(err)),
			zap.Error(err),
		)
	}

	target := r.URL()
	doc, attempts, err := fetch.Retry(ctx, b, func(ctx context.Context, _ int) (*Document, error) {
		body, err := r.client.GetBytes(ctx, target,
			fetch.WithCache(fetch.CacheNoStore),
			fetch.WithAccept("application/json"),
		)
		if err != nil {
			return nil, err
		}
		return Parse(body)
	})
	if err != nil {
		r.logger.Warn("portal config unavailable",
			zap.String("url", target),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return nil, false
	}

	r.store.Set(ctx, doc)
	r.logger.Info("portal config loaded",
		zap.String("url", target),
		zap.Int("attempts", attempts),
		zap.Int("sections", len(doc.Sections)),
	)
	return doc, true
}

// Ping reports whether the auth gate answers with a 2xx status.
func (r *ResilientLoader) Ping(ctx context.Context) bool {
	if r.pingURL == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, fetch.DefaultTimeout)
	defer cancel()
	return r.client.Ping(ctx, r.pingURL)
}

// Init runs the startup sequence: fetch the config, then ping the auth gate,
// and records the result in the store.
func (r *ResilientLoader) Init(ctx context.Context) Readiness {
	doc, _ := r.Fetch(ctx)
	ok := r.Ping(ctx)
	if !ok {
		r.logger.Warn("portal auth ping failed; dependent frames should wait",
			zap.String("url", r.pingURL),
		)
	}
	ready := Readiness{Config: doc, Auth: ok}
	r.store.SetReadiness(ready)
	return ready
}

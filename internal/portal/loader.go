package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HerbHall/labportal/internal/fetch"
)

// ErrConfigUnavailable is returned when the config endpoint answers with a
// non-2xx status. The error also matches fetch.ErrHTTPStatus.
var ErrConfigUnavailable = errors.New("portal config unavailable")

// DefaultConfigPath is where the portal serves its configuration document.
const DefaultConfigPath = "/_assets/portal.config.json"

// AutoThemer switches the display theme to follow the system preference.
type AutoThemer interface {
	FollowSystem(ctx context.Context)
}

// LoadOptions tunes a single Load.
type LoadOptions struct {
	// Portal marks the top-level portal entry point; only then does an "auto"
	// appearance trigger the AutoThemer.
	Portal bool
}

// Loader performs one deadline-bounded fetch of the config document, without retry.
type Loader struct {
	client  *fetch.Client
	url     string
	timeout time.Duration
	themer  AutoThemer
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithTimeout overrides fetch.DefaultTimeout.
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) { l.timeout = d }
}

// WithAutoThemer sets the hook invoked for portal loads with theme "auto".
func WithAutoThemer(t AutoThemer) LoaderOption {
	return func(l *Loader) { l.themer = t }
}

// NewLoader creates a Loader for the document at url.
func NewLoader(client *fetch.Client, url string, opts ...LoaderOption) *Loader {
	l := &Loader{client: client, url: url, timeout: fetch.DefaultTimeout}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load fetches and parses the document. The server copy is always revalidated.
// It fails with ErrConfigUnavailable on a non-2xx status, fetch.ErrTimeout when
// the deadline passes first, and fetch.ErrParse for a malformed body.
func (l *Loader) Load(ctx context.Context, opts LoadOptions) (*Document, error) {
	doc, err := fetch.Race(ctx, l.timeout, func(ctx context.Context) (*Document, error) {
		body, err := l.client.GetBytes(ctx, l.url,
			fetch.WithCache(fetch.CacheNoCache),
			fetch.WithAccept("application/json"),
		)
		if err != nil {
			return nil, err
		}
		return Parse(body)
	})
	if err != nil {
		if errors.Is(err, fetch.ErrHTTPStatus) {
			return nil, fmt.Errorf("%w: %w", ErrConfigUnavailable, err)
		}
		return nil, err
	}

	if opts.Portal && l.themer != nil && isAuto(doc.Appearance.Theme) {
		l.themer.FollowSystem(ctx)
	}
	return doc, nil
}

// isAuto reports whether an appearance theme asks to follow the system.
func isAuto(mode string) bool {
	return strings.EqualFold(strings.TrimSpace(mode), "auto")
}

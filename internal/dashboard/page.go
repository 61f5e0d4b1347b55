package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/HerbHall/labportal/internal/fetch"
	"github.com/HerbHall/labportal/internal/hass"
	"github.com/HerbHall/labportal/internal/poller"
	"github.com/HerbHall/labportal/internal/portal"
)

// Badge states that do not come from Home Assistant.
const (
	BadgeUnreachable = "unreachable"
	BadgeUnknown     = "unknown"
)

// maxBadgeFetches bounds concurrent badge lookups per page render.
const maxBadgeFetches = 4

// Page is the template model for the dashboard.
type Page struct {
	Title       string
	Greeting    string
	ThemeMarker string
	Following   bool
	Loaded      bool
	Tiles       []TileView
	Badges      []BadgeView
	Presence    []poller.Presence
	Version     string
}

// TileView is a nav tile ready for rendering.
type TileView struct {
	Href   string
	Label  string
	Icon   string
	Desc   string
	Target string
}

// BadgeView is a status badge with its resolved state.
type BadgeView struct {
	Label string
	State string
	Class string
}

// Greeting returns the time-of-day greeting for t.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "Good morning"
	case h < 18:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

// Tiles converts the nav section of doc into tile views.
func Tiles(doc *portal.Document) []TileView {
	tiles := doc.NavTiles(nil)
	out := make([]TileView, 0, len(tiles))
	for _, t := range tiles {
		out = append(out, TileView{
			Href:   t.Href,
			Label:  t.Label,
			Icon:   portal.IconFor(t.Icon),
			Desc:   t.Desc,
			Target: t.LinkTarget(),
		})
	}
	return out
}

// Badges resolves every badge widget of doc. Each lookup is bounded by
// timeout; a failed lookup renders as unreachable. Order follows the document.
func Badges(ctx context.Context, states StateFetcher, doc *portal.Document, timeout time.Duration) []BadgeView {
	widgets := doc.Badges()
	out := make([]BadgeView, len(widgets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBadgeFetches)
	for i, w := range widgets {
		if w.Source == "" || states == nil {
			out[i] = BadgeView{Label: w.Label, State: BadgeUnknown, Class: hass.BadgeClass(BadgeUnknown)}
			continue
		}
		g.Go(func() error {
			out[i] = resolveBadge(gctx, states, w, timeout)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func resolveBadge(ctx context.Context, states StateFetcher, w portal.Widget, timeout time.Duration) BadgeView {
	st, err := fetch.WithDeadline(ctx, timeout, func(ctx context.Context) (*hass.EntityState, error) {
		return states.GetSource(ctx, w.Source)
	})
	if err != nil || st == nil {
		return BadgeView{Label: w.Label, State: BadgeUnreachable, Class: hass.BadgeErr}
	}
	state := st.State
	if state == "" {
		state = BadgeUnknown
	}
	return BadgeView{Label: w.Label, State: state, Class: hass.BadgeClass(state)}
}

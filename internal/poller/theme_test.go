package poller

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/labportal/internal/fetch"
	"github.com/HerbHall/labportal/internal/hass"
	"github.com/HerbHall/labportal/internal/portal"
	"github.com/HerbHall/labportal/internal/testutil"
	"github.com/HerbHall/labportal/internal/theme"
)

const themeEntity = "input_select.portal_theme"

func newThemeRig(t *testing.T, initial string) (*testutil.HomeAssistant, *ThemeObserver, *theme.Resolver) {
	t.Helper()
	ha := testutil.NewHomeAssistant(t, map[string]string{themeEntity: initial})
	client := hass.NewClient(fetch.NewClient(nil, ""), ha.URL, "", "token")
	obs := NewThemeObserver(client, 5*time.Millisecond, time.Second, zap.NewNop())
	t.Cleanup(obs.Stop)

	resolver := theme.NewResolver(theme.NewMemoryStore(""), theme.NewSystemPreference(theme.Dark), nil, zap.NewNop(),
		theme.WithEntityWatcher(obs.Watch))
	return ha, obs, resolver
}

func TestThemeObserver_DarkUnreachableLight(t *testing.T) {
	ha, obs, resolver := newThemeRig(t, "dark")
	resolver.Init(context.Background(), portal.Appearance{Theme: "light", HAThemeEntity: themeEntity})

	eventually(t, "dark from entity", func() bool { return resolver.Active() == theme.Dark })

	ha.SetDown(true)
	eventually(t, "unreachable status", func() bool {
		st, ok := obs.Status(themeEntity)
		return ok && !st.Reachable && st.Err != nil
	})
	if resolver.Active() != theme.Dark {
		t.Errorf("theme changed while unreachable: %q", resolver.Active())
	}

	ha.Set(themeEntity, "light")
	ha.SetDown(false)
	eventually(t, "light from entity", func() bool { return resolver.Active() == theme.Light })
}

func TestThemeObserver_StateIsCaseInsensitive(t *testing.T) {
	_, _, resolver := newThemeRig(t, "DARK")
	resolver.Init(context.Background(), portal.Appearance{Theme: "light", HAThemeEntity: themeEntity})

	eventually(t, "dark from upper-case entity", func() bool { return resolver.Active() == theme.Dark })
}

func TestThemeObserver_AutoFollowsWithoutStopping(t *testing.T) {
	ha, obs, resolver := newThemeRig(t, "auto")
	resolver.Init(context.Background(), portal.Appearance{HAThemeEntity: themeEntity})

	eventually(t, "following system", func() bool { return resolver.Following() })
	if resolver.Active() != theme.Dark {
		t.Errorf("Active() = %q, want system dark", resolver.Active())
	}

	// The poll keeps running after auto: a later explicit state still lands.
	ha.Set(themeEntity, "light")
	eventually(t, "light after auto", func() bool { return resolver.Active() == theme.Light })

	st, ok := obs.Status(themeEntity)
	if !ok || !st.Reachable {
		t.Errorf("status = %+v, %v", st, ok)
	}
}

func TestThemeObserver_ManualToggleDoesNotStopPolling(t *testing.T) {
	ha, _, resolver := newThemeRig(t, "dark")
	resolver.Init(context.Background(), portal.Appearance{HAThemeEntity: themeEntity})
	eventually(t, "dark", func() bool { return resolver.Active() == theme.Dark })

	ha.SetDown(true)
	if got, err := resolver.Toggle(context.Background()); err != nil || got != theme.Light {
		t.Fatalf("Toggle = %q, %v", got, err)
	}
	ha.SetDown(false)
	// The entity state wins again on the next poll.
	eventually(t, "entity re-applies dark", func() bool { return resolver.Active() == theme.Dark })
}

func TestThemeObserver_WatchIsIdempotent(t *testing.T) {
	_, obs, _ := newThemeRig(t, "dark")
	noop := func(context.Context, string) {}
	obs.Watch(context.Background(), themeEntity, noop)
	obs.Watch(context.Background(), themeEntity, noop)

	obs.mu.Lock()
	n := len(obs.handles)
	obs.mu.Unlock()
	if n != 1 {
		t.Errorf("handles = %d, want 1", n)
	}
}

package portal

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/HerbHall/labportal/internal/event"
)

func TestStore_SetOverwritesAndPublishes(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	var got []*Document
	bus.Subscribe(TopicConfigLoaded, func(_ context.Context, e event.Event) {
		got = append(got, e.Payload.(*Document))
	})

	s := NewStore(bus)
	if s.Document() != nil {
		t.Fatal("new store should be empty")
	}
	if !s.LoadedAt().IsZero() {
		t.Error("LoadedAt should be zero before the first Set")
	}

	first := &Document{Title: "one"}
	second := &Document{Title: "two"}
	s.Set(context.Background(), first)
	s.Set(context.Background(), second)

	if s.Document() != second {
		t.Errorf("Document() = %v, want the last Set", s.Document())
	}
	if s.LoadedAt().IsZero() {
		t.Error("LoadedAt should be set")
	}
	if len(got) != 2 || got[1] != second {
		t.Errorf("published = %v, want both documents in order", got)
	}
}

func TestStore_Readiness(t *testing.T) {
	s := NewStore(nil)
	if _, ok := s.Readiness(); ok {
		t.Fatal("readiness should be unset before Init")
	}

	doc := &Document{}
	s.SetReadiness(Readiness{Config: doc, Auth: true})
	r, ok := s.Readiness()
	if !ok || r.Config != doc || !r.Auth {
		t.Errorf("Readiness() = %+v, %v", r, ok)
	}
}

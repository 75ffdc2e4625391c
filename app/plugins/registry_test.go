package plugins

import (
	"context"
	"testing"

	"github.com/fieldserve/dispatch/core/factory"
	"github.com/fieldserve/dispatch/core/geo"
	coremetrics "github.com/fieldserve/dispatch/core/metrics"
	inframetrics "github.com/fieldserve/dispatch/infra/metrics"
)

func TestNewGeocoder_Static(t *testing.T) {
	g, err := NewGeocoder(factory.ModuleConfig{
		Type: "static",
		Conf: map[string]any{
			"addresses": map[string]any{
				"1 main st": map[string]any{"lat": 48.85, "lon": 2.35},
			},
		},
	})
	if err != nil {
		t.Fatalf("new geocoder: %v", err)
	}
	p, err := g.GeocodeAddress(context.Background(), "1 Main St")
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	if p.Lat != 48.85 || p.Lon != 2.35 {
		t.Fatalf("unexpected point %+v", p)
	}
}

func TestNewGeocoder_Unknown(t *testing.T) {
	if _, err := NewGeocoder(factory.ModuleConfig{Type: "osm"}); err == nil {
		t.Fatal("expected unknown type error")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	err := RegisterGeocoder("static", func(map[string]any) (geo.Geocoder, error) {
		return nil, nil
	})
	if err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestNewSink_Empty(t *testing.T) {
	s, err := NewSink()
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if _, ok := s.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}
}

func TestNewSink_Single(t *testing.T) {
	s, err := NewSink(factory.ModuleConfig{Type: "nop"})
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if _, ok := s.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}
}

func TestNewSink_FansOut(t *testing.T) {
	s, err := NewSink(
		factory.ModuleConfig{Type: "nop"},
		factory.ModuleConfig{Type: "nop"},
	)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if _, ok := s.(*inframetrics.MultiSink); !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}
}

func TestNewSink_Unknown(t *testing.T) {
	if _, err := NewSink(factory.ModuleConfig{Type: "statsd"}); err == nil {
		t.Fatal("expected unknown type error")
	}
}

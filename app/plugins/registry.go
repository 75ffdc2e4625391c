// Package plugins maps configuration type names to concrete infrastructure
// implementations. Builtins cover the in-tree adapters; external builds can
// register their own factories from an init function.
package plugins

import (
	"github.com/fieldserve/dispatch/core/factory"
	"github.com/fieldserve/dispatch/core/geo"
	coremetrics "github.com/fieldserve/dispatch/core/metrics"
	inframetrics "github.com/fieldserve/dispatch/infra/metrics"
)

var (
	geocoders = factory.NewRegistry[geo.Geocoder]()
	sinks     = factory.NewRegistry[coremetrics.Sink]()
)

// RegisterGeocoder adds a geocoder factory identified by name.
func RegisterGeocoder(name string, f factory.Factory[geo.Geocoder]) error {
	return geocoders.Register(name, f)
}

// RegisterSink adds a metrics sink factory identified by name.
func RegisterSink(name string, f factory.Factory[coremetrics.Sink]) error {
	return sinks.Register(name, f)
}

// NewGeocoder instantiates the geocoder described by cfg.
func NewGeocoder(cfg factory.ModuleConfig) (geo.Geocoder, error) {
	return geocoders.Create(cfg)
}

// NewSink builds one sink per module config. Zero configs yield a NopSink;
// several fan out through a MultiSink.
func NewSink(cfgs ...factory.ModuleConfig) (coremetrics.Sink, error) {
	if len(cfgs) == 0 {
		return coremetrics.NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinks.Create(cfgs[0])
	}
	built := make([]coremetrics.Sink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinks.Create(c)
		if err != nil {
			return nil, err
		}
		built[i] = s
	}
	return inframetrics.NewMultiSink(built...), nil
}

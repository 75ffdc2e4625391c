package plugins

import (
	"github.com/fieldserve/dispatch/core/factory"
	"github.com/fieldserve/dispatch/core/geo"
	coremetrics "github.com/fieldserve/dispatch/core/metrics"
	"github.com/fieldserve/dispatch/core/model"
	"github.com/fieldserve/dispatch/infra/geocode"
	inframetrics "github.com/fieldserve/dispatch/infra/metrics"
)

// init registers the built-in geocoder and metrics sink factories.
func init() {
	_ = RegisterGeocoder("static", func(conf map[string]any) (geo.Geocoder, error) {
		var c struct {
			Addresses map[string]model.Point `json:"addresses"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return geocode.NewStatic(c.Addresses), nil
	})

	_ = RegisterSink("nop", func(map[string]any) (coremetrics.Sink, error) {
		return coremetrics.NopSink{}, nil
	})
	_ = RegisterSink("prometheus", func(conf map[string]any) (coremetrics.Sink, error) {
		var mc coremetrics.Config
		if err := factory.Decode(conf, &mc); err != nil {
			return nil, err
		}
		return inframetrics.NewPromSink(mc)
	})
	_ = RegisterSink("influx", func(conf map[string]any) (coremetrics.Sink, error) {
		var mc coremetrics.Config
		if err := factory.Decode(conf, &mc); err != nil {
			return nil, err
		}
		return inframetrics.NewInfluxSinkWithFallback(mc), nil
	})
}

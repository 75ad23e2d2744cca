//go:build vips

package main

import (
	thumbnails "github.com/xZise/ElegooNeptuneThumbnails-Prusa"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/adapters/vips"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/config"
)

func installBackend(inj *thumbnails.Injector, cfg config.Config) (func(), error) {
	if cfg.Backend != config.BackendVips {
		return func() {}, nil
	}
	backend := vips.NewBackend(vips.BackendConfig{
		DefaultQuality: cfg.JPEGQuality,
		Resampler:      cfg.Resampler,
		MaxWorkers:     cfg.WorkerCount,
	})
	vips.Register(inj.Registry(), backend)
	return backend.Shutdown, nil
}

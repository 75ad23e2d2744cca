//go:build !vips

package main

import (
	"errors"

	thumbnails "github.com/xZise/ElegooNeptuneThumbnails-Prusa"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/config"
)

func installBackend(_ *thumbnails.Injector, cfg config.Config) (func(), error) {
	if cfg.Backend == config.BackendVips {
		return nil, errors.New("backend vips requested but this binary was built without the vips tag")
	}
	return func() {}, nil
}

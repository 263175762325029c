package rodsurface

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/npillmayer/sdom/config"
)

// Launch starts a local browser, or connects to a running one if
// cfg.Remote is set, and returns the connected browser. Cancelling ctx
// terminates a launched browser.
func Launch(ctx context.Context, cfg config.Browser) (*rod.Browser, error) {
	wsURL := cfg.Remote
	if wsURL == "" {
		l := launcher.New().Context(ctx).Headless(!cfg.Headful)
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}
		if cfg.NoSandbox {
			l = l.NoSandbox(true)
		}
		if cfg.UserDataDir != "" {
			l = l.UserDataDir(cfg.UserDataDir)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("rodsurface: launch browser: %w", err)
		}
		wsURL = u
		tracer().Infof("rodsurface: launched local browser at %s", wsURL)
	} else {
		tracer().Infof("rodsurface: connecting to %s", wsURL)
	}
	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("rodsurface: connect: %w", err)
	}
	return b, nil
}

// NewPage opens a blank page on b with the viewport of cfg and opens a
// surface on it.
func NewPage(ctx context.Context, b *rod.Browser, cfg config.Browser) (*Surface, error) {
	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("rodsurface: create page: %w", err)
	}
	if cfg.Viewport.Width > 0 && cfg.Viewport.Height > 0 {
		err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             cfg.Viewport.Width,
			Height:            cfg.Viewport.Height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("rodsurface: set viewport: %w", err)
		}
	}
	s, err := Open(ctx, page, WithTimeout(cfg.Timeout))
	if err != nil {
		_ = page.Close()
		return nil, err
	}
	return s, nil
}

package randomimage

import (
	"fmt"

	"lorewiki-backend/internal/plugin/host"
	"lorewiki-backend/internal/plugin/registry"
	pluginruntime "lorewiki-backend/internal/plugin/runtime"
	"lorewiki-backend/pkg/logger"
	riservice "lorewiki-backend/plugins/randomimage/service"
)

const (
	Slug = "randomimage"

	tagName           = "randomimage"
	stripPreprocessor = "randomimage-caption-markers"
)

func init() {
	registry.Register(Slug, NewFeature)
}

type Feature struct {
	host host.Host
}

func NewFeature(h host.Host) (pluginruntime.Feature, error) {
	if h == nil {
		return nil, fmt.Errorf("host is required")
	}
	return &Feature{host: h}, nil
}

func (f *Feature) Activate() error {
	if f == nil || f.host == nil {
		return fmt.Errorf("feature host is not configured")
	}

	repos := f.host.Repositories()
	if repos == nil {
		return fmt.Errorf("repository access is not configured")
	}

	hooks := f.host.RenderHooks()
	if hooks == nil {
		return fmt.Errorf("render hooks are not configured")
	}

	cfg := f.host.Config()
	if cfg == nil {
		return fmt.Errorf("configuration is not available")
	}

	svc := riservice.New(repos.Page(), repos.Revision(), riservice.Config{
		StrictMime: cfg.RandomImageStrictMime,
		NoCache:    cfg.RandomImageNoCache,
	})

	if err := hooks.RegisterTag(tagName, svc.Expand); err != nil {
		return err
	}
	if err := hooks.RegisterPreprocessor(stripPreprocessor, riservice.StripCaptionMarkers); err != nil {
		hooks.UnregisterTag(tagName)
		return err
	}

	if access := f.host.RandomImageHandlers(); access != nil {
		if handler := access.Fragment(); handler != nil {
			handler.SetService(svc)
		}
	}

	f.purgeRenderedPages()
	return nil
}

func (f *Feature) Deactivate() error {
	if f == nil || f.host == nil {
		return nil
	}

	if hooks := f.host.RenderHooks(); hooks != nil {
		hooks.UnregisterTag(tagName)
		hooks.UnregisterPreprocessor(stripPreprocessor)
	}

	if access := f.host.RandomImageHandlers(); access != nil {
		if handler := access.Fragment(); handler != nil {
			handler.SetService(nil)
		}
	}

	f.purgeRenderedPages()
	return nil
}

// purgeRenderedPages drops the whole parser cache: pages rendered under
// the previous activation state may contain, or be missing, tag output.
func (f *Feature) purgeRenderedPages() {
	c := f.host.Cache()
	if c == nil {
		return
	}
	if err := c.InvalidateRenderCache(); err != nil {
		logger.Debug("Parser cache purge failed", map[string]interface{}{"plugin": Slug, "error": err.Error()})
	}
}

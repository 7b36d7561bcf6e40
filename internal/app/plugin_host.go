package app

import (
	"lorewiki-backend/internal/background"
	"lorewiki-backend/internal/config"
	"lorewiki-backend/internal/plugin/host"
	"lorewiki-backend/internal/render"
	"lorewiki-backend/internal/repository"
	"lorewiki-backend/internal/service"
	"lorewiki-backend/pkg/cache"
	rihandlers "lorewiki-backend/plugins/randomimage/handlers"
)

// The application is the plugin host: factories receive it during
// initPlugins and reach collaborators through these accessors.
var _ host.Host = (*Application)(nil)

func (a *Application) Config() *config.Config {
	if a == nil {
		return nil
	}
	return a.cfg
}

func (a *Application) Cache() *cache.Cache {
	if a == nil {
		return nil
	}
	return a.cache
}

func (a *Application) Scheduler() *background.Scheduler {
	if a == nil {
		return nil
	}
	return a.scheduler
}

func (a *Application) RenderHooks() *render.HookRegistry {
	if a == nil {
		return nil
	}
	return a.renderHooks
}

func (a *Application) Repositories() host.RepositoryAccess {
	return applicationRepositoryAccess{app: a}
}

func (a *Application) Services() host.ServiceAccess {
	return applicationServiceAccess{app: a}
}

func (a *Application) RandomImageHandlers() host.RandomImageHandlerAccess {
	return applicationRandomImageHandlers{app: a}
}

type applicationRepositoryAccess struct {
	app *Application
}

func (r applicationRepositoryAccess) Page() repository.PageRepository {
	if r.app == nil {
		return nil
	}
	return r.app.repositories.Page
}

func (r applicationRepositoryAccess) Revision() repository.RevisionRepository {
	if r.app == nil {
		return nil
	}
	return r.app.repositories.Revision
}

func (r applicationRepositoryAccess) File() repository.FileRepository {
	if r.app == nil {
		return nil
	}
	return r.app.repositories.File
}

func (r applicationRepositoryAccess) User() repository.UserRepository {
	if r.app == nil {
		return nil
	}
	return r.app.repositories.User
}

func (r applicationRepositoryAccess) Plugin() repository.PluginRepository {
	if r.app == nil {
		return nil
	}
	return r.app.repositories.Plugin
}

func (r applicationRepositoryAccess) Setting() repository.SettingRepository {
	if r.app == nil {
		return nil
	}
	return r.app.repositories.Setting
}

type applicationServiceAccess struct {
	app *Application
}

func (s applicationServiceAccess) Auth() *service.AuthService {
	if s.app == nil {
		return nil
	}
	return s.app.services.Auth
}

func (s applicationServiceAccess) Page() *service.PageService {
	if s.app == nil {
		return nil
	}
	return s.app.services.Page
}

func (s applicationServiceAccess) File() *service.FileService {
	if s.app == nil {
		return nil
	}
	return s.app.services.File
}

func (s applicationServiceAccess) Render() *service.RenderService {
	if s.app == nil {
		return nil
	}
	return s.app.services.Render
}

type applicationRandomImageHandlers struct {
	app *Application
}

func (h applicationRandomImageHandlers) Fragment() *rihandlers.FragmentHandler {
	if h.app == nil {
		return nil
	}
	return h.app.handlers.RandomImageFragment
}

func (h applicationRandomImageHandlers) SetFragment(handler *rihandlers.FragmentHandler) {
	if h.app == nil {
		return
	}
	h.app.handlers.RandomImageFragment = handler
}

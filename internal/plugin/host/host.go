package host

import (
	"lorewiki-backend/internal/background"
	"lorewiki-backend/internal/config"
	"lorewiki-backend/internal/render"
	"lorewiki-backend/internal/repository"
	"lorewiki-backend/internal/service"
	"lorewiki-backend/pkg/cache"
	rihandlers "lorewiki-backend/plugins/randomimage/handlers"
)

// Host is the surface plugins program against. The application implements
// it; plugin factories receive it and pull out the collaborators they
// need.
type Host interface {
	Config() *config.Config
	Cache() *cache.Cache
	Scheduler() *background.Scheduler

	Repositories() RepositoryAccess
	Services() ServiceAccess

	// RenderHooks is the registry behind the page renderer; plugins
	// contribute extension tags and source preprocessors here.
	RenderHooks() *render.HookRegistry

	RandomImageHandlers() RandomImageHandlerAccess
}

type RepositoryAccess interface {
	Page() repository.PageRepository
	Revision() repository.RevisionRepository
	File() repository.FileRepository
	User() repository.UserRepository
	Plugin() repository.PluginRepository
	Setting() repository.SettingRepository
}

type ServiceAccess interface {
	Auth() *service.AuthService
	Page() *service.PageService
	File() *service.FileService
	Render() *service.RenderService
}

// RandomImageHandlerAccess exposes the HTTP handlers owned by the
// randomimage plugin. The handlers exist for the life of the process so
// routes stay mounted; activation swaps the service in and out.
type RandomImageHandlerAccess interface {
	Fragment() *rihandlers.FragmentHandler
	SetFragment(*rihandlers.FragmentHandler)
}

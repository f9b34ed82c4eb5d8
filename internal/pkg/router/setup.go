package router

import (
	"github.com/gofiber/fiber/v2"

	apiv1 "github.com/brm-map/BrevetSync/internal/api/v1"
)

// Router installs a set of routes on the app
type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter attaches all route groups to the app
func InstallRouter(app *fiber.App, server *apiv1.APIServer) {
	setup(app, NewApiRouter(server))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}

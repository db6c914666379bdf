package routes

import (
	"github.com/gofiber/fiber/v2"

	"apidocs-admin/controllers"
)

// Register wires all HTTP routes.
func Register(app *fiber.App, endpoints *controllers.EndpointController, px *controllers.ProxyController) {
	api := app.Group("/api")

	// Endpoint documentation records
	api.Get("/endpoints", endpoints.List)
	api.Post("/endpoints", endpoints.Upsert)
	api.All("/endpoints", controllers.MethodNotAllowed)

	// Explicit-target proxy: must be registered before the wildcard below,
	// which would otherwise also match /api/proxy.
	api.Post("/proxy", px.ForwardExplicit)
	api.All("/proxy", controllers.MethodNotAllowed)

	// Path-routed proxy
	api.All("/proxy/*", px.ForwardRouted)
}

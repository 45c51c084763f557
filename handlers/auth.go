package handlers

import (
	"asl-holdem/middleware"
	"asl-holdem/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, authService *services.AuthService) {
	// Public
	app.Post("/auth/register", authService.Register)
	app.Post("/auth/login", authService.Login)
	app.Post("/auth/refresh", authService.Refresh)

	// Authenticated
	secured := app.Group("/auth", middleware.UserContextMiddleware())
	secured.Get("/me", authService.Me)
	secured.Put("/me", authService.UpdateMe)
	secured.Get("/qr/:uuid", authService.LookupByQRCode)
}

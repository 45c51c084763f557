package handlers

import (
	"asl-holdem/middleware"
	"asl-holdem/models"
	"asl-holdem/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTournamentRoutes(app *fiber.App, tournamentService *services.TournamentService,
	registrationService *services.RegistrationService) {

	admin := string(models.RoleAdmin)

	// Public listing so the app can show upcoming tournaments pre-login.
	app.Get("/tournaments", tournamentService.ListTournaments)

	secured := app.Group("/tournaments", middleware.UserContextMiddleware())
	secured.Get("/my_registrations", registrationService.MyRegistrations)
	secured.Get("/:id", tournamentService.GetTournament)
	secured.Post("/", middleware.RequireRole(admin), tournamentService.CreateTournament)
	secured.Put("/:id", middleware.RequireRole(admin), tournamentService.UpdateTournament)
	secured.Delete("/:id", middleware.RequireRole(admin), tournamentService.DeleteTournament)

	// Registrations
	secured.Post("/:id/players", registrationService.RegisterPlayer)
	secured.Get("/:id/players", registrationService.ListPlayers)
	secured.Post("/:id/players/:player_id/cancel",
		middleware.RequireRole(admin, string(models.RoleStoreOwner)),
		registrationService.CancelRegistration)
}

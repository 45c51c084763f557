package handlers

import (
	"asl-holdem/middleware"
	"asl-holdem/models"
	"asl-holdem/services"

	"github.com/gofiber/fiber/v2"
)

func SetupSeatRoutes(app *fiber.App, ticketService *services.TicketService,
	distributionService *services.DistributionService) {

	admin := string(models.RoleAdmin)
	storeOwner := string(models.RoleStoreOwner)

	secured := app.Group("/seats", middleware.UserContextMiddleware())

	// Tickets
	secured.Post("/tickets/grant",
		middleware.RequireRole(admin, storeOwner), ticketService.GrantTickets)
	secured.Post("/tickets/use", ticketService.UseTicket)
	secured.Get("/tickets", ticketService.ListTickets)
	secured.Get("/tickets/user_stats", ticketService.GetUserTicketStats)
	secured.Get("/tickets/tournament_summary", ticketService.GetTournamentTicketSummary)
	secured.Post("/tickets/bulk_operation",
		middleware.RequireRole(admin), ticketService.BulkTicketOperation)

	// Ledger
	secured.Get("/transactions", ticketService.ListTransactions)

	// Distributions: head-office allocation is admin-only, handing out and
	// returning is store-owner territory.
	secured.Post("/distributions",
		middleware.RequireRole(admin), distributionService.CreateDistribution)
	secured.Get("/distributions", distributionService.ListDistributions)
	secured.Get("/distributions/summary_by_tournament", distributionService.SummaryByTournament)
	secured.Get("/distributions/summary_by_store", distributionService.SummaryByStore)
	secured.Get("/distributions/overall_summary",
		middleware.RequireRole(admin), distributionService.OverallSummary)
	secured.Post("/distributions/bulk_create",
		middleware.RequireRole(admin), distributionService.BulkCreateDistributions)
	secured.Post("/distributions/auto_distribute",
		middleware.RequireRole(admin), distributionService.AutoDistribute)
	secured.Get("/distributions/:id", distributionService.GetDistribution)
	secured.Put("/distributions/:id",
		middleware.RequireRole(admin), distributionService.UpdateDistribution)
	secured.Post("/distributions/:id/distribute_tickets",
		middleware.RequireRole(admin, storeOwner), distributionService.DistributeTickets)
	secured.Post("/distributions/:id/return_tickets",
		middleware.RequireRole(admin, storeOwner), distributionService.ReturnTickets)
	secured.Post("/distributions/:id/distribute_to_user",
		middleware.RequireRole(admin, storeOwner), distributionService.DistributeToUser)
}

package handlers

import (
	"asl-holdem/middleware"
	"asl-holdem/models"
	"asl-holdem/services"

	"github.com/gofiber/fiber/v2"
)

func SetupNoticeRoutes(app *fiber.App, noticeService *services.NoticeService) {
	admin := string(models.RoleAdmin)

	// Anonymous readers get the GENERAL feed.
	app.Get("/notices", noticeService.ListNotices)

	secured := app.Group("/notices", middleware.UserContextMiddleware())
	secured.Get("/:id", noticeService.GetNotice)
	secured.Post("/", middleware.RequireRole(admin), noticeService.CreateNotice)
	secured.Put("/:id", middleware.RequireRole(admin), noticeService.UpdateNotice)
	secured.Delete("/:id", middleware.RequireRole(admin), noticeService.DeleteNotice)
}

package handlers

import (
	"asl-holdem/middleware"
	"asl-holdem/services"

	"github.com/gofiber/fiber/v2"
)

func SetupStoreRoutes(app *fiber.App, storeService *services.StoreService,
	bannerService *services.BannerService) {

	// Public discovery
	app.Get("/stores", storeService.ListStores)
	app.Get("/banners", bannerService.ListBanners)

	stores := app.Group("/stores", middleware.UserContextMiddleware())
	stores.Get("/mine", storeService.MyStores)
	stores.Get("/:id", storeService.GetStore)
	stores.Post("/", storeService.CreateStore)
	stores.Put("/:id", storeService.UpdateStore)

	banners := app.Group("/banners", middleware.UserContextMiddleware())
	banners.Post("/", bannerService.CreateBanner)
	banners.Put("/:id", bannerService.UpdateBanner)
	banners.Delete("/:id", bannerService.DeleteBanner)
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the public and admin video routes. authMW guards
// everything under /api/admin.
func RegisterRoutes(app *fiber.App, h *Handler, authMW fiber.Handler) {
	api := app.Group("/api")

	api.Get("/videos/categories", h.Categories)
	api.Get("/videos", h.VideosByCategory)
	api.Get("/videos/:id/play-url", h.PlayURL)
	api.Get("/videos/:id", h.VideoByID)

	admin := api.Group("/admin", authMW)
	admin.Post("/videos/init-upload", h.InitUpload)
	admin.Get("/videos/chunks-check", h.ChunksCheck)
	admin.Post("/videos/chunk", h.SubmitChunk)
	admin.Post("/videos/merge", h.Merge)
	admin.Post("/videos/cleanup-chunks", h.CleanupChunks)
	admin.Post("/videos/categories", h.AddCategory)
	admin.Delete("/videos/categories/:id", h.DeleteCategory)
	admin.Delete("/videos/:id", h.DeleteVideo)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
}

package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/api/http/handler"
)

func (r *Router) registerAuthRoutes(api fiber.Router, h *handler.AuthHandler, authRequired, limiter fiber.Handler) {
	group := api.Group("/auth")
	group.Post("/login", limiter, h.Login)
	group.Post("/refresh", h.Refresh)
	group.Post("/forgot-password", limiter, h.ForgotPassword)
	group.Post("/reset-password", limiter, h.ResetPassword)
	group.Post("/logout", authRequired, h.Logout)
	group.Get("/me", authRequired, h.Me)
	group.Post("/change-password", authRequired, h.ChangePassword)
}

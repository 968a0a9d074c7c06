package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fixhub-dev/fixhub-api/internal/middleware"
	"github.com/fixhub-dev/fixhub-api/internal/models"
	"github.com/fixhub-dev/fixhub-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth    *AuthHandler
	Repair  *RepairHandler
	Payment *PaymentHandler
	User    *UserHandler
	Export  *ExportHandler
	Metrics *MetricsHandler
}

// RouterOptions toggles optional route groups.
type RouterOptions struct {
	ExportsEnabled bool
}

// RegisterRoutes mounts the API surface under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, authSvc *service.AuthService, opts RouterOptions) {
	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.POST("/register", h.User.Register)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.POST("/logout", h.Auth.Logout)
		authed.POST("/change-password", h.Auth.ChangePassword)
		authed.GET("/me", h.Auth.Me)
	}

	repairs := api.Group("/repairs", middleware.JWT(authSvc))
	{
		repairs.POST("", middleware.RequireRoles(models.RoleCustomer), h.Repair.Create)
		repairs.GET("/mine", middleware.RequireRoles(models.RoleCustomer), h.Repair.ListMine)
		repairs.GET("/queue", middleware.RequireRoles(models.RoleTechnician), h.Repair.Queue)
		repairs.GET("", middleware.RequireRoles(models.RoleAdmin), h.Repair.List)
		repairs.GET("/summary", middleware.RequireRoles(models.RoleAdmin), h.Repair.Summary)
		repairs.GET("/reference/:ref", middleware.RequireRoles(models.RoleAdmin, models.RoleTechnician), h.Repair.GetByReference)

		// Per-ticket scoping beyond the role gate happens in the service.
		repairs.GET("/:id", h.Repair.Get)
		repairs.GET("/:id/history", middleware.RequireRoles(models.RoleAdmin, models.RoleTechnician), h.Repair.History)
		repairs.POST("/:id/status", middleware.RequireRoles(models.RoleAdmin, models.RoleTechnician), h.Repair.Transition)
		repairs.POST("/:id/assign", middleware.RequireRoles(models.RoleAdmin), h.Repair.Assign)
		repairs.PUT("/:id/estimate", middleware.RequireRoles(models.RoleAdmin, models.RoleTechnician), h.Repair.Estimate)

		repairs.PUT("/:id/payment", middleware.RequireRoles(models.RoleAdmin), h.Payment.Record)
		repairs.GET("/:id/payment", middleware.RequireRoles(models.RoleAdmin, models.RoleTechnician), h.Payment.Get)

		if opts.ExportsEnabled && h.Export != nil {
			repairs.GET("/export", middleware.RequireRoles(models.RoleAdmin), h.Export.Report)
			repairs.GET("/:id/receipt", middleware.RequireRoles(models.RoleAdmin), h.Export.Receipt)
		}
	}

	users := api.Group("/users", middleware.JWT(authSvc))
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin), h.User.List)
		users.POST("", middleware.RequireRoles(models.RoleAdmin), h.User.Create)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), h.User.Get)
		users.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), h.User.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), h.User.Deactivate)
	}
}

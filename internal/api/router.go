// Package api - Router setup
package api

import (
	"time"

	"github.com/arvena/talentd/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// builder roles may mutate form schemas; viewer-level roles only read
var builderRoles = []string{"admin"}

// SetupRouter creates and configures the Gin router
func SetupRouter(handler *Handler, authHandler *AuthHandler, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Tenant-ID", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Content-Disposition"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsConfig))

	// Health check (no auth required)
	r.GET("/api/health", handler.Health)

	// ==========================================================================
	// AUTH API
	// ==========================================================================
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.RefreshToken)
	}

	authProtected := r.Group("/auth")
	authProtected.Use(handler.UserMiddleware())
	authProtected.Use(handler.RequireAuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// ==========================================================================
	// TENANT API - requires tenant context (X-Tenant-ID header)
	// ==========================================================================
	api := r.Group("/api")
	api.Use(handler.UserMiddleware())
	api.Use(handler.TenantMiddleware())
	{
		// Placement resolution is reachable without authentication: the
		// visibility resolver itself decides what an anonymous caller sees.
		api.GET("/resolve/:point_id", handler.ResolveForms)
		api.GET("/forms/:id/resolve/:point_id", handler.ResolveFormPlacements)
		api.GET("/deployment-points", handler.ListDeploymentPoints)
		api.GET("/field-types", handler.ListFieldTypes)

		authed := api.Group("")
		authed.Use(handler.RequireAuthMiddleware())
		{
			// Form builder - admin only for mutations
			builder := authed.Group("")
			builder.Use(handler.RequireRoleMiddleware(builderRoles...))
			{
				builder.POST("/forms", handler.CreateForm)
				builder.PUT("/forms/:id", handler.UpdateForm)
				builder.DELETE("/forms/:id", handler.DeleteForm)
				builder.POST("/forms/:id/publish", handler.PublishForm)
				builder.POST("/forms/:id/unpublish", handler.UnpublishForm)

				builder.POST("/forms/:id/sections", handler.CreateSection)
				builder.PUT("/sections/:id", handler.UpdateSection)
				builder.DELETE("/sections/:id", handler.DeleteSection)

				builder.POST("/forms/:id/fields", handler.CreateField)
				builder.PUT("/fields/:id", handler.UpdateField)
				builder.DELETE("/fields/:id", handler.DeleteField)

				builder.POST("/forms/:id/placements", handler.CreatePlacement)
				builder.PUT("/placements/:id", handler.UpdatePlacement)
				builder.DELETE("/placements/:id", handler.DeletePlacement)

				builder.POST("/forms/:id/workflows", handler.CreateWorkflow)
				builder.POST("/workflows/:id/activate", handler.SetWorkflowActive(true))
				builder.POST("/workflows/:id/deactivate", handler.SetWorkflowActive(false))
				builder.DELETE("/workflows/:id", handler.DeleteWorkflow)
				builder.POST("/workflows/:id/run", handler.RunWorkflow)

				builder.POST("/rules", handler.CreateRule)
				builder.POST("/rules/:id/activate", handler.SetRuleActive(true))
				builder.POST("/rules/:id/deactivate", handler.SetRuleActive(false))
				builder.DELETE("/rules/:id", handler.DeleteRule)
			}

			// Read access for any authenticated user
			authed.GET("/forms", handler.ListForms)
			authed.GET("/forms/:id", handler.GetForm)
			authed.GET("/forms/:id/canvas", handler.GetCanvas)
			authed.GET("/forms/:id/placements", handler.ListFormPlacements)
			authed.GET("/forms/:id/workflows", handler.ListWorkflows)
			authed.GET("/workflows/:id", handler.GetWorkflow)
			authed.GET("/rules", handler.ListRules)

			// Talent records
			authed.GET("/candidates", handler.ListCandidates)
			authed.POST("/candidates", handler.CreateCandidate)
			authed.GET("/candidates/:id", handler.GetCandidate)
			authed.PUT("/candidates/:id", handler.UpdateCandidate)
			authed.DELETE("/candidates/:id", handler.DeleteCandidate)

			authed.GET("/contacts", handler.ListContacts)
			authed.POST("/contacts", handler.CreateContact)
			authed.GET("/contacts/:id", handler.GetContact)
			authed.PUT("/contacts/:id", handler.UpdateContact)
			authed.DELETE("/contacts/:id", handler.DeleteContact)

			// Analytics & export
			authed.GET("/analytics/summary", handler.AnalyticsSummary)
			authed.GET("/analytics/by-company", handler.AnalyticsByCompany)
			authed.GET("/analytics/by-month", handler.AnalyticsByMonth)
			authed.GET("/analytics/by-stage", handler.AnalyticsByStage)
			authed.GET("/export/:resource", handler.ExportRecords)
		}
	}

	return r
}

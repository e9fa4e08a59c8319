package main

import (
	"database/sql"
	"time"

	"callmanager/internal/auth"
	"callmanager/internal/httpapi"
	"callmanager/internal/rbac"
	"callmanager/pkg/utils"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc, db *sql.DB) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// AUTH routes (token issuance).
	// NOTE: This is a placeholder login route; real credential validation is not implemented.
	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(200, gin.H{"user_id": uid, "role": role})
		})

		// EVENT ingestion: upstream data capture posts entity writes here.
		events := v1.Group("/events")
		events.Use(rbac.RequireAnyRole(rbac.RoleCoordinator, rbac.RoleSuperAdmin))
		{
			events.POST("/", h.PublishEvent)
		}

		// CALLS routes
		calls := v1.Group("/calls")
		calls.Use(rbac.RequireAnyRole(rbac.RoleOperator, rbac.RoleCoordinator, rbac.RoleAnalyst, rbac.RoleSuperAdmin))
		{
			calls.GET("/", h.ListCalls)
			calls.GET("/:call_id/log", h.GetCallLog)
		}

		// LOG ENTRY routes: operators record dial attempts.
		logs := v1.Group("/logs")
		logs.Use(rbac.RequireAnyRole(rbac.RoleOperator, rbac.RoleCoordinator, rbac.RoleSuperAdmin))
		{
			logs.POST("/:log_id/entries", h.CreateLogEntry)
		}

		// REPORT routes
		reports := v1.Group("/reports")
		reports.Use(rbac.RequireAnyRole(rbac.RoleCoordinator, rbac.RoleAnalyst, rbac.RoleSuperAdmin))
		{
			reports.POST("/calls-summary", h.CallsSummary)
		}
	}
}

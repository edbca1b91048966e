// Package routes wires the HTTP handlers onto the Echo router.
package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rmaciel/voltrack/internal/handler/api"
	"github.com/rmaciel/voltrack/internal/middleware"
)

// Deps bundles the handlers the router needs.
type Deps struct {
	Clients    *api.ClientHandler
	Vehicles   *api.VehicleHandler
	Checklists *api.ChecklistHandler
	Invoices   *api.InvoiceHandler
	Billing    *api.BillingHandler
	Metrics    *middleware.Metrics
}

// Register mounts all routes on e: the versioned API, the public signature
// routes and the operational endpoints.
func Register(e *echo.Echo, deps Deps) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))

	// Public signature routes; the token is the only credential.
	e.GET("/assinar/:token", deps.Checklists.GetByToken)
	e.POST("/assinar/:token", deps.Checklists.Sign)

	v1 := e.Group("/api/v1")

	clients := v1.Group("/clients")
	clients.POST("", deps.Clients.Create)
	clients.GET("", deps.Clients.List)
	clients.GET("/:id", deps.Clients.Get)
	clients.PATCH("/:id", deps.Clients.Update)
	clients.DELETE("/:id", deps.Clients.Delete)
	clients.GET("/:id/vehicles", deps.Vehicles.ListByClient)
	clients.GET("/:id/checklists", deps.Checklists.ListByClient)
	clients.POST("/:id/unblock", deps.Vehicles.UnblockFleet)

	vehicles := v1.Group("/vehicles")
	vehicles.POST("", deps.Vehicles.Create)
	vehicles.GET("", deps.Vehicles.List)
	vehicles.GET("/:id", deps.Vehicles.Get)
	vehicles.PATCH("/:id", deps.Vehicles.Update)
	vehicles.PUT("/:id/status", deps.Vehicles.SetStatus)
	vehicles.DELETE("/:id", deps.Vehicles.Delete)

	checklists := v1.Group("/checklists")
	checklists.POST("", deps.Checklists.Create)
	checklists.GET("", deps.Checklists.List)
	checklists.GET("/:id", deps.Checklists.Get)
	checklists.POST("/:id/send-link", deps.Checklists.SendSignatureLink)
	checklists.POST("/:id/complete", deps.Checklists.Complete)
	checklists.DELETE("/:id", deps.Checklists.Delete)

	invoices := v1.Group("/invoices")
	invoices.POST("", deps.Invoices.Create)
	invoices.GET("", deps.Invoices.List)
	invoices.GET("/:id", deps.Invoices.Get)
	invoices.POST("/:id/pay", deps.Invoices.MarkPaid)
	invoices.POST("/:id/cancel", deps.Invoices.Cancel)
	invoices.GET("/:id/pix", deps.Invoices.PixQRCode)
	invoices.POST("/:id/resend-notification", deps.Invoices.ResendNotification)
	invoices.DELETE("/:id", deps.Invoices.Delete)

	billing := v1.Group("/billing")
	billing.POST("/run-monthly", deps.Billing.RunMonthly)
	billing.POST("/run-overdue", deps.Billing.RunOverdue)
	billing.POST("/reconcile", deps.Billing.Reconcile)
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/erp/receipt/internal/interfaces/http/router"
)

// PrintRoutes creates the versioned print group mounted under /api/<version>
func PrintRoutes(handler *PrintHandler, authMiddleware gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("print", "/print")
	group.Use(authMiddleware)

	group.POST("/direct", handler.PrintDirect)
	group.GET("/config", handler.GetPrintConfig)

	// Print jobs
	group.GET("/jobs", handler.ListJobs)
	group.GET("/jobs/:id", handler.GetJob)
	group.GET("/jobs/:id/document", handler.GetJobDocument)
	group.POST("/jobs/cleanup", handler.Cleanup)

	// Reprint audit
	group.GET("/reprints", handler.ListReprints)

	return group
}

// PrinterRoutes exposes the configured printers
func PrinterRoutes(handler *PrintHandler, authMiddleware gin.HandlerFunc) *router.DomainGroup {
	return router.NewDomainGroup("printers", "/printers").
		Use(authMiddleware).
		GET("", handler.ListPrinters)
}

// LegacyPrintRoutes keeps the paths the PDV front end calls, mounted at the root
func LegacyPrintRoutes(handler *PrintHandler, authMiddleware gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("legacy-print", "")
	group.Use(authMiddleware)

	group.POST("/imprimir-direto", handler.PrintDirect)
	group.GET("/api/config/impressao/dados", handler.GetPrintConfig)
	group.POST("/api/pdv/venda/:id/reimprimir", handler.Reprint)
	group.GET("/api/pdv/venda/:id/reimpressoes", handler.ListReprints)

	return group
}

// ReceiptRoutes creates the receipt rendering group
func ReceiptRoutes(handler *ReceiptHandler, authMiddleware gin.HandlerFunc) *router.DomainGroup {
	return router.NewDomainGroup("receipts", "/receipts").
		Use(authMiddleware).
		POST("/render", handler.RenderHTML).
		POST("/pdf", handler.RenderPDF)
}

// AuthRoutes creates the terminal token group. Token issue is skipped by the
// JWT middleware; revoke needs a valid token.
func AuthRoutes(handler *AuthHandler, authMiddleware gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("auth", "/auth")
	group.POST("/token", handler.IssueToken)
	group.Group("revoke", "/revoke").
		Use(authMiddleware).
		POST("", handler.RevokeToken)
	return group
}

// SystemRoutes creates the system group
func SystemRoutes(handler *SystemHandler) *router.DomainGroup {
	return router.NewDomainGroup("system", "/system").
		GET("/info", handler.GetSystemInfo).
		GET("/ping", handler.Ping)
}

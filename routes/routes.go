package routes

import (
	"github.com/gin-gonic/gin"

	"invotrack/controllers"
	"invotrack/middleware"
)

func InitializeRoutes(router *gin.Engine) {
	router.POST("/login", controllers.Login)
	router.POST("/forgot-password", controllers.RequestPasswordReset)
	router.POST("/reset-password", controllers.ResetPassword)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware("admin", "accountant"))
	{
		api.POST("/invoices/scan", controllers.ScanInvoice)
		api.POST("/invoices/finalize", controllers.FinalizeInvoice)
		api.GET("/invoices", controllers.ListInvoices)
		api.GET("/invoices/:id", controllers.GetInvoice)
		api.PUT("/invoices/:id/payment", controllers.UpdateInvoicePaymentStatus)

		api.GET("/products", controllers.GetAllProducts)
		api.GET("/products/low-stock", controllers.GetLowStockProducts)
		api.GET("/products/:id", controllers.GetProduct)
		api.POST("/products", controllers.CreateProduct)
		api.PUT("/products/:id", controllers.EditProduct)

		api.GET("/suppliers", controllers.GetAllSuppliers)
		api.GET("/suppliers/select", controllers.GetSuppliersForSelect)
		api.GET("/suppliers/:id", controllers.GetSupplier)
		api.POST("/suppliers", controllers.CreateSupplier)
		api.PUT("/suppliers/:id", controllers.EditSupplier)

		api.GET("/dashboard", controllers.Dashboard)
		api.GET("/reports/monthly", controllers.MonthlyExpenseReport)
	}

	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware("admin"))
	{
		admin.POST("/users", controllers.RegisterUser)
		admin.DELETE("/products/:id", controllers.DeleteProduct)
		admin.DELETE("/suppliers/:id", controllers.DeleteSupplier)
		admin.DELETE("/invoices/:id", controllers.DeleteInvoice)

		// POS integration
		admin.GET("/pos/settings", controllers.GetPosSettings)
		admin.POST("/pos/settings", controllers.SavePosSettings)
		admin.POST("/pos/test", controllers.TestPosConnection)
		admin.POST("/pos/sync/:kind", controllers.SyncPos)
		admin.POST("/pos/products/:id/push", controllers.PushProductToPos)
		admin.POST("/pos/products/:id/deactivate", controllers.DeactivateProductInPos)
	}
}

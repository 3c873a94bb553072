package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/middleware"
	"github.com/lchampz/saas-bakery/internal/models"
	"github.com/lchampz/saas-bakery/internal/services"
)

const (
	MsgTooManyAuth     = "Muitas tentativas de login. Tente novamente em 15 minutos."
	MsgTooManyRequests = "Muitas requisições. Tente novamente mais tarde."
)

// Services is everything the HTTP layer calls into
type Services struct {
	Auth      *services.AuthService
	Products  *services.ProductService
	Recipes   *services.RecipeService
	Suppliers *services.SupplierService
	Purchases *services.PurchaseService
	Reports   *services.ReportService
	Exports   *services.ExportService
	Backup    *services.BackupService
	AIRecipes *services.AIRecipeService
	IFood     *services.IFoodService
}

type RouterConfig struct {
	Tokens      middleware.TokenParser
	FrontendURL string
	// Redis shares rate limit counters between instances; nil keeps them in memory.
	Redis *redis.Client
	// Hub feeds /ws/stock; nil disables the route.
	Hub *Hub
	// RateLimit is off in tests.
	RateLimit bool
}

// NewRouter builds the engine with every route mounted at the root
func NewRouter(svc Services, cfg RouterConfig, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("💥 Panic recovered", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, envelope{Success: false, Message: MsgInternalError})
	}))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg.FrontendURL))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/robots.txt", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/favicon.ico", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	requireAuth := middleware.RequireAuth(cfg.Tokens)
	limit := func(rate, prefix, message string) gin.HandlerFunc {
		if !cfg.RateLimit {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimit(rate, prefix, message, cfg.Redis, log)
	}

	authController := NewAuthController(svc.Auth, log)
	authGroup := r.Group("/auth", limit(middleware.AuthRate, "auth", MsgTooManyAuth))
	{
		authGroup.POST("/register", authController.Register)
		authGroup.POST("/login", authController.Login)
		authGroup.GET("/me", requireAuth, authController.Me)
	}

	// marketplace callbacks carry no bearer token
	ifoodController := NewIFoodController(svc.IFood, log)
	r.POST("/ifood/webhook", ifoodController.Webhook)

	if cfg.Hub != nil {
		r.GET("/ws/stock", NewWSController(cfg.Hub, cfg.FrontendURL, log).ServeStock)
	}

	api := r.Group("/", limit(middleware.APIRate, "api", MsgTooManyRequests), requireAuth)

	productController := NewProductController(svc.Products, log)
	products := api.Group("/products")
	{
		products.GET("", productController.GetProducts)
		products.POST("", productController.CreateProduct)
		products.POST("/import", productController.ImportProducts)
		products.GET("/:id", productController.GetProduct)
		products.PUT("/:id", productController.UpdateProduct)
		products.DELETE("/:id", productController.DeleteProduct)
	}

	recipeController := NewRecipeController(svc.Recipes, log)
	recipes := api.Group("/recipes")
	{
		recipes.GET("", recipeController.GetRecipes)
		recipes.POST("", recipeController.CreateRecipe)
		recipes.GET("/:id", recipeController.GetRecipe)
		recipes.PUT("/:id", recipeController.UpdateRecipe)
		recipes.DELETE("/:id", recipeController.DeleteRecipe)
		recipes.POST("/:id/prepare", recipeController.PrepareRecipe)
		recipes.POST("/:id/scale", recipeController.ScaleRecipe)
	}

	supplierController := NewSupplierController(svc.Suppliers, log)
	suppliers := api.Group("/suppliers")
	{
		suppliers.GET("", supplierController.GetSuppliers)
		suppliers.POST("", supplierController.CreateSupplier)
		suppliers.GET("/:id", supplierController.GetSupplier)
		suppliers.PUT("/:id", supplierController.UpdateSupplier)
		suppliers.DELETE("/:id", supplierController.DeleteSupplier)
	}

	purchaseController := NewPurchaseController(svc.Purchases, log)
	purchases := api.Group("/purchases")
	{
		purchases.GET("", purchaseController.GetPurchases)
		purchases.POST("", purchaseController.CreatePurchase)
		purchases.GET("/shopping-list", purchaseController.GetShoppingList)
	}

	reportController := NewReportController(svc.Reports, log)
	reports := api.Group("/reports")
	{
		reports.GET("/stock", reportController.GetStock)
		reports.GET("/capability", reportController.GetCapability)
		reports.GET("/history", reportController.GetHistory)
		reports.GET("/low-stock", reportController.GetLowStock)
		reports.GET("/profitability", reportController.GetProfitability)
		reports.GET("/analytics", reportController.GetAnalytics)
	}

	exportController := NewExportController(svc.Exports, log)
	exports := api.Group("/exports")
	{
		exports.GET("/products/csv", exportController.ProductsCSV)
		exports.GET("/products/xlsx", exportController.ProductsXLSX)
		exports.GET("/recipes/csv", exportController.RecipesCSV)
		exports.GET("/purchases/csv", exportController.PurchasesCSV)
		exports.GET("/stock-report/pdf", exportController.StockReport)
	}

	backupController := NewBackupController(svc.Backup, log)
	backup := api.Group("/backup", middleware.RequireRole(svc.Auth, models.RoleAdmin))
	{
		backup.POST("/create", backupController.CreateBackup)
		backup.GET("/download", backupController.DownloadBackup)
	}

	aiController := NewAIRecipeController(svc.AIRecipes, log)
	ai := api.Group("/ai-recipes")
	{
		ai.POST("/generate", aiController.Generate)
		ai.POST("/create", aiController.Create)
	}

	ifood := api.Group("/ifood")
	{
		ifood.POST("/integration/configure", ifoodController.Configure)
		ifood.GET("/integration/config", ifoodController.GetConfig)
		ifood.GET("/integration/status", ifoodController.GetStatus)
		ifood.POST("/catalog/sync", ifoodController.SyncCatalog)
		ifood.GET("/orders", ifoodController.GetOrders)
		ifood.GET("/orders/:orderId", ifoodController.GetOrder)
		ifood.POST("/orders/:orderId/confirm", ifoodController.ConfirmOrder)
		ifood.POST("/orders/:orderId/cancel", ifoodController.CancelOrder)
		ifood.POST("/orders/:orderId/dispatch", ifoodController.DispatchOrder)
		ifood.GET("/analytics/sales-summary", ifoodController.GetSalesSummary)
		ifood.GET("/analytics/top-products", ifoodController.GetTopProducts)
		ifood.POST("/webhook/test", ifoodController.TestWebhook)
	}

	r.NoRoute(NotFound)
	return r
}

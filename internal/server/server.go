package server

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/urbankart/urbankart-api/config"
	"github.com/urbankart/urbankart-api/internal/handlers"
	"github.com/urbankart/urbankart-api/internal/middleware"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	xenditCfg, err := config.LoadXenditConfig()
	if err != nil {
		return fmt.Errorf("failed to load xendit config: %v", err)
	}

	xenditClient, err := config.InitXenditClient(xenditCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize xendit client: %v", err)
	}

	r := gin.Default()

	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.XenditMiddleware(xenditClient))

	setupRoutes(r, db)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB) {
	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)

		public.GET("/products", handlers.ListProducts)
		public.GET("/products/:id", handlers.GetProduct)
		public.GET("/categories", handlers.ListCategories)

		// User-aware but guest-friendly.
		promoPublic := public.Group("")
		promoPublic.Use(middleware.OptionalJWTAuthMiddleware())
		{
			promoPublic.GET("/coupons/available", handlers.ListAvailableCoupons)
			promoPublic.GET("/discounts/available", handlers.ListAvailableDiscounts)
			promoPublic.POST("/coupons/validate", handlers.ValidateCouponCode)
			promoPublic.POST("/discounts/validate", handlers.ValidateDiscountCode)
		}

		public.POST("/payments/webhook", handlers.XenditWebhook)
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.GET("/profile", handlers.GetProfile)

		cart := protected.Group("/cart")
		{
			cart.GET("", handlers.GetCart)
			cart.POST("/items", handlers.AddToCart)
			cart.PUT("/items/:id", handlers.UpdateCartItem)
			cart.DELETE("/items/:id", handlers.RemoveCartItem)
			cart.DELETE("", handlers.ClearCart)
		}

		orders := protected.Group("/orders")
		{
			orders.POST("", handlers.Checkout)
			orders.GET("", handlers.ListOrders)
			orders.GET("/:id", handlers.GetOrder)
			orders.POST("/:id/cancel", handlers.CancelOrder)
		}

		protected.POST("/payments", handlers.CreatePaymentLink)

		coins := protected.Group("/coins")
		{
			coins.GET("", handlers.GetCoinBalance)
			coins.GET("/transactions", handlers.ListCoinTransactions)
			coins.POST("/calculate", handlers.CalculateCoinRedemption)
			coins.POST("/redeem", handlers.RedeemCoins)
		}

		returns := protected.Group("/returns")
		{
			returns.POST("", handlers.RequestReturn)
			returns.GET("", handlers.ListReturns)
			returns.GET("/:id/label", handlers.GenerateReturnLabel)
		}
	}

	admin := r.Group("/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.POST("/categories", handlers.CreateCategory)
		admin.DELETE("/categories/:id", handlers.DeleteCategory)

		admin.POST("/products", handlers.CreateProduct)
		admin.PUT("/products/:id", handlers.UpdateProduct)
		admin.DELETE("/products/:id", handlers.DeleteProduct)

		admin.POST("/coupons", handlers.CreateCoupon)
		admin.GET("/coupons", handlers.ListCoupons)
		admin.PUT("/coupons/:id", handlers.UpdateCoupon)
		admin.DELETE("/coupons/:id", handlers.DeleteCoupon)

		admin.POST("/discounts", handlers.CreateDiscount)
		admin.GET("/discounts", handlers.ListDiscounts)
		admin.PUT("/discounts/:id", handlers.UpdateDiscount)
		admin.DELETE("/discounts/:id", handlers.DeleteDiscount)

		admin.GET("/coins/rules", handlers.GetCoinRules)
		admin.PUT("/coins/rules", handlers.UpsertCoinRules)
		admin.POST("/coins/expire", handlers.ExpireStaleCoins)

		admin.GET("/returns", handlers.ListAllReturns)
		admin.PUT("/returns/:id/status", handlers.UpdateReturnStatus)

		admin.PUT("/orders/:id/status", handlers.UpdateOrderStatus)
	}
}

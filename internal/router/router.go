package router

import (
	"github.com/gin-gonic/gin"
	"github.com/pqlammy/Gennerweb-sub000/internal/config"
	"github.com/pqlammy/Gennerweb-sub000/internal/handler"
	"github.com/pqlammy/Gennerweb-sub000/internal/lockout"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, key []byte, guard *lockout.Store, cfg *config.Config) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "gennerweb",
		})
	})

	authHandler := handler.NewAuthHandler(db, key, guard, cfg.Auth)
	contributionHandler := handler.NewContributionHandler(db, key, cfg.Contribution.Fields)
	settlementHandler := handler.NewSettlementHandler(db, key)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", authHandler.Login)

		authed := v1.Group("")
		authed.Use(handler.AuthRequired(cfg.Auth.JWTSecret))
		{
			authed.GET("/portal-config", func(c *gin.Context) {
				c.JSON(200, handler.Response{
					Success: true,
					Data: handler.PortalConfigResponse{
						Fields: map[string]string{
							"email":       string(cfg.Contribution.Fields.Email),
							"address":     string(cfg.Contribution.Fields.Address),
							"city":        string(cfg.Contribution.Fields.City),
							"postal_code": string(cfg.Contribution.Fields.PostalCode),
							"phone":       string(cfg.Contribution.Fields.Phone),
						},
						AmountPresets: cfg.Contribution.AmountPresets.Values,
					},
				})
			})

			contributions := authed.Group("/contributions")
			{
				contributions.POST("", contributionHandler.Create)
				contributions.GET("", contributionHandler.List)
				contributions.GET("/:id", contributionHandler.Get)
			}

			authed.POST("/settlements", settlementHandler.Create)

			admin := authed.Group("")
			admin.Use(handler.AdminRequired())
			{
				admin.PUT("/contributions/:id", contributionHandler.Update)
				admin.PATCH("/contributions/:id/toggle", contributionHandler.TogglePayment)
				admin.POST("/contributions/mark-paid", contributionHandler.BulkMarkPaid)
				admin.DELETE("/contributions/:id", contributionHandler.Delete)
				admin.POST("/contributions/bulk-delete", contributionHandler.BulkDelete)
				admin.GET("/settlements/:code", settlementHandler.GetByCode)
			}
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

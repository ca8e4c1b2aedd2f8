package webserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/DeImOs-Sj/Dgk-gov/src/api/config"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/data"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/dkg"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/errs"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/verify"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/x402"
)

// AdminMiddleware restricts a route to allow-listed wallets.
func AdminMiddleware(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.IsAdmin(c.GetString("addr")) {
			errs.Respond(c, errs.New(errs.Forbidden, "admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func attachRoutes(
	r *gin.Engine,
	cfg config.Config,
	store *data.Store,
	rdb *redis.Client,
	verifier verify.Verifier,
	publisher dkg.Publisher,
	facilitator x402.Facilitator,
) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Payment"},
		ExposeHeaders:    []string{"Content-Length", "X-Payment-Required"},
		AllowCredentials: true,
	}))

	authH := NewAuth(rdb, []byte(cfg.JWTSecret))
	proposalH := NewProposals(store, cfg, publisher)
	reportH := NewReports(store, cfg, verifier, publisher)

	secret := []byte(cfg.JWTSecret)
	resolver := x402.NewResolver(StorePriceSource{Store: store, Cfg: cfg})
	payment := x402.Middleware(resolver, facilitator)
	submitLimiter := NewRateLimiter(10, time.Minute)

	api := r.Group("/api")
	{
		api.POST("/auth/challenge", authH.Challenge)
		api.POST("/auth/verify", authH.Verify)

		api.GET("/proposals", proposalH.List)
		api.GET("/proposals/published", proposalH.ListPublished)
		api.GET("/proposals/:index", proposalH.Get)
		api.GET("/proposals/:index/reports", OptionalJWTMiddleware(secret), reportH.ListByProposal)

		admin := api.Group("", JWTMiddleware(secret), AdminMiddleware(cfg))
		admin.POST("/proposals", proposalH.Import)
		admin.POST("/proposals/:index/publish", proposalH.Publish)

		reports := api.Group("/reports")
		{
			reports.POST("/submit", JWTMiddleware(secret), RateLimitMiddleware(submitLimiter), reportH.Submit)
			reports.POST("/:id/verify", reportH.Verify)
			reports.POST("/:id/verify-and-publish", JWTMiddleware(secret), reportH.VerifyAndPublish)
			reports.POST("/:id/publish", reportH.Publish)
			reports.POST("/:id/request-access", payment, reportH.RequestAccess)
			reports.GET("/user/my-access", JWTMiddleware(secret), reportH.MyAccess)
			reports.GET("/ual/:ual/linked", OptionalJWTMiddleware(secret), reportH.LinkedReports)
			reports.GET("/private/:hash", OptionalJWTMiddleware(secret), reportH.PrivateData)
			reports.GET("/:id", OptionalJWTMiddleware(secret), payment, reportH.Get)
		}
	}
}

package webserver

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/DeImOs-Sj/Dgk-gov/src/api/config"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/data"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/dkg"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/verify"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/x402"
)

func New(
	cfg config.Config,
	store *data.Store,
	rdb *redis.Client,
	verifier verify.Verifier,
	publisher dkg.Publisher,
	facilitator x402.Facilitator,
) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, cfg, store, rdb, verifier, publisher, facilitator)
	return g
}

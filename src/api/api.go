package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DeImOs-Sj/Dgk-gov/src/api/config"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/data"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/dkg"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/verify"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/webserver"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/x402"
)

func main() {
	cfg := config.Load()

	db := data.MustSQLite(cfg.DatabasePath)
	store := data.NewStore(db)
	rdb := data.MustRedis(cfg.RedisURL)

	verifier := verify.NewClient(cfg.AIAPIKey, cfg.AIAPIURL, cfg.AIModel, cfg.CollaboratorTimeout)
	publisher := dkg.NewClient(cfg.DKGNodeURL, cfg.DKGExplorerURL, cfg.CollaboratorTimeout)
	facilitator := x402.NewFacilitatorClient(cfg.FacilitatorURL, cfg.CollaboratorTimeout)

	router := webserver.New(cfg, store, rdb, verifier, publisher, facilitator)
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Printf("Governance DKG API listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}

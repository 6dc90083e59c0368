package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lc/afd/internal/config"
	"github.com/lc/afd/internal/engine"
	"github.com/lc/afd/internal/log"
	"github.com/lc/afd/internal/parser"
	"github.com/lc/afd/pkg/api"
)

func main() {
	// load config
	cfg, err := config.New().Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	defer log.Sync()

	// build deps
	p := parser.New(
		parser.WithMarker(cfg.Parser.HeaderMarker),
		parser.WithMaxStates(cfg.Parser.MaxStates),
	)

	ctx, cancel := context.WithCancel(context.Background())
	eng := engine.New(p, cfg.Store.IdleTTL, cfg.Eval.Workers)
	eng.Run(ctx)

	// start the api over unix socket
	apiSrv := api.New(eng)
	sockPath := cfg.Socket.Path

	go func() {
		log.Infof("afdd: listening on %s", sockPath)
		if err := apiSrv.ListenAndServe(sockPath); err != nil {
			log.Fatalf("api listen: %v", err)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	<-sig
	log.Info("shutting down…")

	shutdownCtx, done := context.WithTimeout(ctx, 5*time.Second)
	defer done()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("api shutdown error: %v", err)
	}
	cancel()
	eng.Close()
	_ = os.Remove(sockPath)
}

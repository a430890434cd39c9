// Command voiced is the runtime entrypoint: it loads configuration, wires
// every collaborator, starts the campaign dispatcher's worker loop, and
// serves the HTTP/WebSocket control surface (spec §6), grounded on the
// teacher's cmd/api/main.go startup/shutdown shape.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/northlane/voicebridge/internal/app"
	"github.com/northlane/voicebridge/internal/server"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	a.Logger.Info("application initialized")

	runCtx, stopRun := context.WithCancel(context.Background())
	go func() {
		if err := a.Run(runCtx); err != nil && err != context.Canceled {
			a.Logger.Errorf("campaign dispatcher stopped: %v", err)
		}
	}()

	if a.Config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	server.InitializeRoutes(a.Config, router, a.Deps)

	startServer(router, a, stopRun)
}

func startServer(router *gin.Engine, a *app.App, stopRun context.CancelFunc) {
	port := 8088
	if p := os.Getenv("PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	addr := ":" + strconv.Itoa(port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router.Handler(),
	}

	go func() {
		a.Logger.Infof("server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.Logger.Info("shutting down server...")
	stopRun()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		a.Logger.Errorf("server forced to shutdown: %v", err)
	} else {
		a.Logger.Info("server shutdown complete")
	}
}

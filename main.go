package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/apexdata/trackline/api"
	"github.com/apexdata/trackline/internal/elevation"
	"github.com/apexdata/trackline/internal/httputil"
	"github.com/apexdata/trackline/internal/overpass"
	"github.com/apexdata/trackline/internal/trackdb"
	"github.com/apexdata/trackline/internal/version"
)

var (
	devMode = flag.Bool("dev", false, "Run in dev mode (replay fixtures.json instead of querying Overpass)")
	listen  = flag.String("listen", ":8080", "Listen address")
	dbPath  = flag.String("db", "trackline.db", "Path to the sqlite track store")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	var ov *overpass.Client
	var elev elevation.Provider
	if *devMode {
		data, err := os.ReadFile("fixtures.json")
		if err != nil {
			log.Fatalf("failed to open fixtures file: %v", err)
		}
		mock := httputil.NewMockHTTPClient()
		mock.AddResponse(http.StatusOK, string(data))
		ov = overpass.NewClient(mock)
		elev = elevation.Flat{}
	} else {
		ov = overpass.NewClient(nil)
		elev = elevation.NewHTTPProvider(nil)
	}

	db, err := trackdb.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open track store: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(db, ov, elev)
	httpServer := &http.Server{
		Addr:    *listen,
		Handler: server.ServeMux(),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("trackline %s (%s) listening on %s", version.Version, version.GitSHA, *listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
	wg.Wait()
}

// Command guardiand runs the in-cabin presence monitor: the radar pipeline
// worker, the risk engine, the history database and the HTTP API. In dev
// mode a synthetic capture feed replaces the radar front-end so the whole
// stack runs on a laptop.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/KazeAsh/guardianseat/internal/api"
	"github.com/KazeAsh/guardianseat/internal/config"
	"github.com/KazeAsh/guardianseat/internal/db"
	"github.com/KazeAsh/guardianseat/internal/monitor"
	"github.com/KazeAsh/guardianseat/internal/radar"
	"github.com/KazeAsh/guardianseat/internal/risk"
	"github.com/KazeAsh/guardianseat/internal/sim"
	"github.com/KazeAsh/guardianseat/internal/weather"
)

var (
	devMode    = flag.Bool("dev", false, "Run in dev mode with a synthetic capture feed")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	configPath = flag.String("config", "", "Path to tuning config JSON")
	dbPath     = flag.String("db", "", "Path to history database (overrides config)")
)

func main() {
	flag.Parse()

	rt, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *listen != "" {
		rt.Listen = *listen
	}
	if *dbPath != "" {
		rt.DBPath = *dbPath
	}

	processor, err := radar.NewProcessor(rt.Radar)
	if err != nil {
		log.Fatalf("failed to build radar processor: %v", err)
	}
	assessor := risk.NewAssessor()

	store, err := db.NewDB(rt.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	alertLevel, ok := risk.ParseLevel(rt.AlertLevel)
	if !ok {
		log.Fatalf("invalid alert level %q", rt.AlertLevel)
	}

	wx := weather.NewClient(rt.WeatherKey, rt.WeatherCity)
	mon := monitor.New(processor, assessor, store, wx, monitor.Options{
		QueueCapacity: rt.QueueCapacity,
		WindowBudget:  rt.WindowBudget,
		AlertLevel:    &alertLevel,
	})
	mon.OnResult = func(res monitor.Result) {
		log.Printf("window: risk=%.3f level=%s vitals=%v hr=%.1f br=%.1f",
			res.Assessment.TotalRisk, res.Assessment.Level,
			res.Scan.VitalSigns.Detected,
			res.Scan.VitalSigns.HeartRateBPM, res.Scan.VitalSigns.BreathingRateBPM)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// processing worker
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mon.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("monitor loop failed: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// dev-mode capture feed: one synthetic window per interval plus the
	// scenario's vehicle readings, compressed so a full 30-minute timeline
	// plays out in about three minutes
	if *devMode {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gen := sim.NewGenerator(rt.Radar.SampleRate, rt.WindowSeconds, time.Now().UnixNano())
			scenario := sim.NewScenario(time.Now().UnixNano())
			ticker := time.NewTicker(5 * time.Second)
			defer ticker.Stop()

			minute := 0
			for {
				select {
				case <-ticker.C:
					mon.Tracker().Update(scenario.VehicleAt(minute))
					mon.Submit(gen.Frame(sim.FrameOptions{
						HasChild: minute >= 5,
						Movement: sim.MovementLow,
					}))
					minute++
				case <-ctx.Done():
					log.Print("capture feed terminated")
					return
				}
			}
		}()
	}

	// HTTP server
	wg.Add(1)
	go func() {
		defer wg.Done()

		apiServer := api.NewServer(processor, assessor, store, mon)
		mux := http.NewServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiServer.ServeMux()))
		mux.Handle("/debug/", http.StripPrefix("/debug", apiServer.DebugMux()))

		server := &http.Server{
			Addr:    rt.Listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s", rt.Listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

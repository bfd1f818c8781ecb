package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kareemschultz/masjidconnect-gy-sub000/handlers"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/dates"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/points"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/recordstore"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/remote"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/syncer"
	"github.com/kareemschultz/masjidconnect-gy-sub000/middleware"
	"github.com/kareemschultz/masjidconnect-gy-sub000/services"
)

var (
	store          *recordstore.Store
	trackerService *services.TrackerService
	syncCoord      *syncer.Coordinator
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	storagePath := os.Getenv("STORAGE_PATH")
	if storagePath == "" {
		storagePath = "./data/tracker.json"
	}

	store = recordstore.New(storagePath)
	log.Printf("Record store loaded from %s", storagePath)

	resolver := dates.NewResolver()
	trackerService = services.NewTrackerService(store, resolver, points.DefaultConfig())

	// Sync is optional: without a remote URL the daemon runs purely
	// local-first and the store stays the only replica.
	remoteURL := os.Getenv("REMOTE_SYNC_URL")
	if remoteURL != "" {
		debounce := syncer.DefaultDebounce
		if ms := os.Getenv("SYNC_DEBOUNCE_MS"); ms != "" {
			parsed, err := strconv.Atoi(ms)
			if err != nil {
				log.Printf("Invalid SYNC_DEBOUNCE_MS %q, using default", ms)
			} else {
				debounce = time.Duration(parsed) * time.Millisecond
			}
		}

		client := remote.NewClient(remoteURL, os.Getenv("REMOTE_SYNC_TOKEN"))
		syncCoord = syncer.NewCoordinator(store, client, debounce)
		log.Printf("Sync coordinator enabled against %s", remoteURL)
	} else {
		log.Println("REMOTE_SYNC_URL not set, running without sync")
	}

	middleware.InitPrometheus()
	syncer.InitMetrics()
}

func main() {
	defer func() {
		if syncCoord != nil {
			syncCoord.Close()
		}
	}()

	trackerHandler := handlers.NewTrackerHandler(trackerService, syncCoord)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "masjidconnect-tracker"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)
	if syncCoord != nil {
		protected.Use(middleware.SessionSignalMiddleware(syncCoord))
	}

	protected.HandleFunc("/day", trackerHandler.GetToday).Methods("GET")
	protected.HandleFunc("/day/flag", trackerHandler.SetFlag).Methods("POST")
	protected.HandleFunc("/day/detail", trackerHandler.MergeDetail).Methods("POST")
	protected.HandleFunc("/day/{date}", trackerHandler.GetDay).Methods("GET")
	protected.HandleFunc("/progress", trackerHandler.GetProgress).Methods("GET")
	protected.HandleFunc("/streak", trackerHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/points/today", trackerHandler.GetTodayPoints).Methods("GET")
	protected.HandleFunc("/points/lifetime", trackerHandler.GetLifetimePoints).Methods("GET")
	protected.HandleFunc("/history", trackerHandler.GetHistory).Methods("GET")
	protected.HandleFunc("/calendar", trackerHandler.GetCalendar).Methods("GET")
	protected.HandleFunc("/session/end", trackerHandler.EndSession).Methods("POST")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "4040"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting tracker daemon on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}

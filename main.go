package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/openelects/candidatesbackend/config"
	"github.com/openelects/candidatesbackend/database"
	"github.com/openelects/candidatesbackend/handlers"
	"github.com/openelects/candidatesbackend/media"
	"github.com/openelects/candidatesbackend/repository"
	"github.com/openelects/candidatesbackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.PhotosPath, cfg.ThumbnailsPath, cfg.ExportsPath, filepath.Dir(cfg.DatabasePath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("FATAL: Failed to get underlying sql.DB: %v", err)
	}
	defer sqlDB.Close()

	mediaSubDirs := map[media.AssetType]string{
		media.AssetTypePhoto:     filepath.Base(cfg.PhotosPath),
		media.AssetTypeThumbnail: filepath.Base(cfg.ThumbnailsPath),
		media.AssetTypeExport:    filepath.Base(cfg.ExportsPath),
	}
	mediaStore, err := media.NewLocalStorage(cfg.MediaStoragePath, mediaSubDirs)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize media store: %v", err)
	}
	mediaProcessor := media.NewProcessor(mediaStore)

	personRepo := repository.NewPersonRepository(db)
	electionRepo := repository.NewElectionRepository(db)
	imageRepo := repository.NewImageRepository(db)
	userRepo := repository.NewUserRepository(db)
	mergeStore := &repository.MergeStore{DB: db}

	log.Printf("Initializing export worker pool (Workers: %d, Queue Size: %d)...", cfg.NumExportWorkers, cfg.ExportQueueSize)
	exportGen := workers.NewExportGenerator(sqlDB, electionRepo, mediaStore, cfg.ExportQueueSize, cfg.NumExportWorkers)
	defer exportGen.Stop()

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Storing photos in: %s", cfg.PhotosPath)
	log.Printf("Thumbnail max size (longest side): %dpx", cfg.ThumbnailMaxSize)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	personHandler := handlers.NewPersonHandler(personRepo, mergeStore)
	mergeHandler := handlers.NewMergeHandler(personRepo, mergeStore)
	photoHandler := handlers.NewPhotoHandler(imageRepo, personRepo, mediaProcessor, cfg)
	exportHandler := handlers.NewExportHandler(electionRepo, exportGen, mediaStore)

	authed := func(h http.HandlerFunc) http.Handler {
		return handlers.AuthMiddleware(userRepo, cfg.JWTSecret, h)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Method("GET", "/me", authed(authHandler.CurrentUser))
		})

		r.Route("/people", func(r chi.Router) {
			r.Get("/", personHandler.ListPeople)
			r.Method("POST", "/", authed(personHandler.CreatePerson))
			r.Method("POST", "/merge", authed(mergeHandler.MergePeople))
			r.Route("/{personID}", func(r chi.Router) {
				r.Get("/", personHandler.GetPerson)
				r.Method("PUT", "/", authed(personHandler.UpdatePerson))
				r.Method("DELETE", "/", handlers.AuthMiddleware(userRepo, cfg.JWTSecret,
					handlers.RequireModerator(http.HandlerFunc(personHandler.DeletePerson))))
				r.Get("/versions", personHandler.GetVersions)
				r.Method("POST", "/photos", authed(photoHandler.UploadPhoto))
			})
		})

		r.Route("/elections", func(r chi.Router) {
			r.Get("/", exportHandler.ListElections)
			r.Get("/{electionSlug}/candidates.csv", exportHandler.GetCandidatesCSV)
		})

		photosSubDir := filepath.Base(cfg.PhotosPath)
		r.Get(fmt.Sprintf("/%s/*", photosSubDir), handlers.AssetServer(mediaStore, photosSubDir))
		log.Printf("Registered photo server at /%s/*", photosSubDir)

		thumbnailSubDir := filepath.Base(cfg.ThumbnailsPath)
		r.Get(fmt.Sprintf("/%s/*", thumbnailSubDir), handlers.AssetServer(mediaStore, thumbnailSubDir))
		log.Printf("Registered thumbnail server at /%s/*", thumbnailSubDir)
	})

	serverAddr := ":" + cfg.Port
	fmt.Printf("Server starting on http://localhost:%s\n", cfg.Port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}

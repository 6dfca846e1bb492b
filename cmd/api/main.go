package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"anilifetv/internal/adapter/api"
	"anilifetv/internal/adapter/api/handler"
	apimiddleware "anilifetv/internal/adapter/api/middleware"
	"anilifetv/internal/adapter/api/router"
	"anilifetv/internal/adapter/repository"
	"anilifetv/internal/domain/service"
	"anilifetv/internal/infrastructure/anilibria"
	"anilifetv/internal/infrastructure/cache"
	"anilifetv/internal/infrastructure/firebase"
	"anilifetv/internal/infrastructure/storage"
	"anilifetv/internal/infrastructure/websocket"
	"anilifetv/internal/usecase"
	"anilifetv/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption

	// Service account from environment (production) or file (local dev).
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}
		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	fbAuth, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}
	authClient := firebase.NewAuthClient(fbAuth)

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	catalogCache := cache.NewCache(cfg.RedisAddr, cfg.RedisPassword)
	defer catalogCache.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)
	presenceRepo := repository.NewFirestorePresenceRepository(firestoreClient)

	previewService := service.NewLinkPreviewService(time.Duration(cfg.PreviewTimeoutSec)*time.Second, nil)
	anilibriaClient := anilibria.NewClient(cfg.AnilibriaBaseURL, cfg.AnilibriaStaticBase, nil)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	authUseCase := usecase.NewAuthUseCase(authClient, userRepo)
	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, storageClient, previewService)
	catalogUseCase := usecase.NewCatalogUseCase(anilibriaClient, catalogCache, time.Duration(cfg.CatalogCacheSec)*time.Second, cfg.SiteBaseURL)
	playbackUseCase := usecase.NewPlaybackUseCase(nil)

	e := echo.New()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	prerender := apimiddleware.NewPrerenderMiddleware(cfg.PrerenderURL)
	e.Use(prerender.Redirect)

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	authHandler := handler.NewAuthHandler(authUseCase)
	chatHandler := handler.NewChatHandler(chatUseCase)
	catalogHandler := handler.NewCatalogHandler(catalogUseCase)
	playerHandler := handler.NewPlayerHandler(playbackUseCase)
	seoHandler := handler.NewSEOHandler(cfg.SiteBaseURL)
	wsHandler := handler.NewWebSocketHandler(wsManager, authClient, chatUseCase, chatRepo, presenceRepo)

	router.Setup(e, authMiddleware, authHandler, chatHandler, catalogHandler, playerHandler, seoHandler, wsHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

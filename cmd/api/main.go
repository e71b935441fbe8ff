package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"storefront/internal/adapter/api"
	"storefront/internal/adapter/api/handler"
	apimiddleware "storefront/internal/adapter/api/middleware"
	"storefront/internal/adapter/api/router"
	"storefront/internal/adapter/repository"
	domainrepo "storefront/internal/domain/repository"
	"storefront/internal/infrastructure/firebase"
	"storefront/internal/infrastructure/ratelimit"
	"storefront/internal/infrastructure/realtime"
	"storefront/internal/infrastructure/storage"
	"storefront/internal/infrastructure/websocket"
	"storefront/internal/usecase"
	"storefront/pkg/config"
	"storefront/pkg/logger"
)

// backends are the external systems the use cases run against.
type backends struct {
	store       realtime.DocumentStore
	identity    usecase.IdentityProvider
	productRepo domainrepo.ProductRepository
	files       usecase.FileStorage
	closers     []func() error
}

func (b *backends) close() {
	for _, c := range b.closers {
		if err := c(); err != nil {
			logger.Warn("Shutdown: %v", err)
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}
	logger.Configure(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := setupBackends(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize backends: %v", err)
	}
	defer b.close()

	userRepo := repository.NewRealtimeUserRepository(b.store)
	reviewRepo := repository.NewRealtimeReviewRepository(b.store)

	limiter := ratelimit.NewRateLimiter(ratelimit.PerMinute(60), map[string]ratelimit.Policy{
		ratelimit.ActionSubmitReview: ratelimit.PerMinute(cfg.ReviewRatePerMinute),
		ratelimit.ActionDeleteReview: ratelimit.PerMinute(cfg.ReviewRatePerMinute),
		ratelimit.ActionBuyNow:       ratelimit.PerMinute(30),
		ratelimit.ActionAuth:         ratelimit.PerMinute(10),
	})
	limiter.StartCleanupRoutine(ctx.Done())

	sellers := usecase.NewClaimsSellerPolicy(cfg.SellerClaim)
	authUseCase := usecase.NewAuthUseCase(userRepo, b.identity, sellers, usecase.ClaimNames{
		Seller: cfg.SellerClaim,
		Admin:  cfg.AdminClaim,
	})
	productUseCase := usecase.NewProductUseCase(b.productRepo, reviewRepo, b.files)
	reviewUseCase := usecase.NewReviewUseCase(reviewRepo, limiter)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	handler.Setup(authUseCase, productUseCase, reviewUseCase)
	handler.SetupHealthHandler(b.store, cfg.StoreBackend)
	handler.SetupWebSocketHandler(handler.NewWebSocketHandler(
		wsManager,
		authUseCase,
		productUseCase,
		reviewUseCase,
		limiter,
		cfg.PurchaseOverlayDelay,
	))

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authUseCase)
	adminMiddleware := apimiddleware.NewAdminMiddleware()

	router.Setup(e, authMiddleware, adminMiddleware, limiter)

	go func() {
		logger.Info("Starting server on port %s (store=%s, products=%s)...", cfg.ServerPort, cfg.StoreBackend, cfg.ProductBackend)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}

func setupBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	if cfg.StoreBackend == config.BackendMemory {
		store := realtime.NewMemoryStore()
		logger.Warn("Using in-memory store and development identity provider; data is lost on restart")
		return &backends{
			store:       store,
			identity:    firebase.NewDevAuthClient(cfg.JWTSecret, cfg.JWTExpiry),
			productRepo: repository.NewRealtimeProductRepository(store),
		}, nil
	}

	var opts []option.ClientOption
	switch {
	case cfg.FirebaseCredentialsJSON != "":
		logger.Info("Using Firebase service account from environment variable")
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FirebaseCredentialsJSON)))
	case cfg.FirebaseCredentialsPath != "":
		if _, err := os.Stat(cfg.FirebaseCredentialsPath); err != nil {
			return nil, err
		}
		logger.Info("Using Firebase service account from file: %s", cfg.FirebaseCredentialsPath)
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsPath))
	default:
		logger.Info("Using application default credentials")
	}

	app, err := fbapp.NewApp(ctx, &fbapp.Config{
		ProjectID:     cfg.FirebaseProject,
		DatabaseURL:   cfg.FirebaseDatabaseURL,
		StorageBucket: cfg.StorageBucket,
	}, opts...)
	if err != nil {
		return nil, err
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	dbClient, err := app.Database(ctx)
	if err != nil {
		return nil, err
	}

	store := firebase.NewRTDBStore(dbClient, cfg.RealtimePollInterval)
	b := &backends{
		store:       store,
		identity:    firebase.NewAuthClient(authClient, cfg.FirebaseApiKey),
		productRepo: repository.NewRealtimeProductRepository(store),
	}

	if cfg.ProductBackend == config.BackendFirestore {
		firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, firestoreClient.Close)
		b.productRepo = repository.NewFirestoreProductRepository(firestoreClient)
	}

	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, storageClient.Close)
		b.files = storageClient
	} else {
		logger.Warn("STORAGE_BUCKET not set; product image uploads are disabled")
	}

	return b, nil
}

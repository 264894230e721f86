package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"clipbridge-api/domain/repository"
	"clipbridge-api/infrastructure/cache"
	googleclient "clipbridge-api/infrastructure/clients/google"
	youtubeclient "clipbridge-api/infrastructure/clients/youtube"
	"clipbridge-api/infrastructure/configuration"
	"clipbridge-api/infrastructure/logger"
	"clipbridge-api/infrastructure/persistence"
	"clipbridge-api/infrastructure/pubsub"
	"clipbridge-api/infrastructure/servicebus"
	httpHandler "clipbridge-api/interfaces/http"
	"clipbridge-api/server"
	"clipbridge-api/usecase"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	db, vendor, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
		os.Exit(1)
	}
	logger.GetLogger().
		WithField("vendor", vendor).
		WithField("ping", db.Ping()).
		Info("Database connected.")

	if vendor == "postgres" {
		if err := persistence.EnsureChannelAuthSchema(db); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring channel auth schema")
		}
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without the auth event log")
		mongoDb = nil
	} else if err := mongoDb.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without the auth event log")
		mongoDb = nil
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Pub/Sub not available - auth events will not be published")
		pubSubClient = nil
	}

	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - upload pipeline will not be notified")
		azServiceBusClient = nil
	}

	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - status responses will not be cached")
		redisClient = nil
	}

	var channelAuthRepo repository.IChannelAuth
	if vendor == "mssql" {
		channelAuthRepo = persistence.NewChannelAuthRepositoryMSSQL(db)
	} else {
		channelAuthRepo = persistence.NewChannelAuthRepository(db)
	}
	authEventRepo := persistence.NewAuthEventRepository(mongoDb)
	statusCache := cache.NewChannelStatusCache(redisClient)
	eventPublisher := pubsub.NewAuthEventPublisher(pubSubClient, configuration.C.Pubsub.Topic)
	uploadNotifier := servicebus.NewUploadNotifier(azServiceBusClient, configuration.C.ServiceBus.UploadQueue)

	googleConfig := configuration.GetGoogleConfig()
	channelAuthUsecase := usecase.NewChannelAuthUsecase(
		channelAuthRepo,
		googleclient.NewOAuthClient(),
		youtubeclient.NewChannelClient(),
		authEventRepo,
		statusCache,
		eventPublisher,
		uploadNotifier,
		googleConfig.DefaultRedirectURI,
	)
	tokenProvider := usecase.NewUploadTokenProvider(channelAuthRepo, channelAuthUsecase)

	channelAuthHandler := httpHandler.NewChannelAuthHandler(channelAuthUsecase)
	channelHandler := httpHandler.NewChannelHandler(channelAuthUsecase, tokenProvider)

	router := server.InitiateRouter(channelAuthHandler, channelHandler)

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
			logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
			if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase picks the SQL vendor: MSSQL in production or when
// DB_VENDOR=mssql, PostgreSQL otherwise.
func InitiateDatabase() (*sql.DB, string, error) {
	env := os.Getenv("ENV")
	if os.Getenv("DB_VENDOR") == "mssql" || env == "production" || env == "prod" {
		db, err := persistence.NewMSSQLDB()
		if err != nil {
			return nil, "", err
		}
		return db, "mssql", nil
	}
	db, err := persistence.NewPostgreSQLDB()
	if err != nil {
		return nil, "", err
	}
	return db, "postgres", nil
}

package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"catalogue/pkg/log"
	"catalogue/pkg/models"
	"catalogue/pkg/users"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	shutdownTimeout = 10

	serviceName = "catalogue"
)

// DatasetCatalogue is the dataset storage used by the handlers.
type DatasetCatalogue interface {
	List(ctx context.Context) ([]models.Dataset, error)
	Add(ctx context.Context, ds models.Dataset) error
	Remove(ctx context.Context, id, owner string) (int64, error)
	Close() error
}

// CDNCatalogue is the CDN binding storage used by the handlers.
type CDNCatalogue interface {
	List(ctx context.Context) ([]models.CDNBinding, error)
	AddBinding(ctx context.Context, datasetID, originURL string) error
	AddSite(ctx context.Context, site models.CDNSite) error
	RemoveBinding(ctx context.Context, datasetID string) (bindings, sites int64, err error)
	RemoveSite(ctx context.Context, datasetID, name string) (int64, error)
	Close() error
}

// UserDirectory authenticates callers and resolves session identities.
type UserDirectory interface {
	CheckPassword(ctx context.Context, userID, passwordHash string) (bool, error)
	Authenticate(ctx context.Context, userID, password string) (*models.User, *users.AuthFailure)
	Serialize(user models.User) string
	Deserialize(ctx context.Context, sessionID string) (*models.User, error)
	Close() error
}

type CatalogueServer struct {
	echo     *echo.Echo
	version  string
	datasets DatasetCatalogue
	cdns     CDNCatalogue
	users    UserDirectory
	sessions *sessionStore

	routesOnce sync.Once
}

func NewCatalogueServer(version string, datasets DatasetCatalogue, cdns CDNCatalogue,
	directory UserDirectory, sessionTTL time.Duration) *CatalogueServer {
	return &CatalogueServer{
		echo:     echo.New(),
		version:  version,
		datasets: datasets,
		cdns:     cdns,
		users:    directory,
		sessions: newSessionStore(sessionTTL),
	}
}

func (cs *CatalogueServer) Start(addr string) error {
	cs.setupRoutes()

	go func() {
		log.Info().
			Str("addr", addr).
			Str("version", cs.version).
			Msg("Starting catalogue server")

		if err := cs.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server startup failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return cs.Shutdown()
}

// Shutdown stops accepting requests, waits for in-flight ones and closes the catalogues.
func (cs *CatalogueServer) Shutdown() error {
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout*time.Second)
	defer cancel()

	if err := cs.echo.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
		return err
	}

	log.Info().Msg("Server gracefully stopped")

	var closeErr error
	for name, closer := range map[string]interface{ Close() error }{
		"datasets": cs.datasets,
		"cdns":     cs.cdns,
		"users":    cs.users,
	} {
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Str("catalogue", name).Msg("Failed to close catalogue")
			closeErr = errors.Join(closeErr, err)
		}
	}

	log.Info().Msg("Shutdown complete")
	return closeErr
}

func (cs *CatalogueServer) setupRoutes() {
	cs.routesOnce.Do(cs.registerRoutes)
}

func (cs *CatalogueServer) registerRoutes() {
	cs.echo.HideBanner = true
	cs.echo.HidePort = true
	cs.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} ${status} ${method} ${uri} (${latency_human})\n",
	}))
	cs.echo.Use(middleware.Recover())
	cs.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowCredentials: false,
	}))

	auth := cs.authMiddleware()

	cs.echo.GET("/", cs.serveStatus)
	cs.echo.GET("/swagger.yml", cs.serveSwaggerSpec)

	cs.echo.GET("/datasets/list", cs.listDatasets)
	cs.echo.POST("/datasets/add", cs.addDataset, auth...)
	cs.echo.DELETE("/datasets/remove", cs.removeDataset, auth...)

	cs.echo.GET("/cdns/list", cs.listCDNs)
	cs.echo.POST("/cdns/add", cs.addCDN, auth...)
	cs.echo.POST("/cdns/add_site", cs.addCDNSite, auth...)
	cs.echo.DELETE("/cdns/remove", cs.removeCDN, auth...)
	cs.echo.DELETE("/cdns/remove_site", cs.removeCDNSite, auth...)

	cs.echo.GET("/users/check", cs.checkUser)
}

// Handler returns the configured router, for embedding and tests.
func (cs *CatalogueServer) Handler() http.Handler {
	cs.setupRoutes()
	return cs.echo
}

func (cs *CatalogueServer) serveStatus(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{
		"service": serviceName,
		"version": cs.version,
	})
}

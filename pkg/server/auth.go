package server

import (
	"errors"
	"net/http"

	"catalogue/pkg/log"
	"catalogue/pkg/models"
	"catalogue/pkg/recordstore"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	userContextKey = "user"
	authRealm      = "catalogue"
)

// authMiddleware resolves the caller from the session cookie and falls back
// to HTTP basic credentials, issuing a new session when they are accepted.
func (cs *CatalogueServer) authMiddleware() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		cs.sessionAuth,
		middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
			Skipper: func(ctx echo.Context) bool {
				return currentUser(ctx) != nil
			},
			Validator: cs.validateCredentials,
			Realm:     authRealm,
		}),
	}
}

func (cs *CatalogueServer) sessionAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cookie, err := ctx.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			return next(ctx)
		}

		identity, ok := cs.sessions.lookup(cookie.Value)
		if !ok {
			return next(ctx)
		}

		user, err := cs.users.Deserialize(ctx.Request().Context(), identity)
		if err != nil {
			if errors.Is(err, recordstore.ErrStore) {
				log.Error().Err(err).Msg("Failed to resolve session")
				return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			}
			log.Debug().Err(err).Str("session", cookie.Value).Msg("Dropping stale session")
			cs.sessions.remove(cookie.Value)
			return next(ctx)
		}

		ctx.Set(userContextKey, user)
		return next(ctx)
	}
}

func (cs *CatalogueServer) validateCredentials(username, password string, ctx echo.Context) (bool, error) {
	user, failure := cs.users.Authenticate(ctx.Request().Context(), username, password)
	if failure != nil {
		if errors.Is(failure, recordstore.ErrStore) {
			return false, failure.Err
		}
		log.Info().Str("user", username).Str("reason", failure.Reason).Msg("Rejected credentials")
		return false, nil
	}

	sessionID := cs.sessions.create(cs.users.Serialize(*user))
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	ctx.Set(userContextKey, user)
	return true, nil
}

func currentUser(ctx echo.Context) *models.User {
	user, _ := ctx.Get(userContextKey).(*models.User)
	return user
}

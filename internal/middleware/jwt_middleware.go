package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"focustache/internal/models"
	"focustache/internal/services"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

type identityContextKey struct{}

// TokenVerifier resolves a bearer token to the user it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authenticate parses a raw Authorization header of the form "Bearer <token>"
// and verifies the token. Every failure is reported as services.ErrUnauthenticated.
func Authenticate(header string, verifier TokenVerifier) (models.Identity, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return models.Identity{}, fmt.Errorf("%w: authorization header must be 'Bearer <token>'", services.ErrUnauthenticated)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Identity{}, fmt.Errorf("%w: empty bearer token", services.ErrUnauthenticated)
	}

	userID, err := verifier.Verify(token)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", services.ErrUnauthenticated, err)
	}
	return models.Identity{UserID: userID}, nil
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
// The resolved identity is stored in the Fiber locals and the user context.
func AuthRequired(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := Authenticate(c.Get(fiber.HeaderAuthorization), verifier)
		if err != nil {
			slog.DebugContext(c.UserContext(), "authentication failed", "path", c.Path(), "error", err)
			return err
		}

		c.Locals(identityKey, identity)
		c.SetUserContext(WithIdentity(c.UserContext(), identity))
		return c.Next()
	}
}

// IdentityFrom returns the identity set by AuthRequired.
func IdentityFrom(c *fiber.Ctx) (models.Identity, bool) {
	identity, ok := c.Locals(identityKey).(models.Identity)
	return identity, ok && identity.UserID != ""
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(models.Identity)
	return identity, ok
}

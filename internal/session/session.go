// Package session resolves the authenticated principal of a request. Tokens
// are issued by the external identity provider; this package only verifies them.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenCookie is the cookie the identity provider stores its access token in.
const AccessTokenCookie = "sb-access-token"

// RoleAdmin is the user_metadata role allowed into the admin console.
const RoleAdmin = "admin"

var ErrUnauthenticated = errors.New("user not authenticated")

// Identity is the verified caller of a request.
type Identity struct {
	UserID string
	Role   string
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// WithPrincipal returns a context carrying userID with no role.
func WithPrincipal(ctx context.Context, userID string) context.Context {
	return WithIdentity(ctx, Identity{UserID: userID})
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != ""
}

// FromContext returns the user id stored in ctx.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.UserID, ok
}

// ContextResolver resolves the principal placed in the context by Middleware.
type ContextResolver struct{}

func (ContextResolver) Principal(ctx context.Context) (string, error) {
	if id, ok := FromContext(ctx); ok {
		return id, nil
	}
	return "", ErrUnauthenticated
}

// Claims are the access token claims read by this service. The role lives in
// the identity provider's user_metadata.
type Claims struct {
	jwt.RegisteredClaims
	UserMetadata struct {
		Role string `json:"role"`
	} `json:"user_metadata"`
}

// Verifier checks HS256 access tokens and extracts the caller identity.
type Verifier struct {
	secret []byte
	leeway time.Duration
}

// NewVerifier returns a Verifier for tokens signed with secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), leeway: 30 * time.Second}
}

// Verify returns the token subject and role.
func (v *Verifier) Verify(tokenString string) (Identity, error) {
	if len(v.secret) == 0 {
		return Identity{}, errors.New("token verification not configured")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("verify token: %w", err)
	}
	if claims.Subject == "" {
		return Identity{}, errors.New("verify token: missing subject")
	}
	return Identity{UserID: claims.Subject, Role: claims.UserMetadata.Role}, nil
}

// Middleware attaches the principal of a valid bearer token or access token
// cookie to the request context. Requests without a valid token continue
// anonymously.
func Middleware(v *Verifier, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if ck, err := c.Cookie(AccessTokenCookie); err == nil {
				token = ck
			}
		}
		if token != "" {
			id, err := v.Verify(token)
			if err != nil {
				log.Debug("ignoring invalid access token", "err", err)
			} else {
				c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
			}
		}
		c.Next()
	}
}

// RequirePrincipal aborts with 401 unless Middleware resolved a principal.
func RequirePrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := FromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// RequireRole aborts with 401 without a principal and with 403 when the
// principal does not hold role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if id.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func bearerToken(h string) string {
	const prefix = "bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

package tenant

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Resolver turns an inbound request into a tenant context.
type Resolver interface {
	Resolve(c *gin.Context) (Context, error)
}

// ErrNoToken indicates the request carried no bearer token.
var ErrNoToken = errors.New("tenant: missing bearer token")

// ErrNoSecret indicates the resolver has no signing secret configured.
// Without one, every token is rejected; accepting tokens verified
// against an empty HMAC key would let anyone mint valid identities.
var ErrNoSecret = errors.New("tenant: no signing secret configured")

// guardClaims maps the JWT claim set carried by platform tokens.
type guardClaims struct {
	OrganizationID string   `json:"org_id"`
	Role           string   `json:"role"`
	Permissions    []string `json:"permissions"`
	jwt.RegisteredClaims
}

// JWTResolver resolves tenant contexts from HMAC-signed bearer tokens.
type JWTResolver struct {
	secret []byte
}

// NewJWTResolver constructs a JWTResolver with the shared secret.
func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

// Resolve parses the Authorization header into a tenant context.
func (r *JWTResolver) Resolve(c *gin.Context) (Context, error) {
	if r == nil || c == nil || c.Request == nil {
		return Context{}, ErrNoToken
	}
	if len(r.secret) == 0 {
		return Context{}, ErrNoSecret
	}
	raw := strings.TrimSpace(c.Request.Header.Get("Authorization"))
	if raw == "" {
		return Context{}, ErrNoToken
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[len("bearer "):])
	}
	if raw == "" {
		return Context{}, ErrNoToken
	}

	var claims guardClaims
	token, errParse := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("tenant: unexpected signing method %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if errParse != nil {
		return Context{}, fmt.Errorf("tenant: parse token: %w", errParse)
	}
	if !token.Valid {
		return Context{}, errors.New("tenant: invalid token")
	}

	return Context{
		OrganizationID: strings.TrimSpace(claims.OrganizationID),
		UserID:         strings.TrimSpace(claims.Subject),
		Role:           strings.TrimSpace(claims.Role),
		Permissions:    claims.Permissions,
	}, nil
}

// Attach builds middleware that resolves and stores the tenant context.
// Resolution failures fall back to an anonymous context; downstream
// gates decide whether anonymous callers may proceed.
func Attach(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tctx := Anonymous()
		if resolver != nil {
			resolved, errResolve := resolver.Resolve(c)
			if errResolve == nil {
				tctx = resolved
			}
		}
		c.Set(ContextKey, tctx)
		c.Next()
	}
}

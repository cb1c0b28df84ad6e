package tenant

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, errSign := token.SignedString([]byte(secret))
	if errSign != nil {
		t.Fatalf("sign token: %v", errSign)
	}
	return signed
}

func ginContext(r *http.Request) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = r
	return c
}

func TestJWTResolverResolve(t *testing.T) {
	resolver := NewJWTResolver("test-secret")
	signed := signToken(t, "test-secret", jwt.MapClaims{
		"org_id":      "org-1",
		"sub":         "user-1",
		"role":        "admin",
		"permissions": []string{"billing:read", "*"},
		"exp":         time.Now().Add(time.Hour).Unix(),
	})

	r := httptest.NewRequest("GET", "/v0/api/data", nil)
	r.Header.Set("Authorization", "Bearer "+signed)

	tctx, err := resolver.Resolve(ginContext(r))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tctx.OrganizationID != "org-1" || tctx.UserID != "user-1" || tctx.Role != "admin" {
		t.Fatalf("tctx = %+v", tctx)
	}
	if len(tctx.Permissions) != 2 {
		t.Fatalf("permissions = %v", tctx.Permissions)
	}
}

func TestJWTResolverRejectsBadSignature(t *testing.T) {
	resolver := NewJWTResolver("test-secret")
	signed := signToken(t, "wrong-secret", jwt.MapClaims{
		"org_id": "org-1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	r := httptest.NewRequest("GET", "/v0/api/data", nil)
	r.Header.Set("Authorization", "Bearer "+signed)

	if _, err := resolver.Resolve(ginContext(r)); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestJWTResolverEmptySecretRejectsAllTokens(t *testing.T) {
	resolver := NewJWTResolver("")
	signed := signToken(t, "", jwt.MapClaims{
		"org_id": "org-1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	r := httptest.NewRequest("GET", "/v0/api/data", nil)
	r.Header.Set("Authorization", "Bearer "+signed)

	if _, err := resolver.Resolve(ginContext(r)); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("err = %v, want ErrNoSecret", err)
	}
}

func TestJWTResolverNoToken(t *testing.T) {
	resolver := NewJWTResolver("test-secret")
	r := httptest.NewRequest("GET", "/v0/api/data", nil)
	if _, err := resolver.Resolve(ginContext(r)); err == nil {
		t.Fatalf("expected ErrNoToken")
	}
}

func TestAttachFallsBackToAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	var seen Context
	engine.GET("/", Attach(NewJWTResolver("s")), func(c *gin.Context) {
		seen, _ = FromGin(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if seen.Role != "anonymous" {
		t.Fatalf("role = %q, want anonymous", seen.Role)
	}
	if seen.OrganizationID != "" || len(seen.Permissions) != 0 {
		t.Fatalf("anonymous context = %+v", seen)
	}
}

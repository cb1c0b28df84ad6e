package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abhaytalreja/next-saas-sub007/internal/tenant"
)

func TestDefaultKey(t *testing.T) {
	r := httptest.NewRequest("GET", "/v0/api/data", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	tctx := tenant.Context{OrganizationID: "org-1", UserID: "user-1"}
	if got, want := DefaultKey(r, tctx, "billing"), "org-1:user-1:billing:203.0.113.9"; got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
}

func TestDefaultKeyAnonymousFallbacks(t *testing.T) {
	r := httptest.NewRequest("GET", "/v0/api/data", nil)
	r.Header.Set("X-Real-IP", "198.51.100.7")

	if got, want := DefaultKey(r, tenant.Context{}, ""), "anonymous:anonymous:global:198.51.100.7"; got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
}

func TestDefaultKeyUnknownIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/v0/api/data", nil)
	if got, want := DefaultKey(r, tenant.Context{}, "auth"), "anonymous:anonymous:auth:unknown"; got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
}

func TestKeyForConfigCustomKeyFunc(t *testing.T) {
	r := httptest.NewRequest("GET", "/v0/api/data", nil)
	cfg := Config{KeyFunc: func(_ *http.Request, tctx tenant.Context, _ string) string {
		return "org:" + tctx.OrganizationID
	}}
	tctx := tenant.Context{OrganizationID: "org-9"}
	if got, want := KeyForConfig(cfg, r, tctx, "billing"), "org:org-9"; got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
	if got := KeyForConfig(Config{}, r, tctx, "billing"); got != DefaultKey(r, tctx, "billing") {
		t.Fatalf("nil KeyFunc must fall back to DefaultKey, got %q", got)
	}
}

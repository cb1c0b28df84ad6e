package app

import (
	"testing"

	"github.com/abhaytalreja/next-saas-sub007/internal/tenant"
)

func TestReportScope(t *testing.T) {
	member := tenant.Context{OrganizationID: "org-1", Permissions: []string{"security:read"}}

	orgID, ok := reportScope(member, "")
	if !ok || orgID != "org-1" {
		t.Fatalf("own-org default = (%q, %v)", orgID, ok)
	}
	orgID, ok = reportScope(member, "org-1")
	if !ok || orgID != "org-1" {
		t.Fatalf("explicit own org = (%q, %v)", orgID, ok)
	}
	if _, ok = reportScope(member, "org-2"); ok {
		t.Fatalf("cross-org read must be denied without the elevated grant")
	}

	admin := tenant.Context{OrganizationID: "org-1", Permissions: []string{permissionSecurityReadAll}}
	orgID, ok = reportScope(admin, "org-2")
	if !ok || orgID != "org-2" {
		t.Fatalf("elevated cross-org = (%q, %v)", orgID, ok)
	}

	wildcard := tenant.Context{OrganizationID: "org-1", Permissions: []string{"*"}}
	if _, ok = reportScope(wildcard, "org-2"); !ok {
		t.Fatalf("wildcard grant must allow cross-org reads")
	}
}

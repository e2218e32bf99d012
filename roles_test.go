package auth_test

import (
	"testing"

	auth "github.com/teamtrace/go-auth"

	"github.com/stretchr/testify/assert"
)

func TestRoleIsAtLeast(t *testing.T) {
	tests := []struct {
		name    string
		role    auth.UserRole
		minRole auth.UserRole
		want    bool
	}{
		{"admin satisfies user", auth.RoleAdmin, auth.RoleUser, true},
		{"admin satisfies admin", auth.RoleAdmin, auth.RoleAdmin, true},
		{"manager satisfies hr", auth.RoleManager, auth.RoleHR, true},
		{"hr satisfies qc", auth.RoleHR, auth.RoleQC, true},
		{"qc satisfies user", auth.RoleQC, auth.RoleUser, true},
		{"user does not satisfy qc", auth.RoleUser, auth.RoleQC, false},
		{"qc does not satisfy hr", auth.RoleQC, auth.RoleHR, false},
		{"hr does not satisfy manager", auth.RoleHR, auth.RoleManager, false},
		{"manager does not satisfy admin", auth.RoleManager, auth.RoleAdmin, false},
		{"same level satisfies", auth.RoleQC, auth.RoleQC, true},
		{"unknown role satisfies nothing", auth.UserRole("superuser"), auth.RoleUser, false},
		{"unknown minimum is never satisfied", auth.RoleAdmin, auth.UserRole("root"), false},
		{"empty role satisfies nothing", auth.UserRole(""), auth.RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.RoleIsAtLeast(tt.role, tt.minRole))
		})
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range auth.GetAllRoles() {
		assert.True(t, auth.IsValidRole(role), "role %q should be valid", role)
	}

	assert.False(t, auth.IsValidRole(""))
	assert.False(t, auth.IsValidRole("superuser"))
	assert.False(t, auth.IsValidRole("Admin"), "role matching is case sensitive")
}

func TestGetAllRolesIsOrderedByPrivilege(t *testing.T) {
	roles := auth.GetAllRoles()
	assert.Equal(t, []auth.UserRole{
		auth.RoleUser,
		auth.RoleQC,
		auth.RoleHR,
		auth.RoleManager,
		auth.RoleAdmin,
	}, roles)

	for i := 1; i < len(roles); i++ {
		assert.True(t, auth.RoleIsAtLeast(roles[i], roles[i-1]),
			"%s should outrank %s", roles[i], roles[i-1])
		assert.False(t, auth.RoleIsAtLeast(roles[i-1], roles[i]),
			"%s should not outrank %s", roles[i-1], roles[i])
	}
}

func TestParseRole(t *testing.T) {
	role, ok := auth.ParseRole("manager")
	assert.True(t, ok)
	assert.Equal(t, auth.RoleManager, role)

	_, ok = auth.ParseRole("intern")
	assert.False(t, ok)
}

func TestRoleIsAdmin(t *testing.T) {
	assert.True(t, auth.RoleIsAdmin(auth.RoleAdmin))
	assert.False(t, auth.RoleIsAdmin(auth.RoleManager))
	assert.False(t, auth.RoleIsAdmin(auth.UserRole("admin2")))
}

func TestDashboardPath(t *testing.T) {
	assert.Equal(t, "/admin/dashboard", auth.DashboardPath(auth.RoleAdmin))
	assert.Equal(t, "/dashboard", auth.DashboardPath(auth.RoleManager))
	assert.Equal(t, "/dashboard", auth.DashboardPath(auth.RoleUser))
}

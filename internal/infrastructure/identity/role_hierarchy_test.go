package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleHierarchy_Expand(t *testing.T) {
	h := NewRoleHierarchy(map[string][]string{
		"role_super_admin": {"ROLE_ADMIN"},
		"ROLE_ADMIN":       {"role_user"},
	})

	tests := []struct {
		name  string
		roles []string
		want  []string
	}{
		{"leaf role", []string{"ROLE_USER"}, []string{"ROLE_USER"}},
		{"admin implies user", []string{"ROLE_ADMIN"}, []string{"ROLE_ADMIN", "ROLE_USER"}},
		{"transitive", []string{"ROLE_SUPER_ADMIN"}, []string{"ROLE_SUPER_ADMIN", "ROLE_ADMIN", "ROLE_USER"}},
		{"duplicates collapse", []string{"ROLE_USER", "ROLE_ADMIN", "role_user"}, []string{"ROLE_USER", "ROLE_ADMIN"}},
		{"blank ignored", []string{" ", ""}, []string{}},
		{"unknown kept", []string{"ROLE_AUDITOR"}, []string{"ROLE_AUDITOR"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Expand(tt.roles))
		})
	}
}

func TestRoleHierarchy_Cycle(t *testing.T) {
	h := NewRoleHierarchy(map[string][]string{
		"A": {"B"},
		"B": {"A"},
	})
	assert.Equal(t, []string{"A", "B"}, h.Expand([]string{"A"}))
}

func TestRoleHierarchy_Nil(t *testing.T) {
	var h *RoleHierarchy
	assert.Equal(t, []string{"ROLE_ADMIN"}, h.Expand([]string{"role_admin"}))
}

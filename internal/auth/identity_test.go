package auth

import (
	"testing"

	"github.com/atelierfoto/session-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func roleWith(name string, codes ...string) models.Role {
	perms := make([]models.Permission, len(codes))
	for i, c := range codes {
		perms[i] = models.Permission{Code: c, Status: models.ResourceActive}
	}
	return models.Role{Name: name, Status: models.ResourceActive, Permissions: perms}
}

func TestAuthorize_DirectPermission(t *testing.T) {
	id := &Identity{UserID: 1, Roles: []models.Role{roleWith("Coordinator", "session.create")}}

	assert.True(t, Authorize(id, "session.create", nil))
	assert.False(t, Authorize(id, "session.cancel", nil))
}

func TestAuthorize_UnionAcrossRoles(t *testing.T) {
	id := &Identity{UserID: 1, Roles: []models.Role{
		roleWith("Photographer", "session.attend"),
		roleWith("Editor", "session.edit.own"),
	}}

	perms := id.Permissions()
	assert.Contains(t, perms, "session.attend")
	assert.Contains(t, perms, "session.edit.own")
}

func TestAuthorize_AllImpliesOwn(t *testing.T) {
	id := &Identity{UserID: 7, Roles: []models.Role{roleWith("Coordinator", "session.edit.all")}}

	// No ownership required when holding the .all variant.
	assert.True(t, Authorize(id, "session.edit.own", nil))
	assert.True(t, Authorize(id, "session.edit.all", nil))
}

func TestAuthorize_OwnRequiresOwnership(t *testing.T) {
	id := &Identity{UserID: 7, Roles: []models.Role{roleWith("Editor", "session.edit.own")}}

	assert.False(t, Authorize(id, "session.edit.own", nil))
	assert.False(t, Authorize(id, "session.edit.own", &Ownership{OwnerIDs: []uint{3}}))
	assert.True(t, Authorize(id, "session.edit.own", &Ownership{OwnerIDs: []uint{3, 7}}))

	// Holding only the .own variant never satisfies an .all check.
	assert.False(t, Authorize(id, "session.edit.all", nil))
}

func TestAuthorize_AdminOverride(t *testing.T) {
	id := &Identity{UserID: 1, Roles: []models.Role{{Name: models.AdminRoleName, Status: models.ResourceActive}}}

	assert.True(t, Authorize(id, "session.edit.all", nil))
	assert.True(t, Authorize(id, "payment.verify", nil))
	assert.True(t, Authorize(id, "anything.at.all", nil))
}

func TestAuthorize_InactiveRoleIgnored(t *testing.T) {
	inactive := roleWith("Coordinator", "session.create")
	inactive.Status = models.ResourceInactive
	id := &Identity{UserID: 1, Roles: []models.Role{inactive}}

	assert.False(t, Authorize(id, "session.create", nil))
}

func TestAuthorize_InactivePermissionIgnored(t *testing.T) {
	role := roleWith("Coordinator", "session.create")
	role.Permissions[0].Status = models.ResourceInactive
	id := &Identity{UserID: 1, Roles: []models.Role{role}}

	assert.False(t, Authorize(id, "session.create", nil))
}

func TestAuthorize_NilIdentity(t *testing.T) {
	assert.False(t, Authorize(nil, "session.create", nil))
}

func TestPermissions_MemoizedPerRequest(t *testing.T) {
	id := &Identity{UserID: 1, Roles: []models.Role{roleWith("Coordinator", "session.create")}}

	first := id.Permissions()
	// Mutating roles after the first resolution has no effect for the rest
	// of the request.
	id.Roles = append(id.Roles, roleWith("Editor", "session.edit.own"))
	second := id.Permissions()

	assert.Equal(t, first, second)
	assert.NotContains(t, second, "session.edit.own")
}

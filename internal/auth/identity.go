package auth

import (
	"strings"

	"github.com/atelierfoto/session-service/internal/models"
)

// Identity is the resolved actor for one request: a user plus their active
// roles. The effective permission set is computed once per request and
// memoized on the identity, so role changes take effect on the next request.
type Identity struct {
	UserID uint
	Name   string
	Roles  []models.Role

	perms map[string]struct{}
}

func NewIdentity(user *models.User) *Identity {
	return &Identity{UserID: user.ID, Name: user.Name, Roles: user.Roles}
}

// Permissions returns the union of active permission codes across the
// identity's active roles.
func (id *Identity) Permissions() map[string]struct{} {
	if id.perms != nil {
		return id.perms
	}
	perms := make(map[string]struct{})
	for _, role := range id.Roles {
		if role.Status != models.ResourceActive {
			continue
		}
		for _, p := range role.Permissions {
			if p.Status != models.ResourceActive {
				continue
			}
			perms[p.Code] = struct{}{}
		}
	}
	id.perms = perms
	return perms
}

func (id *Identity) IsAdmin() bool {
	for _, role := range id.Roles {
		if role.Name == models.AdminRoleName && role.Status == models.ResourceActive {
			return true
		}
	}
	return false
}

func (id *Identity) HasRole(name string) bool {
	for _, role := range id.Roles {
		if role.Name == name && role.Status == models.ResourceActive {
			return true
		}
	}
	return false
}

// Ownership is the resource-ownership context for own-scoped checks: the
// user ids personally associated with the resource (creator, assignees).
type Ownership struct {
	OwnerIDs []uint
}

func (o *Ownership) Owns(userID uint) bool {
	if o == nil {
		return false
	}
	for _, id := range o.OwnerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Authorize reports whether the identity holds the permission code, applying
// scope semantics: a ".own" check passes with the ".all" variant regardless
// of ownership, or with the ".own" variant when the ownership context names
// the identity. Admins pass unconditionally. Denial is silent; callers
// decide whether to surface an error.
func Authorize(id *Identity, code string, ownership *Ownership) bool {
	if id == nil {
		return false
	}
	if id.IsAdmin() {
		return true
	}

	perms := id.Permissions()

	if base, ok := strings.CutSuffix(code, ".own"); ok {
		if _, held := perms[base+".all"]; held {
			return true
		}
		if _, held := perms[code]; held {
			return ownership.Owns(id.UserID)
		}
		return false
	}

	_, held := perms[code]
	return held
}

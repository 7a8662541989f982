package auth

import (
	"slices"

	"github.com/google/uuid"

	"dominicanews/internal/apperr"
	"dominicanews/internal/models"
)

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID    uuid.UUID
	Email     string
	FullName  string
	Role      models.Role
	SessionID string
}

// Authorize checks that id is present and holds one of roles. With no
// roles any authenticated identity passes.
func Authorize(id *Identity, roles ...models.Role) error {
	if id == nil {
		return apperr.Unauthorized("Authentication required")
	}
	if len(roles) > 0 && !slices.Contains(roles, id.Role) {
		return apperr.Forbidden("Insufficient permissions")
	}
	return nil
}

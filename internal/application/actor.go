package application

import (
	"github.com/google/uuid"

	"github.com/tourhub/service-booking/internal/platform/domain"
)

// Actor is the caller of a use case, resolved once per request from the
// access token.
type Actor struct {
	UserID  uuid.UUID
	IsStaff bool
}

func authorizeStaff(actor Actor) error {
	if !actor.IsStaff {
		return domain.NewForbiddenError("staff access required")
	}
	return nil
}

func authorizeOwnerOrStaff(actor Actor, ownerID uuid.UUID) error {
	if actor.IsStaff || actor.UserID == ownerID {
		return nil
	}
	return domain.NewForbiddenError("booking does not belong to this user")
}

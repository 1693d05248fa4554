package account

import (
	"context"

	"github.com/google/uuid"
)

// AccountRepository defines persistence operations for user accounts.
type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Save(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
}

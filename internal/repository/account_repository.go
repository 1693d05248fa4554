package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	accountDomain "github.com/tourhub/service-booking/internal/domain/account"
	"github.com/tourhub/service-booking/internal/platform/domain"
)

// AccountModel is the GORM model for the users table.
type AccountModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	FirstName    string    `gorm:"type:varchar(100);not null;default:''"`
	LastName     string    `gorm:"type:varchar(100);not null;default:''"`
	Phone        string    `gorm:"type:varchar(30);not null;default:''"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	IsStaff      bool      `gorm:"not null;default:false"`
	IsActive     bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;not null"`
}

func (AccountModel) TableName() string { return "users" }

// GormAccountRepository implements AccountRepository using GORM.
type GormAccountRepository struct {
	db *gorm.DB
}

func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*accountDomain.Account, error) {
	return r.findOne(ctx, "id = ?", id, id.String())
}

func (r *GormAccountRepository) FindByEmail(ctx context.Context, email string) (*accountDomain.Account, error) {
	email = accountDomain.NormalizeEmail(email)
	return r.findOne(ctx, "email = ?", email, email)
}

func (r *GormAccountRepository) findOne(ctx context.Context, cond string, arg interface{}, label string) (*accountDomain.Account, error) {
	var m AccountModel
	if err := conn(ctx, r.db).Where(cond, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", label)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return accountDomain.Reconstruct(m.ID, m.Email, m.FirstName, m.LastName, m.Phone, m.PasswordHash,
		m.IsStaff, m.IsActive, m.CreatedAt, m.UpdatedAt), nil
}

func (r *GormAccountRepository) Save(ctx context.Context, a *accountDomain.Account) error {
	if err := conn(ctx, r.db).Create(toAccountModel(a)).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("a user with this email already exists")
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (r *GormAccountRepository) Update(ctx context.Context, a *accountDomain.Account) error {
	m := toAccountModel(a)
	result := conn(ctx, r.db).Model(&AccountModel{}).Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"first_name": m.FirstName,
			"last_name":  m.LastName,
			"phone":      m.Phone,
			"is_staff":   m.IsStaff,
			"is_active":  m.IsActive,
			"updated_at": m.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("User", m.ID.String())
	}
	return nil
}

func toAccountModel(a *accountDomain.Account) *AccountModel {
	return &AccountModel{
		ID:           a.ID(),
		Email:        a.Email(),
		FirstName:    a.FirstName(),
		LastName:     a.LastName(),
		Phone:        a.Phone(),
		PasswordHash: a.PasswordHash(),
		IsStaff:      a.IsStaff(),
		IsActive:     a.IsActive(),
		CreatedAt:    a.CreatedAt(),
		UpdatedAt:    a.UpdatedAt(),
	}
}

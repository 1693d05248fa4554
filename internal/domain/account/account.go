package account

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tourhub/service-booking/internal/platform/domain"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// Account is a registered user of the platform.
type Account struct {
	id           uuid.UUID
	email        string
	firstName    string
	lastName     string
	phone        string
	passwordHash string
	isStaff      bool
	isActive     bool
	createdAt    time.Time
	updatedAt    time.Time
}

// NewAccountParams holds registration input.
type NewAccountParams struct {
	Email           string
	FirstName       string
	LastName        string
	Phone           string
	Password        string
	PasswordConfirm string
	IsStaff         bool
}

// NewAccount validates registration input and hashes the password.
func NewAccount(p NewAccountParams) (*Account, error) {
	email := NormalizeEmail(p.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, domain.NewValidationError("a valid email is required")
	}
	if len(p.Password) < MinPasswordLength {
		return nil, domain.NewValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if p.Password != p.PasswordConfirm {
		return nil, domain.NewValidationError("passwords do not match")
	}

	hash, err := HashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Account{
		id:           uuid.New(),
		email:        email,
		firstName:    strings.TrimSpace(p.FirstName),
		lastName:     strings.TrimSpace(p.LastName),
		phone:        strings.TrimSpace(p.Phone),
		passwordHash: hash,
		isStaff:      p.IsStaff,
		isActive:     true,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds an Account from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	email, firstName, lastName, phone, passwordHash string,
	isStaff, isActive bool,
	createdAt, updatedAt time.Time,
) *Account {
	return &Account{
		id:           id,
		email:        email,
		firstName:    firstName,
		lastName:     lastName,
		phone:        phone,
		passwordHash: passwordHash,
		isStaff:      isStaff,
		isActive:     isActive,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// --- Getters ---

func (a *Account) ID() uuid.UUID        { return a.id }
func (a *Account) Email() string        { return a.email }
func (a *Account) FirstName() string    { return a.firstName }
func (a *Account) LastName() string     { return a.lastName }
func (a *Account) Phone() string        { return a.phone }
func (a *Account) PasswordHash() string { return a.passwordHash }
func (a *Account) IsStaff() bool        { return a.isStaff }
func (a *Account) IsActive() bool       { return a.isActive }
func (a *Account) CreatedAt() time.Time { return a.createdAt }
func (a *Account) UpdatedAt() time.Time { return a.updatedAt }

// FullName joins first and last name, falling back to the email.
func (a *Account) FullName() string {
	name := strings.TrimSpace(a.firstName + " " + a.lastName)
	if name == "" {
		return a.email
	}
	return name
}

// --- Behavior ---

// CheckPassword reports whether password matches the stored hash.
func (a *Account) CheckPassword(password string) bool {
	return CheckPassword(a.passwordHash, password)
}

// Deactivate disables the account. Already inactive accounts are left as is.
func (a *Account) Deactivate() bool {
	if !a.isActive {
		return false
	}
	a.isActive = false
	a.updatedAt = time.Now().UTC()
	return true
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword hashes password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.NewValidationError("password is too long")
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a candidate password.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	accountDomain "github.com/tourhub/service-booking/internal/domain/account"
	"github.com/tourhub/service-booking/internal/platform/auth"
	"github.com/tourhub/service-booking/internal/platform/domain"
	"github.com/tourhub/service-booking/internal/proto/events"
)

// RegisterRequest is the request DTO for creating an account.
type RegisterRequest struct {
	Email           string `json:"email" binding:"required"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
}

// LoginRequest is the request DTO for password login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest exchanges a refresh token for a new access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AccountDTO is the API representation of an account.
type AccountDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	IsStaff   bool      `json:"is_staff"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginDTO is returned by a successful login.
type LoginDTO struct {
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	IsStaff      bool      `json:"is_staff"`
	AccessToken  string    `json:"access"`
	RefreshToken string    `json:"refresh"`
	ExpiresIn    int64     `json:"expires_in"`
}

// AccessTokenDTO is returned by a token refresh.
type AccessTokenDTO struct {
	AccessToken string `json:"access"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AccountService implements registration, login and account administration.
type AccountService struct {
	repo   accountDomain.AccountRepository
	jwt    *auth.JWTManager
	events publisher
	logger *zap.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	repo accountDomain.AccountRepository,
	jwtManager *auth.JWTManager,
	producer EventPublisher,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		repo:   repo,
		jwt:    jwtManager,
		events: publisher{producer: producer, logger: logger},
		logger: logger,
	}
}

// Register creates a regular user account.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*AccountDTO, error) {
	a, err := accountDomain.NewAccount(accountDomain.NewAccountParams{
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("account registered", zap.String("user_id", a.ID().String()))

	result := toAccountDTO(a)
	return &result, nil
}

// Login verifies credentials and issues an access/refresh token pair.
func (s *AccountService) Login(ctx context.Context, req LoginRequest) (*LoginDTO, error) {
	a, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, domain.NewUnauthorizedError("invalid email or password")
		}
		return nil, err
	}
	if !a.CheckPassword(req.Password) {
		return nil, domain.NewUnauthorizedError("invalid email or password")
	}
	if !a.IsActive() {
		return nil, domain.NewUnauthorizedError("account is disabled")
	}

	access, err := s.jwt.GenerateAccessToken(a.ID(), a.Email(), a.IsStaff())
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(a.ID(), a.Email(), a.IsStaff())
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &LoginDTO{
		UserID:       a.ID(),
		Email:        a.Email(),
		FullName:     a.FullName(),
		IsStaff:      a.IsStaff(),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwt.AccessTTL().Seconds()),
	}, nil
}

// Refresh issues a new access token for a valid refresh token. Staff status
// is re-read so that revoked privileges take effect.
func (s *AccountService) Refresh(ctx context.Context, req RefreshRequest) (*AccessTokenDTO, error) {
	claims, err := s.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, domain.NewUnauthorizedError("invalid refresh token")
	}

	a, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, domain.NewUnauthorizedError("invalid refresh token")
		}
		return nil, err
	}
	if !a.IsActive() {
		return nil, domain.NewUnauthorizedError("account is disabled")
	}

	access, err := s.jwt.GenerateAccessToken(a.ID(), a.Email(), a.IsStaff())
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	return &AccessTokenDTO{AccessToken: access, ExpiresIn: int64(s.jwt.AccessTTL().Seconds())}, nil
}

// Me returns the caller's own account.
func (s *AccountService) Me(ctx context.Context, actor Actor) (*AccountDTO, error) {
	a, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	result := toAccountDTO(a)
	return &result, nil
}

// Deactivate disables an account and announces it on account.events. Staff only.
func (s *AccountService) Deactivate(ctx context.Context, actor Actor, userID uuid.UUID) (*AccountDTO, error) {
	if err := authorizeStaff(actor); err != nil {
		return nil, err
	}
	if actor.UserID == userID {
		return nil, domain.NewValidationError("staff cannot deactivate their own account")
	}

	a, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !a.Deactivate() {
		result := toAccountDTO(a)
		return &result, nil
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("account deactivated",
		zap.String("user_id", userID.String()),
		zap.String("deactivated_by", actor.UserID.String()),
	)

	s.events.publish(ctx, events.TopicAccountEvents, events.AccountDeactivated, userID.String(), events.AccountDeactivatedEvent{
		UserID:        a.ID(),
		Email:         a.Email(),
		DeactivatedBy: actor.UserID,
		OccurredAt:    time.Now().UTC(),
	})

	result := toAccountDTO(a)
	return &result, nil
}

// EnsureStaffAccount creates the bootstrap staff account if no account with
// that email exists yet.
func (s *AccountService) EnsureStaffAccount(ctx context.Context, email, password string) error {
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !domain.IsKind(err, domain.KindNotFound) {
		return err
	}

	a, err := accountDomain.NewAccount(accountDomain.NewAccountParams{
		Email:           email,
		FirstName:       "Staff",
		Password:        password,
		PasswordConfirm: password,
		IsStaff:         true,
	})
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		if domain.IsKind(err, domain.KindConflict) {
			return nil
		}
		return err
	}

	s.logger.Info("staff account created", zap.String("email", a.Email()))
	return nil
}

func toAccountDTO(a *accountDomain.Account) AccountDTO {
	return AccountDTO{
		ID:        a.ID(),
		Email:     a.Email(),
		FirstName: a.FirstName(),
		LastName:  a.LastName(),
		FullName:  a.FullName(),
		Phone:     a.Phone(),
		IsStaff:   a.IsStaff(),
		IsActive:  a.IsActive(),
		CreatedAt: a.CreatedAt(),
	}
}

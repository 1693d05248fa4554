package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tourhub/service-booking/internal/platform/domain"
	"github.com/tourhub/service-booking/internal/proto/events"
)

type AccountServiceSuite struct {
	suite.Suite
	f   *fixture
	ctx context.Context
}

func TestAccountServiceSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceSuite))
}

func (s *AccountServiceSuite) SetupTest() {
	s.f = newFixture(s.T())
	s.ctx = context.Background()
}

func (s *AccountServiceSuite) register(email string) *AccountDTO {
	acc, err := s.f.accounts.Register(s.ctx, RegisterRequest{
		Email:           email,
		FirstName:       "Ana",
		LastName:        "Silva",
		Password:        "secret123",
		PasswordConfirm: "secret123",
	})
	s.Require().NoError(err)
	return acc
}

func (s *AccountServiceSuite) TestRegisterAndLogin() {
	acc := s.register("Ana@Example.com")
	s.Equal("ana@example.com", acc.Email)
	s.Equal("Ana Silva", acc.FullName)
	s.False(acc.IsStaff)

	_, err := s.f.accounts.Register(s.ctx, RegisterRequest{Email: "ana@example.com", Password: "secret123", PasswordConfirm: "secret123"})
	s.True(domain.IsKind(err, domain.KindConflict))

	_, err = s.f.accounts.Login(s.ctx, LoginRequest{Email: "ana@example.com", Password: "wrong-password"})
	s.True(domain.IsKind(err, domain.KindUnauthorized))

	_, err = s.f.accounts.Login(s.ctx, LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	s.True(domain.IsKind(err, domain.KindUnauthorized))

	login, err := s.f.accounts.Login(s.ctx, LoginRequest{Email: " ANA@example.com", Password: "secret123"})
	s.Require().NoError(err)
	s.Equal(acc.ID, login.UserID)

	claims, err := s.f.jwt.ValidateAccessToken(login.AccessToken)
	s.Require().NoError(err)
	s.Equal(acc.ID, claims.UserID)

	refreshed, err := s.f.accounts.Refresh(s.ctx, RefreshRequest{RefreshToken: login.RefreshToken})
	s.Require().NoError(err)
	s.NotEmpty(refreshed.AccessToken)

	_, err = s.f.accounts.Refresh(s.ctx, RefreshRequest{RefreshToken: login.AccessToken})
	s.True(domain.IsKind(err, domain.KindUnauthorized))

	me, err := s.f.accounts.Me(s.ctx, Actor{UserID: acc.ID})
	s.Require().NoError(err)
	s.Equal(acc.Email, me.Email)
}

func (s *AccountServiceSuite) TestRegisterValidation() {
	tests := []RegisterRequest{
		{Email: "not-an-email", Password: "secret123", PasswordConfirm: "secret123"},
		{Email: "a@b.io", Password: "short", PasswordConfirm: "short"},
		{Email: "a@b.io", Password: "secret123", PasswordConfirm: "secret124"},
	}
	for _, req := range tests {
		_, err := s.f.accounts.Register(s.ctx, req)
		s.True(domain.IsKind(err, domain.KindValidation), "request %+v", req)
	}
}

func (s *AccountServiceSuite) TestDeactivate() {
	acc := s.register("bob@example.com")

	_, err := s.f.accounts.Deactivate(s.ctx, Actor{UserID: acc.ID}, acc.ID)
	s.True(domain.IsKind(err, domain.KindForbidden))

	_, err = s.f.accounts.Deactivate(s.ctx, s.f.staff, s.f.staff.UserID)
	s.True(domain.IsKind(err, domain.KindValidation))

	deactivated, err := s.f.accounts.Deactivate(s.ctx, s.f.staff, acc.ID)
	s.Require().NoError(err)
	s.False(deactivated.IsActive)
	s.Equal([]string{events.AccountDeactivated}, s.f.publisher.types())
	s.Equal(events.TopicAccountEvents, s.f.publisher.topics[0])

	_, err = s.f.accounts.Login(s.ctx, LoginRequest{Email: "bob@example.com", Password: "secret123"})
	s.True(domain.IsKind(err, domain.KindUnauthorized))

	// already inactive: no second event
	_, err = s.f.accounts.Deactivate(s.ctx, s.f.staff, acc.ID)
	s.Require().NoError(err)
	s.Len(s.f.publisher.types(), 1)
}

func (s *AccountServiceSuite) TestEnsureStaffAccount() {
	s.Require().NoError(s.f.accounts.EnsureStaffAccount(s.ctx, "admin@tours.io", "admin-pass"))
	s.Require().NoError(s.f.accounts.EnsureStaffAccount(s.ctx, "admin@tours.io", "other-pass"))

	login, err := s.f.accounts.Login(s.ctx, LoginRequest{Email: "admin@tours.io", Password: "admin-pass"})
	s.Require().NoError(err)
	s.True(login.IsStaff)
}

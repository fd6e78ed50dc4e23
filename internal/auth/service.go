package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gwplsec/backend/internal/audittrail"
	"github.com/gwplsec/backend/internal/staff"
)

var (
	// ErrInvalidCredentials is returned for unknown accounts, deactivated
	// accounts and wrong passwords alike, so a caller cannot distinguish them.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled is returned by Verify when the token is valid but
	// the account has since been deactivated or removed.
	ErrAccountDisabled = errors.New("account disabled")
)

// Service authenticates staff accounts and validates their sessions.
type Service struct {
	accounts staff.Repository
	tokens   *TokenService
	audit    *audittrail.Recorder
	logger   *slog.Logger
}

// NewService wires an authentication service over the staff repository.
func NewService(accounts staff.Repository, tokens *TokenService, audit *audittrail.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		audit:    audit,
		logger:   logger,
	}
}

// Session is the result of a successful login.
type Session struct {
	Token   string
	Account *staff.Account
}

// Authenticate checks the email/password pair and returns a signed session
// token. Every failed attempt is written to the audit trail with the
// caller's address, including attempts against emails with no account.
func (s *Service) Authenticate(ctx context.Context, email, password, ipAddress string) (*Session, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, staff.ErrAccountNotFound) {
			s.audit.Record(ctx, audittrail.Entry{
				Action:     audittrail.ActionFailedLogin,
				EntityType: "admin_user",
				Details:    "failed login attempt for " + email,
				IPAddress:  ipAddress,
			})
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !account.IsActive || !CheckPassword(account.PasswordHash, password) {
		s.audit.Record(ctx, audittrail.Entry{
			Action:     audittrail.ActionFailedLogin,
			EntityType: "admin_user",
			EntityID:   account.ID,
			Details:    "failed login attempt for " + account.Email,
			IPAddress:  ipAddress,
		})
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.RecordLogin(ctx, account.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to record login", slog.String("account_id", account.ID), slog.String("error", err.Error()))
	}

	s.audit.Record(ctx, audittrail.Entry{
		AdminID:    &account.ID,
		Action:     audittrail.ActionLogin,
		EntityType: "admin_user",
		EntityID:   account.ID,
		IPAddress:  ipAddress,
	})

	return &Session{Token: token, Account: account}, nil
}

// Verify parses a session token and re-checks the account behind it, so a
// token stops working as soon as the account is deactivated.
func (s *Service) Verify(ctx context.Context, tokenString string) (*staff.Account, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, staff.ErrAccountNotFound) {
			return nil, ErrAccountDisabled
		}
		return nil, err
	}
	if !account.IsActive {
		return nil, ErrAccountDisabled
	}
	return account, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/examstack/exam_scheduler/internal/events"
	"github.com/examstack/exam_scheduler/internal/models"
	"github.com/examstack/exam_scheduler/internal/repo"
	"github.com/examstack/exam_scheduler/pkg/hash"
	"github.com/examstack/exam_scheduler/pkg/logging"
	"github.com/examstack/exam_scheduler/pkg/tokens"
)

// PrincipalView is the authenticated identity as callers see it. The
// teacher fields are filled best-effort for standard users and omitted
// when no staff record matches.
type PrincipalView struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	Role           string `json:"role"`
	FirstName      string `json:"firstname,omitempty"`
	LastName       string `json:"lastname,omitempty"`
	Email          string `json:"email,omitempty"`
	DepartmentName string `json:"department_name,omitempty"`
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	Principal    PrincipalView
}

// ResolveResult carries the principal plus, when the access token was
// renewed via the refresh path, a fresh access token for the caller to
// adopt.
type ResolveResult struct {
	Principal   PrincipalView
	AccessToken string
	AccessExp   time.Time
}

// SessionService turns credentials into principals and manages the session
// tokens around them. It holds no state between calls; every decision
// re-reads the store.
type SessionService struct {
	Repo    repo.GormRepo
	Codec   *tokens.AccessCodec
	Refresh *RefreshTokenService
	Events  *events.Producer
}

// Login resolves the identifier first as an administrative username, then
// as a "{firstname} {lastname}" teacher whose phone number equals secret.
// A teacher passing the name+phone match is provisioned a standard-user
// account on the spot, so after this call every authenticated caller looks
// the same to the rest of the system.
func (s *SessionService) Login(ctx context.Context, identifier, secret string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.login")

	if identifier == "" || secret == "" {
		return nil, ErrInvalidCredentials
	}

	acct, promoted, err := s.resolvePrincipal(ctx, identifier, secret)
	if err != nil {
		return nil, err
	}

	// The promoted path already proved possession of the phone number in
	// the store lookup; only plain admin logins verify against the hash.
	if !promoted && !hash.CheckPassword(acct.PasswordHash, secret) {
		l.Warn("login rejected", "reason", "secret mismatch")
		return nil, ErrInvalidCredentials
	}

	view := s.principalView(ctx, acct)

	access, accessExp, err := s.Codec.Sign(subjectFor(acct.ID), acct.Role, acct.Username)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := s.Refresh.Create(ctx, acct.ID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventLoggedIn, acct.ID, acct.Username)
	l.Info("login successful", "account_id", acct.ID, "role", acct.Role, "promoted", promoted)

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		AccessExp:    accessExp,
		RefreshExp:   refresh.ExpiresAt,
		Principal:    view,
	}, nil
}

func (s *SessionService) resolvePrincipal(ctx context.Context, identifier, secret string) (*models.Account, bool, error) {
	acct, err := s.Repo.FindAccountByUsername(ctx, identifier)
	if err == nil {
		return acct, false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, fmt.Errorf("look up account: %w", err)
	}

	first, last, ok := splitIdentifier(identifier)
	if !ok {
		return nil, false, ErrInvalidCredentials
	}

	tch, err := s.Repo.FindTeacherByNameAndPhone(ctx, first, last, secret)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, false, ErrInvalidCredentials
		}
		return nil, false, fmt.Errorf("look up teacher: %w", err)
	}

	pwHash, err := hash.HashPassword(secret)
	if err != nil {
		return nil, false, fmt.Errorf("hash secret: %w", err)
	}

	acct, err = s.Repo.CreateAccountIfAbsent(ctx, &models.Account{
		Username:     tch.FirstName + " " + tch.LastName,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, false, ErrConflict
		}
		return nil, false, fmt.Errorf("provision account: %w", err)
	}
	return acct, true, nil
}

// Resolve implements "who am I". A valid access token answers directly
// from current store state; a failed one falls back to the refresh token,
// which mints a new access token without extending its own lifetime.
func (s *SessionService) Resolve(ctx context.Context, accessToken, refreshToken string) (*ResolveResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.resolve")

	if accessToken == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.Codec.Parse(accessToken)
	if err == nil && claims.Subject != "" {
		acct, err := s.accountBySubject(ctx, claims.Subject)
		if err != nil {
			return nil, err
		}
		return &ResolveResult{Principal: s.principalView(ctx, acct)}, nil
	}

	if refreshToken == "" {
		return nil, ErrUnauthenticated
	}

	row, err := s.Refresh.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrValidation) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	if time.Now().After(row.ExpiresAt) {
		// Lazy cleanup; the rejection stands even if the delete fails.
		if delErr := s.Refresh.Delete(ctx, row.Token); delErr != nil {
			l.Warn("expired refresh token cleanup failed", "error", delErr)
		}
		return nil, ErrUnauthenticated
	}

	acct, err := s.Repo.FindAccountByID(ctx, row.AccountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("look up account: %w", err)
	}

	access, accessExp, err := s.Codec.Sign(subjectFor(acct.ID), acct.Role, acct.Username)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	l.Info("access token renewed", "account_id", acct.ID)

	return &ResolveResult{
		Principal:   s.principalView(ctx, acct),
		AccessToken: access,
		AccessExp:   accessExp,
	}, nil
}

// Logout revokes one session. The matching access token stays valid until
// its own expiry; there is no revocation list.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrMissingToken
	}

	if row, err := s.Refresh.FindByToken(ctx, refreshToken); err == nil {
		s.publish(ctx, events.EventLoggedOut, row.AccountID, "")
	}

	return s.Refresh.Delete(ctx, refreshToken)
}

// LogoutAll revokes every session for the account ("log out everywhere").
func (s *SessionService) LogoutAll(ctx context.Context, accountID uint) error {
	if err := s.Refresh.DeleteAllForAccount(ctx, accountID); err != nil {
		return err
	}
	s.publish(ctx, events.EventSessionsRevoked, accountID, "")
	return nil
}

func (s *SessionService) accountBySubject(ctx context.Context, subject string) (*models.Account, error) {
	id, err := strconv.ParseUint(subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	acct, err := s.Repo.FindAccountByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("look up account: %w", err)
	}
	return acct, nil
}

// principalView recovers the department affiliation for standard users by
// matching the username back to a staff record. No match just means the
// teacher fields stay empty.
func (s *SessionService) principalView(ctx context.Context, acct *models.Account) PrincipalView {
	view := PrincipalView{
		ID:       acct.ID,
		Username: acct.Username,
		Role:     acct.Role,
		Email:    acct.Email,
	}
	if acct.Role != models.RoleUser {
		return view
	}

	first, last, ok := splitIdentifier(acct.Username)
	if !ok {
		return view
	}
	tch, err := s.Repo.FindTeacherByName(ctx, first, last)
	if err != nil {
		return view
	}

	view.FirstName = tch.FirstName
	view.LastName = tch.LastName
	view.DepartmentName = tch.Department.Name
	return view
}

func (s *SessionService) publish(ctx context.Context, eventType string, accountID uint, username string) {
	if s.Events == nil {
		return
	}
	ev := events.AuthEvent{
		Type:      eventType,
		AccountID: accountID,
		Username:  username,
		At:        time.Now().UTC(),
	}
	if err := s.Events.Publish(ctx, eventType, ev); err != nil {
		logging.FromContext(ctx).Warn("auth event publish failed", "type", eventType, "error", err)
	}
}

// splitIdentifier breaks "Jane van Dyk" into ("Jane", "van Dyk"). A
// single-word identifier cannot name a teacher.
func splitIdentifier(identifier string) (first, last string, ok bool) {
	parts := strings.Fields(identifier)
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[0], strings.Join(parts[1:], " "), true
}

func subjectFor(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

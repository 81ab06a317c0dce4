package service

import (
	"context"
	"errors"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/inkpost/internal/account/domain"
	"github.com/smallbiznis/inkpost/internal/account/password"
	"github.com/smallbiznis/inkpost/internal/account/resettoken"
	"github.com/smallbiznis/inkpost/internal/clock"
	"github.com/smallbiznis/inkpost/internal/config"
	"github.com/smallbiznis/inkpost/internal/providers/email"
	"github.com/smallbiznis/inkpost/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxNameLength  = 30
	maxEmailLength = 254

	registrationSubject = "BlogApp Registration"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   domain.Repository
	Tokens resettoken.Store
	Email  email.Provider
	Clock  clock.Clock
	Config config.Config
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	tokens   resettoken.Store
	email    email.Provider
	clock    clock.Clock
	baseURL  string
	resetTTL time.Duration
}

func New(p Params) domain.Service {
	resetTTL := p.Config.Auth.PasswordResetTTL
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("account.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		tokens:   p.Tokens,
		email:    p.Email,
		clock:    p.Clock,
		baseURL:  strings.TrimRight(p.Config.PublicBaseURL, "/"),
		resetTTL: resetTTL,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Account, error) {
	address, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if utf8.RuneCountInString(firstName) > maxNameLength || utf8.RuneCountInString(lastName) > maxNameLength {
		return nil, domain.ErrInvalidName
	}

	existing, err := s.repo.FindByEmail(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailExists
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	account := &domain.Account{
		ID:                  s.genID.Generate(),
		Email:               address,
		PasswordHash:        hashed,
		FirstName:           firstName,
		LastName:            lastName,
		IsActive:            true,
		DateJoined:          now,
		LastPasswordChanged: &now,
		UpdatedAt:           now,
	}

	if err := s.repo.Insert(ctx, s.db, account); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrEmailExists
		}
		return nil, err
	}

	s.sendWelcome(ctx, account)
	return account, nil
}

func (s *Service) sendWelcome(ctx context.Context, account *domain.Account) {
	err := s.email.SendTemplate(ctx, []string{account.Email}, email.TemplateWelcome, map[string]any{
		"subject":   registrationSubject,
		"Email":     account.Email,
		"FirstName": account.FirstName,
	})
	if err != nil {
		s.log.Warn("welcome email not delivered",
			zap.String("account_id", account.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) Authenticate(ctx context.Context, emailAddr, pass string) (*domain.Account, error) {
	address, err := normalizeEmail(emailAddr)
	if err != nil || pass == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByEmail(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	if account == nil {
		password.VerifyDummy(pass)
		return nil, domain.ErrInvalidCredentials
	}
	if !password.Verify(pass, account.PasswordHash) || !account.IsActive {
		return nil, domain.ErrInvalidCredentials
	}
	return account, nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	address, err := normalizeEmail(emailAddr)
	if err != nil {
		return domain.ErrInvalidEmail
	}

	account, err := s.repo.FindByEmail(ctx, s.db, address)
	if err != nil {
		return err
	}
	if account == nil || !account.IsActive {
		s.log.Debug("password reset requested for unknown account")
		return nil
	}

	token, err := resettoken.NewToken()
	if err != nil {
		return err
	}
	if err := s.tokens.Set(ctx, token, account.ID, s.resetTTL); err != nil {
		return err
	}

	err = s.email.SendTemplate(ctx, []string{account.Email}, email.TemplatePasswordReset, map[string]any{
		"Email":     account.Email,
		"ResetURL":  s.resetURL(token, account.ID),
		"ExpiresIn": s.resetTTL.String(),
	})
	if err != nil {
		// Same outcome as an unknown address.
		s.log.Error("password reset email not delivered",
			zap.String("account_id", account.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}

func (s *Service) resetURL(token string, accountID snowflake.ID) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("uid", accountID.String())
	return s.baseURL + "/password_reset?" + q.Encode()
}

func (s *Service) ConfirmPasswordReset(ctx context.Context, req domain.ConfirmPasswordResetRequest) error {
	accountID, err := snowflake.ParseString(strings.TrimSpace(req.UID))
	if err != nil || accountID == 0 {
		return domain.ErrInvalidOrExpiredToken
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return domain.ErrInvalidOrExpiredToken
	}

	bound, err := s.tokens.Peek(ctx, token)
	if err != nil {
		if errors.Is(err, resettoken.ErrNotFound) {
			return domain.ErrInvalidOrExpiredToken
		}
		return err
	}
	if bound != accountID {
		return domain.ErrInvalidOrExpiredToken
	}

	// A rejected password keeps the token usable for another attempt.
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	bound, err = s.tokens.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, resettoken.ErrNotFound) {
			return domain.ErrInvalidOrExpiredToken
		}
		return err
	}
	if bound != accountID {
		return domain.ErrInvalidOrExpiredToken
	}

	hashed, err := password.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, s.db, accountID, hashed, s.clock.Now()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidOrExpiredToken
		}
		return err
	}

	s.log.Info("password reset completed", zap.String("account_id", accountID.String()))
	return nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Account, error) {
	account, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrNotFound
	}
	return account, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Account, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		accounts = append(accounts, *item)
	}
	return accounts, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	address := strings.ToLower(strings.TrimSpace(addr.Address))
	if len(address) > maxEmailLength {
		return "", domain.ErrInvalidEmail
	}
	return address, nil
}

func validatePassword(p string) error {
	if err := password.Validate(p); err != nil {
		return domain.ErrInvalidPassword
	}
	return nil
}

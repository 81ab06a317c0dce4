package service

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/inkpost/internal/account/domain"
	"github.com/smallbiznis/inkpost/internal/auth/domain"
	"github.com/smallbiznis/inkpost/internal/auth/token"
	"github.com/smallbiznis/inkpost/internal/clock"
	"github.com/smallbiznis/inkpost/internal/config"
	"github.com/smallbiznis/inkpost/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Config   config.Config
	Clock    clock.Clock
	Accounts accountdomain.Service
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	issuer   *token.Issuer
	accounts accountdomain.Service
	metrics  *metrics.Metrics
}

func New(p Params) (domain.Service, error) {
	log := p.Log.Named("auth.service")

	secret := []byte(strings.TrimSpace(p.Config.Auth.JWTSecret))
	if len(secret) == 0 {
		if p.Config.IsProduction() {
			return nil, domain.ErrMissingSecret
		}
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		log.Warn("AUTH_JWT_SECRET not set, using an ephemeral signing key")
	}

	issuer, err := token.NewIssuer(secret, p.Config.Auth.AccessTTL, p.Config.Auth.RefreshTTL, p.Clock)
	if err != nil {
		return nil, err
	}

	return &Service{
		log:      log,
		issuer:   issuer,
		accounts: p.Accounts,
		metrics:  p.Metrics,
	}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	account, err := s.accounts.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, accountdomain.ErrInvalidCredentials) {
			s.metrics.RecordLogin(ctx, "invalid_credentials")
			return nil, accountdomain.ErrInvalidCredentials
		}
		s.metrics.RecordLogin(ctx, "error")
		return nil, err
	}

	refresh, err := s.issuer.Issue(account.ID, domain.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	access, err := s.issuer.Issue(account.ID, domain.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLogin(ctx, "success")
	s.log.Info("login succeeded", zap.String("account_id", account.ID.String()))
	return &domain.TokenPair{Refresh: refresh, Access: access}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.issuer.Parse(strings.TrimSpace(refreshToken), domain.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	accountID, err := claims.AccountID()
	if err != nil {
		return nil, err
	}
	if err := s.requireActive(ctx, accountID); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	access, err := s.issuer.Issue(accountID, domain.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{Access: access}, nil
}

func (s *Service) Verify(ctx context.Context, raw string) error {
	_, err := s.issuer.Parse(strings.TrimSpace(raw), "")
	return err
}

func (s *Service) Authenticate(ctx context.Context, accessToken string) (*domain.Principal, error) {
	raw := strings.TrimSpace(accessToken)
	if raw == "" {
		return nil, domain.ErrUnauthorized
	}

	claims, err := s.issuer.Parse(raw, domain.TokenTypeAccess)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	accountID, err := claims.AccountID()
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	if err := s.requireActive(ctx, accountID); err != nil {
		return nil, err
	}

	return &domain.Principal{
		AccountID: accountID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// requireActive returns ErrUnauthorized when the account is gone or
// deactivated.
func (s *Service) requireActive(ctx context.Context, accountID snowflake.ID) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, accountdomain.ErrNotFound) {
			return domain.ErrUnauthorized
		}
		return err
	}
	if !account.IsActive {
		return domain.ErrUnauthorized
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/inkpost/internal/account/domain"
	"github.com/smallbiznis/inkpost/internal/billingcustomer/domain"
	"github.com/smallbiznis/inkpost/internal/clock"
	"github.com/smallbiznis/inkpost/internal/providers/payment"
	"github.com/smallbiznis/inkpost/internal/ratelimit"
	"github.com/smallbiznis/inkpost/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Accounts accountdomain.Service
	Payments payment.Provider
	Clock    clock.Clock
	Locker   *ratelimit.Locker `optional:"true"`
}

const createLockTTL = 15 * time.Second

// accountLocker is implemented by *ratelimit.Locker.
type accountLocker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (ratelimit.Unlock, error)
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	accounts accountdomain.Service
	payments payment.Provider
	clock    clock.Clock
	locker   accountLocker
}

func New(p Params) domain.Service {
	svc := &Service{
		db:       p.DB,
		log:      p.Log.Named("billingcustomer.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		accounts: p.Accounts,
		payments: p.Payments,
		clock:    p.Clock,
	}
	if p.Locker != nil {
		svc.locker = p.Locker
	}
	return svc
}

// lockAccount serializes registrations for one account. Without a locker, or
// when redis fails, it returns a nil Unlock and the unique index decides.
func (s *Service) lockAccount(ctx context.Context, accountID snowflake.ID) (ratelimit.Unlock, error) {
	if s.locker == nil {
		return nil, nil
	}
	unlock, err := s.locker.Acquire(ctx, "billing_customer:"+accountID.String(), createLockTTL)
	switch {
	case errors.Is(err, ratelimit.ErrLockHeld):
		return nil, domain.ErrAlreadyExists
	case err != nil:
		s.log.Warn("billing customer lock unavailable",
			zap.String("account_id", accountID.String()),
			zap.Error(err),
		)
		return nil, nil
	}
	return unlock, nil
}

func (s *Service) CreateForAccount(ctx context.Context, accountID snowflake.ID) (*domain.BillingCustomer, error) {
	unlock, err := s.lockAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if unlock != nil {
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn("billing customer unlock failed", zap.Error(err))
			}
		}()
	}

	existing, err := s.repo.FindByAccountID(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAlreadyExists
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	remote, err := s.payments.CreateCustomer(ctx, account.Email, account.FullName())
	if err != nil {
		s.log.Warn("provider rejected customer creation",
			zap.String("account_id", accountID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	customer := &domain.BillingCustomer{
		ID:               s.genID.Generate(),
		AccountID:        accountID,
		StripeCustomerID: remote.ID,
		CreatedAt:        s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, customer); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Lost a race with a concurrent request; the remote customer
			// created here stays orphaned.
			s.log.Warn("billing customer created concurrently",
				zap.String("account_id", accountID.String()),
				zap.String("orphaned_customer", remote.ID),
			)
			return nil, domain.ErrAlreadyExists
		}
		s.log.Error("remote customer created but local insert failed",
			zap.String("account_id", accountID.String()),
			zap.String("stripe_customer_id", remote.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("billing customer created",
		zap.String("account_id", accountID.String()),
		zap.String("stripe_customer_id", remote.ID),
	)
	return customer, nil
}

func (s *Service) GetByAccount(ctx context.Context, accountID snowflake.ID) (*domain.BillingCustomer, error) {
	customer, err := s.repo.FindByAccountID(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	return customer, nil
}

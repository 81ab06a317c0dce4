package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang/mock/gomock"
	billingcustomerdomain "github.com/smallbiznis/inkpost/internal/billingcustomer/domain"
	"github.com/smallbiznis/inkpost/internal/clock"
	"github.com/smallbiznis/inkpost/internal/config"
	"github.com/smallbiznis/inkpost/internal/observability/metrics"
	"github.com/smallbiznis/inkpost/internal/providers/payment"
	"github.com/smallbiznis/inkpost/internal/providers/payment/mocks"
	"github.com/smallbiznis/inkpost/internal/subscription/domain"
	"github.com/smallbiznis/inkpost/internal/subscription/repository"
	"github.com/smallbiznis/inkpost/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	accountID      = snowflake.ID(700)
	strangerID     = snowflake.ID(701)
	customerRowID  = snowflake.ID(800)
	stripeCustomer = "cus_ana"
	monthlyPlan    = "price_1PlV7fE8m3oia4xi6IAJxARU"
	discountedPlan = "price_1PlVSxE8m3oia4xi8007EBw6"
)

var periodEnd = time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)

type fakeCustomers struct {
	billingcustomerdomain.Service
}

func (fakeCustomers) GetByAccount(ctx context.Context, id snowflake.ID) (*billingcustomerdomain.BillingCustomer, error) {
	if id != accountID {
		return nil, billingcustomerdomain.ErrNotFound
	}
	return &billingcustomerdomain.BillingCustomer{ID: customerRowID, AccountID: id, StripeCustomerID: stripeCustomer}, nil
}

type testEnv struct {
	svc      domain.Service
	provider *mocks.MockProvider
	db       *gorm.DB
	clock    *clock.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&domain.Subscription{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	clk := clock.NewFakeClock(time.Date(2024, 8, 2, 0, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:        dbConn,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      repository.Provide(),
		Customers: fakeCustomers{},
		Payments:  provider,
		Plans:     config.NewStaticPlanCatalogHolder(config.DefaultPlanLabels()),
		Clock:     clk,
		Metrics:   metrics.NewNoop(),
	})
	return &testEnv{svc: svc, provider: provider, db: dbConn, clock: clk}
}

func remoteSubscription(id, status, plan string) *payment.Subscription {
	return &payment.Subscription{
		ID:               id,
		CustomerID:       stripeCustomer,
		Status:           status,
		Items:            []payment.SubscriptionItem{{ID: "si_" + id, PriceID: plan}},
		CurrentPeriodEnd: periodEnd,
	}
}

func (e *testEnv) createActive(t *testing.T, remoteID string) *domain.Subscription {
	t.Helper()
	e.provider.EXPECT().
		CreateSubscription(gomock.Any(), gomock.Any()).
		Return(remoteSubscription(remoteID, "active", monthlyPlan), nil)

	sub, err := e.svc.Create(context.Background(), accountID, domain.CreateRequest{PlanID: monthlyPlan})
	require.NoError(t, err)
	return sub
}

func TestCreateStoresMirror(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	gomock.InOrder(
		env.provider.EXPECT().AttachPaymentMethod(gomock.Any(), "pm_card", stripeCustomer).Return(nil),
		env.provider.EXPECT().SetDefaultPaymentMethod(gomock.Any(), stripeCustomer, "pm_card").Return(nil),
		env.provider.EXPECT().
			CreateSubscription(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, input payment.CreateSubscriptionInput) (*payment.Subscription, error) {
				assert.Equal(t, stripeCustomer, input.CustomerID)
				assert.Equal(t, monthlyPlan, input.PriceID)
				assert.NotEmpty(t, input.IdempotencyKey)
				return remoteSubscription("sub_1", "active", monthlyPlan), nil
			}),
	)

	sub, err := env.svc.Create(ctx, accountID, domain.CreateRequest{PlanID: monthlyPlan, PaymentMethodID: "pm_card"})
	require.NoError(t, err)
	assert.Equal(t, "sub_1", sub.StripeSubscriptionID)
	assert.Equal(t, "active", sub.Status)
	assert.Equal(t, monthlyPlan, sub.Plan)
	assert.Equal(t, customerRowID, sub.CustomerID)
	assert.True(t, sub.CurrentPeriodEnd.Equal(periodEnd))

	var count int64
	require.NoError(t, env.db.Model(&domain.Subscription{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateWithoutCustomer(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), strangerID, domain.CreateRequest{PlanID: monthlyPlan})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestCreateRequiresPlan(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), accountID, domain.CreateRequest{PlanID: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)
}

func TestCreateProviderFailureLeavesNoRow(t *testing.T) {
	env := newTestEnv(t)

	env.provider.EXPECT().
		CreateSubscription(gomock.Any(), gomock.Any()).
		Return(nil, &payment.ProviderError{Operation: "create_subscription", StatusCode: 402, Message: "Your card was declined."})

	_, err := env.svc.Create(context.Background(), accountID, domain.CreateRequest{PlanID: monthlyPlan})
	require.Error(t, err)
	assert.True(t, payment.IsProviderError(err))
	assert.Equal(t, "Your card was declined.", err.Error())

	var count int64
	require.NoError(t, env.db.Model(&domain.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateSwapsPlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createActive(t, "sub_1")

	env.provider.EXPECT().
		RetrieveSubscription(gomock.Any(), "sub_1").
		Return(remoteSubscription("sub_1", "active", monthlyPlan), nil)
	env.provider.EXPECT().
		UpdateSubscriptionItem(gomock.Any(), "sub_1", "si_sub_1", discountedPlan).
		Return(remoteSubscription("sub_1", "past_due", discountedPlan), nil)

	sub, err := env.svc.Update(ctx, accountID, domain.UpdateRequest{SubscriptionID: "sub_1", PlanID: discountedPlan})
	require.NoError(t, err)
	assert.Equal(t, discountedPlan, sub.Plan)
	assert.Equal(t, "past_due", sub.Status)

	var stored domain.Subscription
	require.NoError(t, env.db.Where("stripe_subscription_id = ?", "sub_1").First(&stored).Error)
	assert.Equal(t, discountedPlan, stored.Plan)
	assert.Equal(t, "past_due", stored.Status)
}

func TestUpdateWithoutItems(t *testing.T) {
	env := newTestEnv(t)
	env.createActive(t, "sub_1")

	env.provider.EXPECT().
		RetrieveSubscription(gomock.Any(), "sub_1").
		Return(&payment.Subscription{ID: "sub_1", Status: "active"}, nil)

	_, err := env.svc.Update(context.Background(), accountID, domain.UpdateRequest{SubscriptionID: "sub_1", PlanID: discountedPlan})
	assert.ErrorIs(t, err, domain.ErrInvalidItems)
}

func TestUpdateUnknownSubscription(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Update(context.Background(), accountID, domain.UpdateRequest{SubscriptionID: "sub_missing", PlanID: discountedPlan})
	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)

	_, err = env.svc.Update(context.Background(), accountID, domain.UpdateRequest{PlanID: discountedPlan})
	assert.ErrorIs(t, err, domain.ErrInvalidSubscriptionID)
}

func TestCancelAndResume(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.createActive(t, "sub_1")

	env.provider.EXPECT().
		CancelSubscription(gomock.Any(), "sub_1").
		Return(remoteSubscription("sub_1", "canceled", monthlyPlan), nil)

	canceled, err := env.svc.Cancel(ctx, accountID, domain.LifecycleRequest{SubscriptionID: "sub_1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, canceled.Status)

	env.clock.Advance(time.Hour)
	env.provider.EXPECT().
		CreateSubscription(gomock.Any(), payment.CreateSubscriptionInput{CustomerID: stripeCustomer, PriceID: monthlyPlan}).
		Return(remoteSubscription("sub_2", "active", monthlyPlan), nil)

	resumed, err := env.svc.Resume(ctx, accountID, domain.LifecycleRequest{SubscriptionID: "sub_1"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, resumed.ID)
	assert.Equal(t, "sub_2", resumed.StripeSubscriptionID)
	assert.Equal(t, "active", resumed.Status)

	var stored domain.Subscription
	require.NoError(t, env.db.First(&stored, "id = ?", created.ID).Error)
	assert.Equal(t, "sub_2", stored.StripeSubscriptionID)
	assert.Equal(t, []any{"sub_1"}, stored.Metadata[domain.MetadataPreviousIDs])

	// The replaced id no longer resolves.
	_, err = env.svc.Cancel(ctx, accountID, domain.LifecycleRequest{SubscriptionID: "sub_1"})
	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
}

func TestResumeRequiresCanceled(t *testing.T) {
	env := newTestEnv(t)
	env.createActive(t, "sub_1")

	_, err := env.svc.Resume(context.Background(), accountID, domain.LifecycleRequest{SubscriptionID: "sub_1"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCancelProviderFailureKeepsStatus(t *testing.T) {
	env := newTestEnv(t)
	env.createActive(t, "sub_1")

	env.provider.EXPECT().
		CancelSubscription(gomock.Any(), "sub_1").
		Return(nil, errors.New("boom"))

	_, err := env.svc.Cancel(context.Background(), accountID, domain.LifecycleRequest{SubscriptionID: "sub_1"})
	require.Error(t, err)

	var stored domain.Subscription
	require.NoError(t, env.db.Where("stripe_subscription_id = ?", "sub_1").First(&stored).Error)
	assert.Equal(t, "active", stored.Status)
}

func TestRetrieveLabelsPlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.provider.EXPECT().
		RetrieveSubscription(gomock.Any(), "sub_1").
		Return(remoteSubscription("sub_1", "active", discountedPlan), nil)
	env.provider.EXPECT().
		RetrieveSubscription(gomock.Any(), "sub_2").
		Return(remoteSubscription("sub_2", "active", "price_other"), nil)

	view, err := env.svc.Retrieve(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "12 Dollars After 3 months", view.PlanName)
	assert.Equal(t, stripeCustomer, view.Customer)
	assert.Equal(t, discountedPlan, view.PlanID)

	view, err = env.svc.Retrieve(ctx, "sub_2")
	require.NoError(t, err)
	assert.Equal(t, config.UnknownPlanLabel, view.PlanName)

	_, err = env.svc.Retrieve(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidSubscriptionID)
}

func TestList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.List(ctx, accountID)
	assert.ErrorIs(t, err, domain.ErrNoSubscriptions)

	_, err = env.svc.List(ctx, strangerID)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	env.createActive(t, "sub_1")
	env.clock.Advance(time.Minute)
	env.createActive(t, "sub_2")

	items, err := env.svc.List(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "sub_2", items[0].StripeSubscriptionID)
}

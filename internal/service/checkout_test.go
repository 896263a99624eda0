package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Djamauk/himalayanpinksalt.online/internal/domain"
	"github.com/Djamauk/himalayanpinksalt.online/internal/repository/kv"
	"github.com/Djamauk/himalayanpinksalt.online/internal/repository/memory"
	apperrors "github.com/Djamauk/himalayanpinksalt.online/pkg/errors"
)

type checkoutFixture struct {
	svc      *CheckoutService
	account  *AccountService
	sessions *memory.SessionStore
	store    *memory.Store
}

func newCheckoutFixture() *checkoutFixture {
	logger := newTestLogger()
	producer := newTestEventProducer()
	store := memory.NewStore()
	sessions := memory.NewSessionStore()

	account := NewAccountService(
		kv.NewAddressRepository(store),
		kv.NewPaymentMethodRepository(store),
		kv.NewProfileRepository(store),
		kv.NewPreferencesRepository(store),
		producer,
		logger,
	)
	svc := NewCheckoutService(sessions, kv.NewAddressRepository(store), account, producer, logger, time.Hour)
	return &checkoutFixture{svc: svc, account: account, sessions: sessions, store: store}
}

func cartInput() StartCheckoutInput {
	return StartCheckoutInput{
		Items: []domain.LineItem{
			{Name: "Pink Salt Grinder", Price: 10000},
		},
	}
}

func fillContactAndDelivery(draft DraftInput) {
	draft[domain.FieldFirstName] = "Ada"
	draft[domain.FieldLastName] = "Lovelace"
	draft[domain.FieldEmail] = "ada@example.com"
	draft[domain.FieldAddress1] = "1 Main St"
	draft[domain.FieldCity] = "Portland"
	draft[domain.FieldState] = "OR"
	draft[domain.FieldZip] = "97201"
	draft[domain.FieldCountry] = "US"
}

func fillCard(draft DraftInput, exp string) {
	draft[domain.FieldCardNumber] = "4242 4242 4242 4242"
	draft[domain.FieldCardName] = "Ada Lovelace"
	draft[domain.FieldExpiry] = exp
	draft[domain.FieldCVC] = "123"
}

func TestStartCheckout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture()
	_, err := f.svc.StartCheckout(context.Background(), "u1", StartCheckoutInput{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestStartCheckout_PrefillsDefaultAddress(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	_, err := f.account.CreateAddress(ctx, "u1", CreateAddressInput{
		Line1: "1 Main St", City: "Portland", State: "OR", PostalCode: "97201", Country: "US",
	})
	require.NoError(t, err)

	view, err := f.svc.StartCheckout(ctx, "u1", cartInput())
	require.NoError(t, err)

	assert.Equal(t, domain.StepContact, view.Step)
	assert.Equal(t, "1 Main St", view.Draft[domain.FieldAddress1])
	assert.Equal(t, "Portland", view.Draft[domain.FieldCity])
	assert.Equal(t, "97201", view.Draft[domain.FieldZip])
}

func TestNextAndPrevThroughWizard(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "u1", cartInput())
	require.NoError(t, err)

	// Advancing with an empty draft stays on contact and reports every field.
	view, err = f.svc.Next(ctx, view.ID, domain.StepDelivery)
	require.NoError(t, err)
	assert.Equal(t, domain.StepContact, view.Step)
	assert.Contains(t, view.Errors, domain.FieldFirstName)
	assert.Contains(t, view.Errors, domain.FieldLastName)
	assert.Contains(t, view.Errors, domain.FieldEmail)

	draft := DraftInput{}
	fillContactAndDelivery(draft)
	_, err = f.svc.UpdateDraft(ctx, view.ID, draft)
	require.NoError(t, err)

	view, err = f.svc.Next(ctx, view.ID, domain.StepDelivery)
	require.NoError(t, err)
	assert.Equal(t, domain.StepDelivery, view.Step)

	view, err = f.svc.Next(ctx, view.ID, domain.StepPayment)
	require.NoError(t, err)
	assert.Equal(t, domain.StepPayment, view.Step)
	assert.True(t, view.Steps[0].Complete)
	assert.True(t, view.Steps[1].Complete)
	assert.True(t, view.Steps[2].Active)

	// Going back never validates.
	view, err = f.svc.Prev(ctx, view.ID, domain.StepContact)
	require.NoError(t, err)
	assert.Equal(t, domain.StepContact, view.Step)
}

func TestSelectShippingAndCouponReprice(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "u1", cartInput())
	require.NoError(t, err)
	assert.Equal(t, int64(11300), view.Pricing.Total)
	assert.Equal(t, "$113.00", view.Pricing.TotalText)

	view, err = f.svc.SelectShipping(ctx, view.ID, "express")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), view.Pricing.Shipping)

	_, err = f.svc.SelectShipping(ctx, view.ID, "teleport")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	view, err = f.svc.ApplyCoupon(ctx, view.ID, " Save10 ")
	require.NoError(t, err)
	assert.True(t, view.CouponApplied)
	assert.Equal(t, int64(1000), view.Pricing.Discount)

	view, err = f.svc.ApplyCoupon(ctx, view.ID, "BOGUS")
	require.NoError(t, err)
	assert.False(t, view.CouponApplied)
	assert.Equal(t, int64(0), view.Pricing.Discount)
}

func TestSubmit_InvalidExpiryBlocksOrder(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "u1", cartInput())
	require.NoError(t, err)

	draft := DraftInput{}
	fillContactAndDelivery(draft)
	fillCard(draft, "01/20")
	_, err = f.svc.UpdateDraft(ctx, view.ID, draft)
	require.NoError(t, err)

	result, err := f.svc.Submit(ctx, view.ID, SubmitInput{SaveCard: true})
	require.NoError(t, err)

	assert.False(t, result.OrderPlaced)
	assert.Equal(t, domain.StepPayment, result.Step)
	assert.Contains(t, result.Errors, domain.FieldExpiry)

	// Nothing reached the account store.
	methods, err := f.account.ListPaymentMethods(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, methods)

	// The session survives for the user to correct the card.
	after, err := f.svc.GetSession(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepPayment, after.Step)
}

func TestSubmit_SuccessPlacesOrderAndSavesCard(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "u1", cartInput())
	require.NoError(t, err)

	draft := DraftInput{}
	fillContactAndDelivery(draft)
	fillCard(draft, "12/49")
	_, err = f.svc.UpdateDraft(ctx, view.ID, draft)
	require.NoError(t, err)

	_, err = f.svc.ApplyCoupon(ctx, view.ID, "SAVE10")
	require.NoError(t, err)

	result, err := f.svc.Submit(ctx, view.ID, SubmitInput{SaveCard: true})
	require.NoError(t, err)

	assert.True(t, result.OrderPlaced)
	assert.NotEmpty(t, result.OrderID)
	assert.NotEmpty(t, result.SavedMethodID)
	assert.Equal(t, int64(10300), result.Pricing.Total)

	methods, err := f.account.ListPaymentMethods(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, domain.BrandVisa, methods[0].Brand)
	assert.Equal(t, "4242", methods[0].Last4)
	assert.Equal(t, "•••• •••• •••• 4242", methods[0].Display)

	// The session is gone after completion.
	_, err = f.svc.GetSession(ctx, view.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSubmit_WithoutSaveCardPersistsNothing(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "u1", cartInput())
	require.NoError(t, err)

	draft := DraftInput{}
	fillContactAndDelivery(draft)
	fillCard(draft, "12/49")
	_, err = f.svc.UpdateDraft(ctx, view.ID, draft)
	require.NoError(t, err)

	result, err := f.svc.Submit(ctx, view.ID, SubmitInput{SaveCard: false})
	require.NoError(t, err)
	assert.True(t, result.OrderPlaced)
	assert.Empty(t, result.SavedMethodID)

	methods, err := f.account.ListPaymentMethods(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, methods)
}

func TestSubmit_RevalidatesEveryStep(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "u1", cartInput())
	require.NoError(t, err)

	// Only the card fields are filled; contact and delivery are empty.
	draft := DraftInput{}
	fillCard(draft, "12/49")
	_, err = f.svc.UpdateDraft(ctx, view.ID, draft)
	require.NoError(t, err)

	result, err := f.svc.Submit(ctx, view.ID, SubmitInput{SaveCard: true})
	require.NoError(t, err)

	assert.False(t, result.OrderPlaced)
	assert.Equal(t, domain.StepContact, result.Step)
	assert.Contains(t, result.Errors, domain.FieldFirstName)
	assert.Contains(t, result.Errors, domain.FieldEmail)
	assert.Contains(t, result.Errors, domain.FieldAddress1)

	methods, err := f.account.ListPaymentMethods(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, methods)

	// The session survives on the first failing step.
	after, err := f.svc.GetSession(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepContact, after.Step)
}

func TestSelectPaymentKind(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "u1", cartInput())
	require.NoError(t, err)
	assert.Equal(t, domain.KindCard, view.PaymentKind)

	view, err = f.svc.SelectPaymentKind(ctx, view.ID, domain.KindPayPal)
	require.NoError(t, err)
	assert.Equal(t, domain.KindPayPal, view.PaymentKind)

	_, err = f.svc.SelectPaymentKind(ctx, view.ID, "wire")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSubmit_PayPalSkipsCardFields(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "u1", cartInput())
	require.NoError(t, err)

	draft := DraftInput{}
	fillContactAndDelivery(draft)
	_, err = f.svc.UpdateDraft(ctx, view.ID, draft)
	require.NoError(t, err)

	_, err = f.svc.SelectPaymentKind(ctx, view.ID, domain.KindPayPal)
	require.NoError(t, err)

	// No card fields in the draft at all.
	result, err := f.svc.Submit(ctx, view.ID, SubmitInput{SaveCard: true})
	require.NoError(t, err)
	assert.True(t, result.OrderPlaced)
	assert.Empty(t, result.SavedMethodID)

	// SaveCard is meaningless without a card; nothing is stored.
	methods, err := f.account.ListPaymentMethods(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, methods)
}

func TestExpiredSessionIsGone(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "u1", cartInput())
	require.NoError(t, err)

	sess, err := f.sessions.Get(ctx, view.ID)
	require.NoError(t, err)
	sess.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, f.sessions.Save(ctx, sess))

	_, err = f.svc.GetSession(ctx, view.ID)
	assert.ErrorIs(t, err, apperrors.ErrGone)
}

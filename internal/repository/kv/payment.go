package kv

import (
	"context"
	"fmt"

	"github.com/Djamauk/himalayanpinksalt.online/internal/domain"
	"github.com/Djamauk/himalayanpinksalt.online/internal/repository"
	apperrors "github.com/Djamauk/himalayanpinksalt.online/pkg/errors"
)

// PaymentMethodRepository stores a user's tokenized cards as one JSON array.
type PaymentMethodRepository struct {
	store repository.Store
}

func NewPaymentMethodRepository(store repository.Store) *PaymentMethodRepository {
	return &PaymentMethodRepository{store: store}
}

func (r *PaymentMethodRepository) List(ctx context.Context, userID string) ([]domain.PaymentMethod, error) {
	var methods []domain.PaymentMethod
	found, err := r.store.Get(ctx, accountKey(userID, keyPaymentMethods), &methods)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	if !found {
		return []domain.PaymentMethod{}, nil
	}
	return methods, nil
}

func (r *PaymentMethodRepository) Create(ctx context.Context, userID string, pm domain.PaymentMethod) (*domain.PaymentMethod, error) {
	methods, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	methods = append(methods, pm)
	if err := r.store.Set(ctx, accountKey(userID, keyPaymentMethods), methods); err != nil {
		return nil, fmt.Errorf("save payment methods: %w", err)
	}
	return &pm, nil
}

func (r *PaymentMethodRepository) Delete(ctx context.Context, userID, id string) error {
	methods, err := r.List(ctx, userID)
	if err != nil {
		return err
	}

	kept := methods[:0]
	removed := false
	for _, m := range methods {
		if m.ID == id {
			removed = true
			continue
		}
		kept = append(kept, m)
	}
	if !removed {
		return apperrors.NotFound("payment method", id)
	}

	if err := r.store.Set(ctx, accountKey(userID, keyPaymentMethods), kept); err != nil {
		return fmt.Errorf("save payment methods: %w", err)
	}
	return nil
}

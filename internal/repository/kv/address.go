package kv

import (
	"context"
	"fmt"

	"github.com/Djamauk/himalayanpinksalt.online/internal/domain"
	"github.com/Djamauk/himalayanpinksalt.online/internal/repository"
	apperrors "github.com/Djamauk/himalayanpinksalt.online/pkg/errors"
)

// AddressRepository stores a user's addresses as one JSON array per user.
type AddressRepository struct {
	store repository.Store
}

func NewAddressRepository(store repository.Store) *AddressRepository {
	return &AddressRepository{store: store}
}

// List returns the saved addresses. Absent or unreadable data is an empty
// collection.
func (r *AddressRepository) List(ctx context.Context, userID string) ([]domain.Address, error) {
	var addrs []domain.Address
	found, err := r.store.Get(ctx, accountKey(userID, keyAddresses), &addrs)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	if !found {
		return []domain.Address{}, nil
	}
	return addrs, nil
}

// Create appends the address. The first address in an empty collection
// becomes the default.
func (r *AddressRepository) Create(ctx context.Context, userID string, addr domain.Address) (*domain.Address, error) {
	addrs, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(addrs) == 0 {
		addr.IsDefault = true
	}
	addrs = append(addrs, addr)

	if err := r.store.Set(ctx, accountKey(userID, keyAddresses), addrs); err != nil {
		return nil, fmt.Errorf("save addresses: %w", err)
	}
	return &addr, nil
}

// Update replaces the stored record with addr, preserving its position.
func (r *AddressRepository) Update(ctx context.Context, userID, id string, addr domain.Address) (*domain.Address, error) {
	addrs, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range addrs {
		if addrs[i].ID == id {
			addr.ID = id
			addrs[i] = addr
			if err := r.store.Set(ctx, accountKey(userID, keyAddresses), addrs); err != nil {
				return nil, fmt.Errorf("save addresses: %w", err)
			}
			return &addr, nil
		}
	}
	return nil, apperrors.NotFound("address", id)
}

// Delete removes the address. When the removed record was the default and
// others remain, the oldest remaining record is promoted.
func (r *AddressRepository) Delete(ctx context.Context, userID, id string) error {
	addrs, err := r.List(ctx, userID)
	if err != nil {
		return err
	}

	kept := addrs[:0]
	wasDefault := false
	removed := false
	for _, a := range addrs {
		if a.ID == id {
			removed = true
			wasDefault = a.IsDefault
			continue
		}
		kept = append(kept, a)
	}
	if !removed {
		return apperrors.NotFound("address", id)
	}

	if wasDefault && len(kept) > 0 {
		oldest := 0
		for i := range kept {
			if kept[i].CreatedAt.Before(kept[oldest].CreatedAt) {
				oldest = i
			}
		}
		kept[oldest].IsDefault = true
	}

	if err := r.store.Set(ctx, accountKey(userID, keyAddresses), kept); err != nil {
		return fmt.Errorf("save addresses: %w", err)
	}
	return nil
}

// SetDefault flags the address and clears the flag everywhere else.
func (r *AddressRepository) SetDefault(ctx context.Context, userID, id string) error {
	addrs, err := r.List(ctx, userID)
	if err != nil {
		return err
	}

	found := false
	for i := range addrs {
		addrs[i].IsDefault = addrs[i].ID == id
		if addrs[i].IsDefault {
			found = true
		}
	}
	if !found {
		return apperrors.NotFound("address", id)
	}

	if err := r.store.Set(ctx, accountKey(userID, keyAddresses), addrs); err != nil {
		return fmt.Errorf("save addresses: %w", err)
	}
	return nil
}

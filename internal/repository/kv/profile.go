package kv

import (
	"context"
	"fmt"

	"github.com/Djamauk/himalayanpinksalt.online/internal/domain"
	"github.com/Djamauk/himalayanpinksalt.online/internal/repository"
)

// ProfileRepository stores the single contact record per user.
type ProfileRepository struct {
	store repository.Store
}

func NewProfileRepository(store repository.Store) *ProfileRepository {
	return &ProfileRepository{store: store}
}

// Get returns the stored profile, or an empty record when nothing usable
// is stored.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	var p domain.Profile
	found, err := r.store.Get(ctx, accountKey(userID, keyProfile), &p)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if !found {
		return &domain.Profile{}, nil
	}
	return &p, nil
}

// Save overwrites the stored profile wholesale.
func (r *ProfileRepository) Save(ctx context.Context, userID string, p domain.Profile) error {
	if err := r.store.Set(ctx, accountKey(userID, keyProfile), p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// PreferencesRepository stores the single notification record per user.
type PreferencesRepository struct {
	store repository.Store
}

func NewPreferencesRepository(store repository.Store) *PreferencesRepository {
	return &PreferencesRepository{store: store}
}

// Get returns the stored preferences, or the all-off defaults when nothing
// usable is stored.
func (r *PreferencesRepository) Get(ctx context.Context, userID string) (*domain.Preferences, error) {
	var p domain.Preferences
	found, err := r.store.Get(ctx, accountKey(userID, keyPreferences), &p)
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	if !found {
		defaults := domain.DefaultPreferences()
		return &defaults, nil
	}
	return &p, nil
}

// Save overwrites the stored preferences wholesale.
func (r *PreferencesRepository) Save(ctx context.Context, userID string, p domain.Preferences) error {
	if err := r.store.Set(ctx, accountKey(userID, keyPreferences), p); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

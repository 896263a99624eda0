package repository

import (
	"context"
	"time"

	"github.com/Djamauk/himalayanpinksalt.online/internal/domain"
)

// Store is the key-value persistence contract. Values are JSON-serialized
// whole documents; Get reports (false, nil) for both missing keys and
// stored values that fail to decode.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
}

// AddressRepository manages a user's saved addresses. Reads of absent or
// unreadable data yield an empty collection, never an error.
type AddressRepository interface {
	List(ctx context.Context, userID string) ([]domain.Address, error)
	Create(ctx context.Context, userID string, addr domain.Address) (*domain.Address, error)
	Update(ctx context.Context, userID, id string, addr domain.Address) (*domain.Address, error)
	Delete(ctx context.Context, userID, id string) error
	SetDefault(ctx context.Context, userID, id string) error
}

// PaymentMethodRepository manages a user's tokenized cards.
type PaymentMethodRepository interface {
	List(ctx context.Context, userID string) ([]domain.PaymentMethod, error)
	Create(ctx context.Context, userID string, pm domain.PaymentMethod) (*domain.PaymentMethod, error)
	Delete(ctx context.Context, userID, id string) error
}

// ProfileRepository holds the single contact record per user.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Save(ctx context.Context, userID string, p domain.Profile) error
}

// PreferencesRepository holds the single notification record per user.
type PreferencesRepository interface {
	Get(ctx context.Context, userID string) (*domain.Preferences, error)
	Save(ctx context.Context, userID string, p domain.Preferences) error
}

// SessionRepository stores live checkout sessions. Implementations expire
// sessions after their TTL; Get returns ErrNotFound-class errors for both
// unknown and expired ids.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.CheckoutSession, error)
	Save(ctx context.Context, s *domain.CheckoutSession) error
	Delete(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time) int
}

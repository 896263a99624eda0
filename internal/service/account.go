package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Djamauk/himalayanpinksalt.online/internal/domain"
	"github.com/Djamauk/himalayanpinksalt.online/internal/event"
	"github.com/Djamauk/himalayanpinksalt.online/internal/repository"
	apperrors "github.com/Djamauk/himalayanpinksalt.online/pkg/errors"
)

// AccountService implements the business logic for the account page:
// saved addresses, saved cards, profile, and notification preferences.
type AccountService struct {
	addressRepo repository.AddressRepository
	paymentRepo repository.PaymentMethodRepository
	profileRepo repository.ProfileRepository
	prefsRepo   repository.PreferencesRepository
	producer    *event.Producer
	logger      *slog.Logger
}

func NewAccountService(
	addressRepo repository.AddressRepository,
	paymentRepo repository.PaymentMethodRepository,
	profileRepo repository.ProfileRepository,
	prefsRepo repository.PreferencesRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		addressRepo: addressRepo,
		paymentRepo: paymentRepo,
		profileRepo: profileRepo,
		prefsRepo:   prefsRepo,
		producer:    producer,
		logger:      logger,
	}
}

// CreateAddressInput holds the parameters for adding an address.
type CreateAddressInput struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	IsDefault  bool
}

// UpdateAddressInput holds the parameters for editing an address. Nil
// fields keep their stored value.
type UpdateAddressInput struct {
	Line1      *string
	Line2      *string
	City       *string
	State      *string
	PostalCode *string
	Country    *string
}

// SaveCardInput holds the raw card details for the account save path.
type SaveCardInput struct {
	Number string
	Expiry string
}

// --- Addresses ---

func (s *AccountService) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.addressRepo.List(ctx, userID)
}

// CreateAddress saves a new address. The first address a user saves always
// becomes the default.
func (s *AccountService) CreateAddress(ctx context.Context, userID string, input CreateAddressInput) (*domain.Address, error) {
	if input.Line1 == "" {
		return nil, apperrors.InvalidInput("address line is required")
	}

	addr := domain.Address{
		ID:         uuid.New().String(),
		Line1:      input.Line1,
		Line2:      input.Line2,
		City:       input.City,
		State:      input.State,
		PostalCode: input.PostalCode,
		Country:    input.Country,
		IsDefault:  input.IsDefault,
		CreatedAt:  time.Now().UTC(),
	}

	created, err := s.addressRepo.Create(ctx, userID, addr)
	if err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	if input.IsDefault && !created.IsDefault {
		// Create only sets the flag for the first record; an explicit
		// request still needs the exclusive set.
		if err := s.addressRepo.SetDefault(ctx, userID, created.ID); err != nil {
			return nil, fmt.Errorf("set default address: %w", err)
		}
		created.IsDefault = true
	}

	s.publishAddressChanged(ctx, userID, created.ID, "created")
	return created, nil
}

// UpdateAddress merges the non-nil input fields over the stored record.
func (s *AccountService) UpdateAddress(ctx context.Context, userID, id string, input UpdateAddressInput) (*domain.Address, error) {
	addrs, err := s.addressRepo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	var existing *domain.Address
	for i := range addrs {
		if addrs[i].ID == id {
			existing = &addrs[i]
			break
		}
	}
	if existing == nil {
		return nil, apperrors.NotFound("address", id)
	}

	merged := *existing
	if input.Line1 != nil {
		merged.Line1 = *input.Line1
	}
	if input.Line2 != nil {
		merged.Line2 = *input.Line2
	}
	if input.City != nil {
		merged.City = *input.City
	}
	if input.State != nil {
		merged.State = *input.State
	}
	if input.PostalCode != nil {
		merged.PostalCode = *input.PostalCode
	}
	if input.Country != nil {
		merged.Country = *input.Country
	}

	updated, err := s.addressRepo.Update(ctx, userID, id, merged)
	if err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}

	s.publishAddressChanged(ctx, userID, id, "updated")
	return updated, nil
}

// DeleteAddress removes the address; when the default is removed the
// repository promotes the oldest remaining record.
func (s *AccountService) DeleteAddress(ctx context.Context, userID, id string) error {
	if err := s.addressRepo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.publishAddressChanged(ctx, userID, id, "deleted")
	return nil
}

// MakeDefaultAddress flags exactly one address as the default.
func (s *AccountService) MakeDefaultAddress(ctx context.Context, userID, id string) error {
	if err := s.addressRepo.SetDefault(ctx, userID, id); err != nil {
		return err
	}
	s.publishAddressChanged(ctx, userID, id, "default")
	return nil
}

// --- Payment methods ---

func (s *AccountService) ListPaymentMethods(ctx context.Context, userID string) ([]domain.PaymentMethod, error) {
	return s.paymentRepo.List(ctx, userID)
}

// SaveCard is the account-page save path: the number is checked here,
// independently of any checkout validation, and nothing is written when
// the check fails. Only the derived token is stored.
func (s *AccountService) SaveCard(ctx context.Context, userID string, input SaveCardInput) (*domain.PaymentMethod, error) {
	if !domain.LuhnValid(input.Number) {
		return nil, apperrors.CardRejected("card number failed verification")
	}

	return s.AttachPaymentMethod(ctx, userID, domain.NewCardToken(input.Number, input.Expiry))
}

// AttachPaymentMethod stores an already-derived token. The checkout submit
// path uses it after its own full payment validation.
func (s *AccountService) AttachPaymentMethod(ctx context.Context, userID string, pm domain.PaymentMethod) (*domain.PaymentMethod, error) {
	created, err := s.paymentRepo.Create(ctx, userID, pm)
	if err != nil {
		return nil, fmt.Errorf("save payment method: %w", err)
	}

	// Publish event (non-blocking on failure).
	if err := s.producer.PublishPaymentMethodSaved(ctx, event.PaymentMethodSavedData{
		UserID:   userID,
		MethodID: created.ID,
		Brand:    created.Brand,
		Last4:    created.Last4,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish payment_method_saved event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	return created, nil
}

func (s *AccountService) DeletePaymentMethod(ctx context.Context, userID, id string) error {
	return s.paymentRepo.Delete(ctx, userID, id)
}

// --- Profile and preferences ---

func (s *AccountService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.profileRepo.Get(ctx, userID)
}

// SaveProfile overwrites the contact record wholesale.
func (s *AccountService) SaveProfile(ctx context.Context, userID string, p domain.Profile) error {
	if err := s.profileRepo.Save(ctx, userID, p); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "profile saved", slog.String("user_id", userID))
	return nil
}

func (s *AccountService) GetPreferences(ctx context.Context, userID string) (*domain.Preferences, error) {
	return s.prefsRepo.Get(ctx, userID)
}

// SavePreferences overwrites the notification record wholesale.
func (s *AccountService) SavePreferences(ctx context.Context, userID string, p domain.Preferences) error {
	if err := s.prefsRepo.Save(ctx, userID, p); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "preferences saved", slog.String("user_id", userID))
	return nil
}

func (s *AccountService) publishAddressChanged(ctx context.Context, userID, addressID, action string) {
	if err := s.producer.PublishAddressChanged(ctx, event.AddressChangedData{
		UserID:    userID,
		AddressID: addressID,
		Action:    action,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish address_changed event",
			slog.String("user_id", userID),
			slog.String("address_id", addressID),
			slog.String("error", err.Error()),
		)
	}
}

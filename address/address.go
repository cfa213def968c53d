// Package address manages a shopper's delivery addresses. Addresses always live in the
// session's local store; signed-in users also get them mirrored onto their profile.
package address

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/krushee/krushee-backend-go/apperror"
	"github.com/krushee/krushee-backend-go/localstore"
	"github.com/krushee/krushee-backend-go/metrics"
	"github.com/krushee/krushee-backend-go/models"
	"github.com/krushee/krushee-backend-go/utils"
)

const requiredFieldsMessage = "Please fill required fields: name, phone, house, city, pincode."

// Outcome says where a saved address ended up.
type Outcome string

const (
	SavedRemote    Outcome = "remote"
	SavedLocalOnly Outcome = "local_only"
)

// Remote is the durable copy of a user's addresses.
type Remote interface {
	SaveAddress(ctx context.Context, userID string, a models.Address) error
	DeleteAddress(ctx context.Context, userID, addressID string) error
}

type Service struct {
	local   localstore.Store
	remote  Remote
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

func NewService(local localstore.Store, remote Remote, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		local:   local,
		remote:  remote,
		metrics: m,
		log:     logger.Named("address"),
		now:     time.Now,
	}
}

// Line renders the one-line form shown on order slips: "house[, street], city - pincode".
func Line(a models.Address) string {
	var b strings.Builder
	b.WriteString(a.House)
	if a.Street != "" {
		b.WriteString(", ")
		b.WriteString(a.Street)
	}
	b.WriteString(", ")
	b.WriteString(a.City)
	b.WriteString(" - ")
	b.WriteString(a.Pincode)
	return b.String()
}

// Save validates a, gives it an id when it has none and stores it, replacing any
// address with the same id. The remote copy is attempted for signed-in users (userID
// != ""); a remote failure is logged and reported as SavedLocalOnly, never as an error.
func (s *Service) Save(ctx context.Context, userID string, a models.Address) (models.Address, Outcome, error) {
	a = trim(a)
	if err := check(a); err != nil {
		return models.Address{}, "", err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt == "" {
		a.CreatedAt = s.now().UTC().Format(time.RFC3339)
	}
	a.Line = Line(a)

	outcome := SavedLocalOnly
	if userID != "" && s.remote != nil {
		if err := s.remote.SaveAddress(ctx, userID, a); err != nil {
			s.log.Warn("remote address save failed, keeping local copy",
				zap.String("user_id", userID),
				zap.String("address_id", a.ID),
				zap.Error(err),
			)
		} else {
			outcome = SavedRemote
		}
	}

	addresses, err := s.List(ctx)
	if err != nil {
		return models.Address{}, "", err
	}
	replaced := false
	for i := range addresses {
		if addresses[i].ID == a.ID {
			addresses[i] = a
			replaced = true
		}
	}
	if !replaced {
		addresses = append(addresses, a)
	}
	if err := localstore.Save(ctx, s.local, localstore.KeyAddresses, addresses); err != nil {
		return models.Address{}, "", apperror.Persistence("failed to save address", err)
	}

	s.metrics.AddressSave(string(outcome))
	return a, outcome, nil
}

func (s *Service) List(ctx context.Context) ([]models.Address, error) {
	addresses, err := localstore.Load[[]models.Address](ctx, s.local, localstore.KeyAddresses)
	if err != nil {
		return nil, apperror.Persistence("failed to read addresses", err)
	}
	if addresses == nil {
		addresses = []models.Address{}
	}
	return addresses, nil
}

// Delete removes the address with id. Deleting an unknown id is not an error.
func (s *Service) Delete(ctx context.Context, userID, id string) ([]models.Address, error) {
	addresses, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	next := make([]models.Address, 0, len(addresses))
	for _, a := range addresses {
		if a.ID != id {
			next = append(next, a)
		}
	}
	if err := localstore.Save(ctx, s.local, localstore.KeyAddresses, next); err != nil {
		return nil, apperror.Persistence("failed to save addresses", err)
	}
	if userID != "" && s.remote != nil {
		if err := s.remote.DeleteAddress(ctx, userID, id); err != nil {
			s.log.Warn("remote address delete failed", zap.String("user_id", userID), zap.String("address_id", id), zap.Error(err))
		}
	}
	return next, nil
}

func trim(a models.Address) models.Address {
	for _, f := range []*string{&a.Label, &a.Name, &a.Phone, &a.House, &a.Street, &a.City, &a.State, &a.Pincode, &a.Landmark, &a.Type} {
		*f = strings.TrimSpace(*f)
	}
	return a
}

func check(a models.Address) error {
	err := utils.Validator().Struct(a)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		for _, e := range errs {
			if e.Tag() == "required" {
				return apperror.Validation(requiredFieldsMessage)
			}
		}
	}
	return apperror.Validation(utils.ValidationMessage(err))
}

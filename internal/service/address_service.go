package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
)

// AddressService keeps at most one default address per user.
type AddressService struct {
	repo repository.AddressRepository
	tx   repository.TxManager
}

func NewAddressService(repo repository.AddressRepository, tx repository.TxManager) *AddressService {
	return &AddressService{repo: repo, tx: tx}
}

var (
	phoneRe  = regexp.MustCompile(`^\+?[0-9]{10,13}$`)
	postalRe = regexp.MustCompile(`^[A-Za-z0-9 -]{3,10}$`)
)

func validateAddress(a domain.Address) error {
	switch a.Type {
	case domain.AddressHome, domain.AddressWork, domain.AddressOther:
	default:
		return invalid("address type must be home, work or other")
	}
	required := map[string]string{
		"full name": a.FullName, "street": a.Street, "city": a.City,
		"state": a.State, "country": a.Country,
	}
	for _, field := range []string{"full name", "street", "city", "state", "country"} {
		if blank(required[field]) {
			return invalid("%s is required", field)
		}
	}
	if !phoneRe.MatchString(a.Phone) {
		return invalid("phone must be 10 to 13 digits")
	}
	if !postalRe.MatchString(a.PostalCode) {
		return invalid("postal code is invalid")
	}
	return nil
}

func trimAddress(a *domain.Address) {
	for _, f := range []*string{&a.FullName, &a.Phone, &a.Street, &a.Apartment, &a.City, &a.State, &a.Country, &a.PostalCode} {
		*f = strings.TrimSpace(*f)
	}
}

func (s *AddressService) List(ctx context.Context, userID int64) ([]domain.Address, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns the user's address; someone else's address is reported as missing.
func (s *AddressService) Get(ctx context.Context, userID, id int64) (*domain.Address, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

// Create stores a new address. The first address of a user becomes the default.
func (s *AddressService) Create(ctx context.Context, userID int64, a domain.Address) (*domain.Address, error) {
	trimAddress(&a)
	if err := validateAddress(a); err != nil {
		return nil, err
	}
	a.ID = 0
	a.UserID = userID
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			a.IsDefault = true
		}
		if err := s.repo.Create(ctx, &a); err != nil {
			return err
		}
		if a.IsDefault {
			return s.clearOtherDefaults(ctx, existing, a.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AddressService) Update(ctx context.Context, userID, id int64, in domain.Address) (*domain.Address, error) {
	trimAddress(&in)
	if err := validateAddress(in); err != nil {
		return nil, err
	}
	var out *domain.Address
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cur, err := s.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		in.ID = cur.ID
		in.UserID = userID
		// the default flag only moves through SetDefault or deletion
		in.IsDefault = cur.IsDefault
		if err := s.repo.Update(ctx, &in); err != nil {
			return err
		}
		out = &in
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an address; when it was the default the oldest remaining one takes over.
func (s *AddressService) Delete(ctx context.Context, userID, id int64) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cur, err := s.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		if !cur.IsDefault {
			return nil
		}
		rest, err := s.repo.ListByUser(ctx, userID)
		if err != nil || len(rest) == 0 {
			return err
		}
		rest[0].IsDefault = true
		return s.repo.Update(ctx, &rest[0])
	})
}

func (s *AddressService) SetDefault(ctx context.Context, userID, id int64) (*domain.Address, error) {
	var out *domain.Address
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cur, err := s.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		all, err := s.repo.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		cur.IsDefault = true
		if err := s.repo.Update(ctx, cur); err != nil {
			return err
		}
		out = cur
		return s.clearOtherDefaults(ctx, all, id)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AddressService) clearOtherDefaults(ctx context.Context, list []domain.Address, keepID int64) error {
	for i := range list {
		if list[i].ID == keepID || !list[i].IsDefault {
			continue
		}
		list[i].IsDefault = false
		if err := s.repo.Update(ctx, &list[i]); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	return nil
}

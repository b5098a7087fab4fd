package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
)

// MemoryUsers keeps emails unique case-insensitively.
type MemoryUsers struct{ store *MemoryStore }

func NewMemoryUsers(store *MemoryStore) *MemoryUsers { return &MemoryUsers{store: store} }

var _ UserRepository = (*MemoryUsers)(nil)

func (mu *MemoryUsers) Create(ctx context.Context, u *domain.User) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range mu.store.usersByID {
		if existing.Email == u.Email {
			return ErrConflict
		}
	}
	u.ID = mu.store.nextUserID
	mu.store.nextUserID++
	u.CreatedAt = mu.store.now()
	mu.store.usersByID[u.ID] = *u
	return nil
}

func (mu *MemoryUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	u, ok := mu.store.usersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (mu *MemoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range mu.store.usersByID {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (mu *MemoryUsers) Update(ctx context.Context, u *domain.User) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	if _, ok := mu.store.usersByID[u.ID]; !ok {
		return ErrNotFound
	}
	mu.store.usersByID[u.ID] = *u
	return nil
}

// List returns users of role, or everyone when role is empty.
func (mu *MemoryUsers) List(ctx context.Context, role domain.Role) ([]domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	out := make([]domain.User, 0)
	for _, u := range mu.store.usersByID {
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type MemoryAddresses struct{ store *MemoryStore }

func NewMemoryAddresses(store *MemoryStore) *MemoryAddresses {
	return &MemoryAddresses{store: store}
}

var _ AddressRepository = (*MemoryAddresses)(nil)

func (ma *MemoryAddresses) Create(ctx context.Context, a *domain.Address) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	a.ID = ma.store.nextAddressID
	ma.store.nextAddressID++
	ma.store.addressesByID[a.ID] = *a
	return nil
}

func (ma *MemoryAddresses) GetByID(ctx context.Context, id int64) (*domain.Address, error) {
	ma.store.rlock(ctx)
	defer ma.store.runlock(ctx)
	a, ok := ma.store.addressesByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (ma *MemoryAddresses) Update(ctx context.Context, a *domain.Address) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	if _, ok := ma.store.addressesByID[a.ID]; !ok {
		return ErrNotFound
	}
	ma.store.addressesByID[a.ID] = *a
	return nil
}

func (ma *MemoryAddresses) Delete(ctx context.Context, id int64) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	if _, ok := ma.store.addressesByID[id]; !ok {
		return ErrNotFound
	}
	delete(ma.store.addressesByID, id)
	return nil
}

func (ma *MemoryAddresses) ListByUser(ctx context.Context, userID int64) ([]domain.Address, error) {
	ma.store.rlock(ctx)
	defer ma.store.runlock(ctx)
	out := make([]domain.Address, 0)
	for _, a := range ma.store.addressesByID {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MemoryWallets hands out an empty wallet for users without one.
type MemoryWallets struct{ store *MemoryStore }

func NewMemoryWallets(store *MemoryStore) *MemoryWallets { return &MemoryWallets{store: store} }

var _ WalletRepository = (*MemoryWallets)(nil)

func (mw *MemoryWallets) Get(ctx context.Context, userID int64) (*domain.Wallet, error) {
	mw.store.rlock(ctx)
	defer mw.store.runlock(ctx)
	w, ok := mw.store.walletsByUser[userID]
	if !ok {
		return &domain.Wallet{UserID: userID, Balance: decimal.Zero, Transactions: []domain.WalletTransaction{}}, nil
	}
	cp := w.Clone()
	return &cp, nil
}

func (mw *MemoryWallets) Save(ctx context.Context, w *domain.Wallet) error {
	mw.store.wlock(ctx)
	defer mw.store.wunlock(ctx)
	mw.store.walletsByUser[w.UserID] = w.Clone()
	return nil
}

package service

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
)

// WalletService is the store-credit ledger. Credit and Debit are meant to run
// inside the caller's transaction.
type WalletService struct {
	repo repository.WalletRepository
	now  Clock
}

func NewWalletService(repo repository.WalletRepository) *WalletService {
	return &WalletService{repo: repo, now: systemClock}
}

// WalletDetails is the balance with one page of the ledger, newest first.
type WalletDetails struct {
	Balance      decimal.Decimal            `json:"balance"`
	Transactions []domain.WalletTransaction `json:"transactions"`
	Pagination   repository.PageInfo        `json:"pagination"`
}

func (s *WalletService) Details(ctx context.Context, userID int64, req repository.PageRequest) (*WalletDetails, error) {
	w, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	txs := make([]domain.WalletTransaction, 0, len(w.Transactions))
	for i := len(w.Transactions) - 1; i >= 0; i-- {
		txs = append(txs, w.Transactions[i])
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
	page, info := repository.Paginate(txs, req)
	return &WalletDetails{Balance: w.Balance, Transactions: page, Pagination: info}, nil
}

func (s *WalletService) Credit(ctx context.Context, userID int64, amount decimal.Decimal, description string, orderID int64) (*domain.WalletTransaction, error) {
	return s.post(ctx, userID, domain.TransactionCredit, amount, description, orderID)
}

// Debit fails with ErrInsufficientFunds when the balance is too low.
func (s *WalletService) Debit(ctx context.Context, userID int64, amount decimal.Decimal, description string, orderID int64) (*domain.WalletTransaction, error) {
	return s.post(ctx, userID, domain.TransactionDebit, amount, description, orderID)
}

func (s *WalletService) post(ctx context.Context, userID int64, typ domain.TransactionType, amount decimal.Decimal, description string, orderID int64) (*domain.WalletTransaction, error) {
	if !amount.IsPositive() {
		return nil, invalid("amount must be positive")
	}
	w, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch typ {
	case domain.TransactionCredit:
		w.Balance = w.Balance.Add(amount)
	case domain.TransactionDebit:
		if w.Balance.LessThan(amount) {
			return nil, ErrInsufficientFunds
		}
		w.Balance = w.Balance.Sub(amount)
	}
	t := domain.WalletTransaction{
		ID:          uuid.NewString(),
		Type:        typ,
		Amount:      amount,
		Status:      domain.TransactionCompleted,
		Description: description,
		OrderID:     orderID,
		CreatedAt:   s.now(),
	}
	w.Transactions = append(w.Transactions, t)
	if err := s.repo.Save(ctx, w); err != nil {
		return nil, err
	}
	return &t, nil
}

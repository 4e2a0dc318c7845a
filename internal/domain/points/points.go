package points

import (
	"context"
	"strings"
	"time"

	"github.com/organizador/platform/internal/apperr"
)

// TransactionLimit caps the ledger page returned to clients.
const TransactionLimit = 50

const defaultAddDescription = "Points added"

var (
	ErrInsufficientPoints = apperr.Invalid("insufficient points")
	ErrZeroPoints         = apperr.Invalid("points must not be zero")
)

// Balance is a user's spendable point total. It never drops below zero.
type Balance struct {
	UserID      int64      `json:"user_id"`
	Points      int        `json:"total_points"`
	LastUpdated *time.Time `json:"last_updated"`
}

// Transaction is one ledger row.
type Transaction struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"-"`
	Points       int       `json:"points"`
	Description  string    `json:"description"`
	ActivityID   *int64    `json:"activity_id"`
	ActivityName string    `json:"activity_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository persists balances and the ledger.
type Repository interface {
	// Balance returns a zero balance for users that never scored.
	Balance(ctx context.Context, userID int64) (Balance, error)
	// Apply adds delta to the balance and records entry when it is non-nil.
	// It fails with ErrInsufficientPoints, changing nothing, when the result
	// would be negative.
	Apply(ctx context.Context, userID int64, delta int, entry *Transaction, at time.Time) (Balance, error)
	Transactions(ctx context.Context, userID int64, limit int) ([]Transaction, error)
}

// Service exposes point balance operations.
type Service interface {
	Balance(ctx context.Context, userID int64) (Balance, error)
	Transactions(ctx context.Context, userID int64) ([]Transaction, error)
	Add(ctx context.Context, userID int64, points int, description string) (Balance, error)
	Credit(ctx context.Context, userID int64, points int, description string, activityID *int64) (Balance, error)
	Debit(ctx context.Context, userID int64, points int, description string) (Balance, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a points service.
func NewService(repo Repository, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}
}

func (s *service) Balance(ctx context.Context, userID int64) (Balance, error) {
	return s.repo.Balance(ctx, userID)
}

func (s *service) Transactions(ctx context.Context, userID int64) ([]Transaction, error) {
	return s.repo.Transactions(ctx, userID, TransactionLimit)
}

// Add is a manual adjustment. Negative amounts are allowed as long as the
// balance stays non-negative.
func (s *service) Add(ctx context.Context, userID int64, points int, description string) (Balance, error) {
	if points == 0 {
		return Balance{}, ErrZeroPoints
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = defaultAddDescription
	}
	return s.apply(ctx, userID, points, description, nil)
}

// Credit adds earned points. A zero credit only touches LastUpdated and
// writes no ledger row.
func (s *service) Credit(ctx context.Context, userID int64, points int, description string, activityID *int64) (Balance, error) {
	if points < 0 {
		return Balance{}, apperr.Invalid("credit must not be negative")
	}
	return s.apply(ctx, userID, points, description, activityID)
}

func (s *service) Debit(ctx context.Context, userID int64, points int, description string) (Balance, error) {
	if points < 0 {
		return Balance{}, apperr.Invalid("debit must not be negative")
	}
	return s.apply(ctx, userID, -points, description, nil)
}

func (s *service) apply(ctx context.Context, userID int64, delta int, description string, activityID *int64) (Balance, error) {
	now := s.now().UTC()
	var entry *Transaction
	if delta != 0 {
		entry = &Transaction{
			UserID:      userID,
			Points:      delta,
			Description: description,
			ActivityID:  activityID,
			CreatedAt:   now,
		}
	}
	return s.repo.Apply(ctx, userID, delta, entry, now)
}

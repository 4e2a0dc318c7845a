package rewards

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/organizador/platform/internal/apperr"
	"github.com/organizador/platform/internal/domain/points"
)

const (
	DefaultRewardType    = "custom"
	DefaultConditionType = "points"
)

var ErrNotFound = apperr.NotFound("reward not found")

// Reward is something a user buys with points.
type Reward struct {
	ID                  int64      `json:"id"`
	UserID              int64      `json:"-"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	RewardType          string     `json:"reward_type"`
	PointsRequired      int        `json:"points_required"`
	ConditionType       string     `json:"condition_type"`
	ConditionValue      *int       `json:"condition_value"`
	ConditionActivityID *int64     `json:"condition_activity_id"`
	Achieved            bool       `json:"achieved"`
	AchievedAt          *time.Time `json:"achieved_at"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Repository abstracts reward persistence.
type Repository interface {
	List(ctx context.Context, userID int64) ([]Reward, error)
	Get(ctx context.Context, userID, id int64) (Reward, error)
	Create(ctx context.Context, reward Reward) (Reward, error)
	Update(ctx context.Context, reward Reward) (Reward, error)
	Delete(ctx context.Context, userID, id int64) error
}

// CreateInput describes a new reward.
type CreateInput struct {
	Name           string
	Description    string
	RewardType     string
	PointsRequired int
}

// UpdateInput carries the fields to change; nil leaves a field untouched.
type UpdateInput struct {
	Name           *string
	Description    *string
	PointsRequired *int
	Achieved       *bool
}

// PurchaseResult is the outcome of redeeming a reward.
type PurchaseResult struct {
	Reward          Reward `json:"reward"`
	RemainingPoints int    `json:"remaining_points"`
}

// Service provides reward business logic.
type Service interface {
	List(ctx context.Context, userID int64) ([]Reward, error)
	Create(ctx context.Context, userID int64, input CreateInput) (Reward, error)
	Update(ctx context.Context, userID, id int64, input UpdateInput) (Reward, error)
	Delete(ctx context.Context, userID, id int64) error
	Purchase(ctx context.Context, userID, id int64) (PurchaseResult, error)
}

// Stores are the repositories a purchase writes through.
type Stores struct {
	Rewards Repository
	Points  points.Repository
}

type service struct {
	repo   Repository
	now    func() time.Time
	atomic func(ctx context.Context, fn func(Stores) error) error
}

// NewService builds a reward service that pays for purchases from ledger.
// atomic runs a purchase in one transaction; nil runs it against repo and
// ledger directly.
func NewService(repo Repository, ledger points.Repository, now func() time.Time, atomic func(ctx context.Context, fn func(Stores) error) error) Service {
	if now == nil {
		now = time.Now
	}
	if atomic == nil {
		stores := Stores{Rewards: repo, Points: ledger}
		atomic = func(_ context.Context, fn func(Stores) error) error { return fn(stores) }
	}
	return &service{repo: repo, now: now, atomic: atomic}
}

func (s *service) List(ctx context.Context, userID int64) ([]Reward, error) {
	return s.repo.List(ctx, userID)
}

func (s *service) Create(ctx context.Context, userID int64, input CreateInput) (Reward, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Reward{}, apperr.Required("name")
	}
	if input.PointsRequired < 0 {
		return Reward{}, apperr.Invalid("points_required must not be negative")
	}

	rewardType := strings.TrimSpace(input.RewardType)
	if rewardType == "" {
		rewardType = DefaultRewardType
	}
	required := input.PointsRequired

	return s.repo.Create(ctx, Reward{
		UserID:         userID,
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
		RewardType:     rewardType,
		PointsRequired: required,
		ConditionType:  DefaultConditionType,
		ConditionValue: &required,
		CreatedAt:      s.now().UTC(),
	})
}

func (s *service) Update(ctx context.Context, userID, id int64, input UpdateInput) (Reward, error) {
	reward, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Reward{}, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Reward{}, apperr.Invalid("name must not be empty")
		}
		reward.Name = name
	}
	if input.Description != nil {
		reward.Description = strings.TrimSpace(*input.Description)
	}
	if input.PointsRequired != nil {
		if *input.PointsRequired < 0 {
			return Reward{}, apperr.Invalid("points_required must not be negative")
		}
		reward.PointsRequired = *input.PointsRequired
	}
	if input.Achieved != nil {
		markAchieved(&reward, *input.Achieved, s.now())
	}

	return s.repo.Update(ctx, reward)
}

func (s *service) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

// Purchase debits the reward's price and marks it achieved in one
// transaction. Rewards can be bought again after the first purchase.
func (s *service) Purchase(ctx context.Context, userID, id int64) (PurchaseResult, error) {
	var result PurchaseResult
	err := s.atomic(ctx, func(tx Stores) error {
		reward, err := tx.Rewards.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		balance, err := points.NewService(tx.Points, s.now).Debit(ctx, userID, reward.PointsRequired, "Redeemed: "+reward.Name)
		if err != nil {
			return err
		}
		markAchieved(&reward, true, s.now())
		updated, err := tx.Rewards.Update(ctx, reward)
		if err != nil {
			return fmt.Errorf("mark reward achieved: %w", err)
		}
		result = PurchaseResult{Reward: updated, RemainingPoints: balance.Points}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}
	return result, nil
}

func markAchieved(r *Reward, achieved bool, now time.Time) {
	r.Achieved = achieved
	if achieved {
		at := now.UTC()
		r.AchievedAt = &at
		return
	}
	r.AchievedAt = nil
}

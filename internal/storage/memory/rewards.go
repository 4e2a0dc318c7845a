package memory

import (
	"context"
	"sort"

	"github.com/organizador/platform/internal/domain/rewards"
)

// RewardRepository implements rewards.Repository in-memory.
type RewardRepository struct {
	s *Store
}

// List orders rewards by price, then id.
func (r *RewardRepository) List(_ context.Context, userID int64) ([]rewards.Reward, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]rewards.Reward, 0)
	for _, rw := range r.s.rewards {
		if rw.UserID == userID {
			list = append(list, rw)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].PointsRequired != list[j].PointsRequired {
			return list[i].PointsRequired < list[j].PointsRequired
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r *RewardRepository) Get(_ context.Context, userID, id int64) (rewards.Reward, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rw, ok := r.s.rewards[id]
	if !ok || rw.UserID != userID {
		return rewards.Reward{}, rewards.ErrNotFound
	}
	return rw, nil
}

func (r *RewardRepository) Create(_ context.Context, reward rewards.Reward) (rewards.Reward, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reward.ID = r.s.nextID("rewards")
	r.s.rewards[reward.ID] = reward
	return reward, nil
}

func (r *RewardRepository) Update(_ context.Context, reward rewards.Reward) (rewards.Reward, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.rewards[reward.ID]
	if !ok || existing.UserID != reward.UserID {
		return rewards.Reward{}, rewards.ErrNotFound
	}
	reward.CreatedAt = existing.CreatedAt
	r.s.rewards[reward.ID] = reward
	return reward, nil
}

func (r *RewardRepository) Delete(_ context.Context, userID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rw, ok := r.s.rewards[id]
	if !ok || rw.UserID != userID {
		return rewards.ErrNotFound
	}
	delete(r.s.rewards, id)
	return nil
}

var _ rewards.Repository = (*RewardRepository)(nil)

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/organizador/platform/internal/domain/rewards"
)

// RewardRepository persists rewards.
type RewardRepository struct {
	s *Store
}

const rewardColumns = `
    SELECT id, user_id, name, description, reward_type, points_required, condition_type,
           condition_value, condition_activity_id, achieved, achieved_at, created_at
      FROM rewards
`

func scanReward(row scanner) (rewards.Reward, error) {
	var (
		rw         rewards.Reward
		condValue  sql.NullInt64
		condActID  sql.NullInt64
		achievedAt sql.NullTime
	)
	err := row.Scan(
		&rw.ID,
		&rw.UserID,
		&rw.Name,
		&rw.Description,
		&rw.RewardType,
		&rw.PointsRequired,
		&rw.ConditionType,
		&condValue,
		&condActID,
		&rw.Achieved,
		&achievedAt,
		&rw.CreatedAt,
	)
	if err != nil {
		return rewards.Reward{}, err
	}
	rw.ConditionValue = intPtr(condValue)
	rw.ConditionActivityID = int64Ptr(condActID)
	rw.AchievedAt = timePtr(achievedAt)
	rw.CreatedAt = rw.CreatedAt.UTC()
	return rw, nil
}

// List orders rewards by price, then id.
func (r *RewardRepository) List(ctx context.Context, userID int64) ([]rewards.Reward, error) {
	rows, err := r.s.query(ctx, rewardColumns+` WHERE user_id = ? ORDER BY points_required, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	result := make([]rewards.Reward, 0)
	for rows.Next() {
		rw, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		result = append(result, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *RewardRepository) Get(ctx context.Context, userID, id int64) (rewards.Reward, error) {
	rw, err := scanReward(r.s.queryRow(ctx, rewardColumns+` WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rewards.Reward{}, rewards.ErrNotFound
		}
		return rewards.Reward{}, fmt.Errorf("find reward: %w", err)
	}
	return rw, nil
}

func (r *RewardRepository) Create(ctx context.Context, reward rewards.Reward) (rewards.Reward, error) {
	const insert = `
        INSERT INTO rewards (user_id, name, description, reward_type, points_required, condition_type,
                             condition_value, condition_activity_id, achieved, achieved_at, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id
    `
	reward.CreatedAt = stamp(reward.CreatedAt)
	err := r.s.queryRow(ctx, insert,
		reward.UserID,
		reward.Name,
		reward.Description,
		reward.RewardType,
		reward.PointsRequired,
		reward.ConditionType,
		nullInt(reward.ConditionValue),
		nullInt64(reward.ConditionActivityID),
		reward.Achieved,
		nullStamp(reward.AchievedAt),
		reward.CreatedAt,
	).Scan(&reward.ID)
	if err != nil {
		return rewards.Reward{}, fmt.Errorf("insert reward: %w", err)
	}
	return reward, nil
}

func (r *RewardRepository) Update(ctx context.Context, reward rewards.Reward) (rewards.Reward, error) {
	const update = `
        UPDATE rewards
           SET name = ?,
               description = ?,
               reward_type = ?,
               points_required = ?,
               condition_type = ?,
               condition_value = ?,
               condition_activity_id = ?,
               achieved = ?,
               achieved_at = ?
         WHERE id = ? AND user_id = ?
    `
	err := r.s.execAffected(ctx, rewards.ErrNotFound, update,
		reward.Name,
		reward.Description,
		reward.RewardType,
		reward.PointsRequired,
		reward.ConditionType,
		nullInt(reward.ConditionValue),
		nullInt64(reward.ConditionActivityID),
		reward.Achieved,
		nullStamp(reward.AchievedAt),
		reward.ID,
		reward.UserID,
	)
	if err != nil {
		if errors.Is(err, rewards.ErrNotFound) {
			return rewards.Reward{}, err
		}
		return rewards.Reward{}, fmt.Errorf("update reward: %w", err)
	}
	return r.Get(ctx, reward.UserID, reward.ID)
}

func (r *RewardRepository) Delete(ctx context.Context, userID, id int64) error {
	err := r.s.execAffected(ctx, rewards.ErrNotFound, `DELETE FROM rewards WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil && !errors.Is(err, rewards.ErrNotFound) {
		return fmt.Errorf("delete reward: %w", err)
	}
	return err
}

var _ rewards.Repository = (*RewardRepository)(nil)

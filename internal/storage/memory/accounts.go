package memory

import (
	"context"

	"github.com/organizador/platform/internal/domain/accounts"
)

// PurgeUser drops every tracker row owned by userID. The user itself stays.
func (s *Store) PurgeUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.transactions[:0]
	for _, tx := range s.transactions {
		if tx.UserID != userID {
			kept = append(kept, tx)
		}
	}
	s.transactions = kept
	delete(s.balances, userID)
	delete(s.streaks, userID)

	for id, rw := range s.rewards {
		if rw.UserID == userID {
			delete(s.rewards, id)
		}
	}
	for id, sc := range s.schedules {
		if sc.UserID == userID {
			delete(s.schedules, id)
		}
	}
	for id, e := range s.progress {
		if e.UserID == userID {
			delete(s.progress, id)
		}
	}
	for id, a := range s.activities {
		if a.UserID == userID {
			delete(s.activities, id)
		}
	}
	for id, c := range s.categories {
		if c.UserID == userID {
			delete(s.categories, id)
		}
	}
	return nil
}

var _ accounts.Repository = (*Store)(nil)

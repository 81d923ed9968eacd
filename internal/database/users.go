// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/feedcast/internal/models"
)

const userKeyPrefix = "user:"

// UserRepository is a read-mostly mirror of the account system's users.
type UserRepository struct {
	db *badger.DB
}

// GetUser returns the user or an error wrapping ErrNotFound.
func (r *UserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user models.User
	err := r.db.View(func(txn *badger.Txn) error {
		return getUser(txn, id, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func getUser(txn *badger.Txn, id string, dst *models.User) error {
	item, err := txn.Get([]byte(userKeyPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

// Upsert writes u, replacing any previous record with the same id.
func (r *UserRepository) Upsert(ctx context.Context, u *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if u.ID == "" {
		return errors.New("user id is required")
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(userKeyPrefix+u.ID), data)
	})
}

// Summaries loads the author summary for each id in a single transaction.
// Unknown ids are absent from the result.
func (r *UserRepository) Summaries(ctx context.Context, ids []string) (map[string]models.AuthorSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[string]models.AuthorSummary, len(ids))
	err := r.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			if _, seen := out[id]; seen {
				continue
			}
			var user models.User
			err := getUser(txn, id, &user)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out[id] = user.Summary()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

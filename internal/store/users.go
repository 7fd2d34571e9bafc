package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/quillapp/quill/internal/domain"
	"github.com/quillapp/quill/internal/id"
)

// CreateUser registers an account. Email lookup is case-insensitive;
// the address is stored lowercased.
func (s *Store) CreateUser(ctx context.Context, email, displayName, passwordHash string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	user := &domain.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
	}
	user.ID = userID
	user.InitTimestamps()

	err = s.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte(userByEmailPrefix + email)
		_, err := txn.Get(emailKey)
		if err == nil {
			return ErrEmailTaken
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		// PasswordHash has a json:"-" tag; persist through a private shape.
		data, err := json.Marshal(storedUser{User: *user, PasswordHash: user.PasswordHash})
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
		if err := txn.Set([]byte(userPrefix+user.ID), data); err != nil {
			return err
		}
		return txn.Set(emailKey, []byte(user.ID))
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "user created",
		slog.String("id", user.ID),
		slog.String("email", email),
	)
	return user, nil
}

// storedUser is the persisted user shape; it re-adds the password hash the
// public JSON representation hides.
type storedUser struct {
	domain.User
	PasswordHash string `json:"password_hash"`
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.getUserByKey(userPrefix + userID)
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))

	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userByEmailPrefix + email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return s.getUserByKey(userPrefix + userID)
}

func (s *Store) getUserByKey(key string) (*domain.User, error) {
	var stored storedUser
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	user := stored.User
	user.PasswordHash = stored.PasswordHash
	return &user, nil
}

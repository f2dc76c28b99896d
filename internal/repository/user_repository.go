package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"taskmaster/internal/model"
	"taskmaster/internal/store"
)

const (
	usersKey       = "users"
	currentUserKey = "current_user"
)

// UserRepository handles accounts and the logged-in session.
type UserRepository struct {
	kv    store.KV
	mu    sync.Mutex
	newID func() string
}

func NewUserRepository(kv store.KV) *UserRepository {
	return &UserRepository{kv: kv, newID: uuid.NewString}
}

// Create stores a new account and assigns its id. Email uniqueness is the caller's concern.
func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return model.User{}, err
	}
	user.ID = r.newID()
	users = append(users, user)
	if err := r.save(ctx, users); err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// FindByEmail matches case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, fmt.Errorf("user %s: %w", email, ErrNotFound)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
}

// Update overwrites the account with the same id.
func (r *UserRepository) Update(ctx context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].ID == user.ID {
			users[i] = user
			if err := r.save(ctx, users); err != nil {
				return fmt.Errorf("update user: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("update user %s: %w", user.ID, ErrNotFound)
}

// CurrentUserID returns the logged-in user id; ok is false when nobody is logged in.
func (r *UserRepository) CurrentUserID(ctx context.Context) (string, bool, error) {
	raw, ok, err := r.kv.Get(ctx, currentUserKey)
	if err != nil {
		return "", false, fmt.Errorf("load session: %w", err)
	}
	if !ok || len(raw) == 0 {
		return "", false, nil
	}
	return string(raw), true, nil
}

func (r *UserRepository) SetCurrentUser(ctx context.Context, id string) error {
	if err := r.kv.Set(ctx, currentUserKey, []byte(id)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *UserRepository) ClearCurrentUser(ctx context.Context) error {
	if err := r.kv.Delete(ctx, currentUserKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (r *UserRepository) load(ctx context.Context) ([]model.User, error) {
	raw, ok, err := r.kv.Get(ctx, usersKey)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var users []model.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) save(ctx context.Context, users []model.User) error {
	data, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, usersKey, data)
}

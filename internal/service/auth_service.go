package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

// AuthService manages the account and the logged-in session.
type AuthService struct {
	users *repository.UserRepository
	tasks *repository.TaskRepository
	cost  int
}

func NewAuthService(users *repository.UserRepository, tasks *repository.TaskRepository) *AuthService {
	return &AuthService{users: users, tasks: tasks, cost: bcrypt.DefaultCost}
}

// Register creates an account, starts it with an empty task collection and logs it in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	v := newValidator()
	v.checkCond(name != "", "name", "must be provided")
	v.checkEmail(email)
	v.checkPassword("password", password)
	if err := v.err(); err != nil {
		return nil, err
	}

	taken, err := s.emailTaken(ctx, email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &ValidationError{Fields: map[string]string{"email": "is already in use"}}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, model.User{Name: name, Email: email, PasswordHash: string(hash)})
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Clear(ctx, user.ID); err != nil {
		return nil, err
	}
	if err := s.users.SetCurrentUser(ctx, user.ID); err != nil {
		return nil, err
	}
	log.Info("user registered", "id", user.ID)
	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.users.SetCurrentUser(ctx, user.ID); err != nil {
		return nil, err
	}
	log.Info("user logged in", "id", user.ID)
	return &user, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.users.ClearCurrentUser(ctx)
}

// Current returns the logged-in user or ErrNotAuthenticated.
func (s *AuthService) Current(ctx context.Context) (*model.User, error) {
	id, ok, err := s.users.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAuthenticated
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes name and email. An email owned by another account is rejected.
func (s *AuthService) UpdateProfile(ctx context.Context, user *model.User, name, email string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	v := newValidator()
	v.checkCond(name != "", "name", "must be provided")
	v.checkEmail(email)
	if err := v.err(); err != nil {
		return nil, err
	}

	taken, err := s.emailTaken(ctx, email, user.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &ValidationError{Fields: map[string]string{"email": "is already in use"}}
	}

	stored, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	stored.Name = name
	stored.Email = email
	if err := s.users.Update(ctx, stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, user *model.User, current, next, confirm string) error {
	v := newValidator()
	v.checkCond(next == confirm, "confirm", "does not match the new password")
	v.checkPassword("new password", next)
	if err := v.err(); err != nil {
		return err
	}

	stored, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(current)); err != nil {
		return &ValidationError{Fields: map[string]string{"current password": "is incorrect"}}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	stored.PasswordHash = string(hash)
	return s.users.Update(ctx, stored)
}

func (s *AuthService) emailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return existing.ID != exceptID, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

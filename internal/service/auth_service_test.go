package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func (f *fixture) authService() *AuthService {
	svc := NewAuthService(f.users, f.tasks)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestAuthServiceRegisterLoginLogout(t *testing.T) {
	f := newFixture()
	svc := f.authService()
	ctx := context.Background()

	if _, err := svc.Current(ctx); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("Current before register: %v", err)
	}

	user, err := svc.Register(ctx, " Ada ", "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Name != "Ada" || user.ID == "" {
		t.Errorf("user = %+v", user)
	}
	if user.PasswordHash == "secret1" {
		t.Error("password stored in clear")
	}

	current, err := svc.Current(ctx)
	if err != nil || current.ID != user.ID {
		t.Fatalf("Current = %v, %v", current, err)
	}

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Current(ctx); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Current after logout: %v", err)
	}

	if _, err := svc.Login(ctx, "ada@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: %v", err)
	}
	if _, err := svc.Login(ctx, "bob@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: %v", err)
	}
	logged, err := svc.Login(ctx, "ADA@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if logged.ID != user.ID {
		t.Errorf("logged in as %s", logged.ID)
	}
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
		field    string
	}{
		{"missing name", "", "a@example.com", "secret1", "name"},
		{"bad email", "Ada", "not-an-email", "secret1", "email"},
		{"short password", "Ada", "a@example.com", "abc", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.authService().Register(context.Background(), tt.userName, tt.email, tt.password)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("fields = %v", verr.Fields)
			}
		})
	}
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	f := newFixture()
	svc := f.authService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(ctx, "Other", "Ada@Example.com", "secret2")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["email"] != "is already in use" {
		t.Errorf("err = %v", err)
	}
}

func TestAuthServiceRegisterStartsEmpty(t *testing.T) {
	f := newFixture()
	svc := f.authService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	tasks, err := f.tasks.List(ctx, user.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("new account has %d tasks", len(tasks))
	}
}

func TestAuthServiceProfileAndPassword(t *testing.T) {
	f := newFixture()
	svc := f.authService()
	ctx := context.Background()

	other, err := svc.Register(ctx, "Bob", "bob@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	user, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, user, "Ada L.", "ada@example.com")
	if err != nil {
		t.Fatalf("UpdateProfile keeping own email: %v", err)
	}
	if updated.Name != "Ada L." {
		t.Errorf("name = %q", updated.Name)
	}
	if _, err := svc.UpdateProfile(ctx, user, "Ada", other.Email); err == nil {
		t.Error("took another account's email")
	}

	tests := []struct {
		name    string
		current string
		next    string
		confirm string
		field   string
	}{
		{"wrong current", "nope", "newpass1", "newpass1", "current password"},
		{"mismatch", "secret1", "newpass1", "newpass2", "confirm"},
		{"too short", "secret1", "abc", "abc", "new password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ChangePassword(ctx, user, tt.current, tt.next, tt.confirm)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want %s", verr.Fields, tt.field)
			}
		})
	}

	if err := svc.ChangePassword(ctx, user, "secret1", "newpass1", "newpass1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Login(ctx, "ada@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still works: %v", err)
	}
	if _, err := svc.Login(ctx, "ada@example.com", "newpass1"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"title": "must be provided", "email": "must be valid"}}
	if got := err.Error(); got != "email must be valid; title must be provided" {
		t.Errorf("Error() = %q", got)
	}
}

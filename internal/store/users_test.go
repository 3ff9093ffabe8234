package store

import (
	"context"
	"errors"
	"testing"
)

func registration(username string) NewUser {
	return NewUser{
		Email:     username + "@foodgram.test",
		Username:  username,
		FirstName: "Vera",
		LastName:  "Holm",
		Password:  "s3cret-pass",
	}
}

func TestCreateUserHashesPassword(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := newTestDB(t)

	user, err := CreateUser(ctx, database, registration("vera"))
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected user id to be assigned")
	}
	if user.PasswordHash == "s3cret-pass" {
		t.Fatal("expected password to be hashed")
	}

	if _, err := Authenticate(ctx, database, "vera@foodgram.test", "s3cret-pass"); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if _, err := Authenticate(ctx, database, "vera@foodgram.test", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Authenticate() with wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := Authenticate(ctx, database, "nobody@foodgram.test", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Authenticate() for unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestCreateUserRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := newTestDB(t)
	if _, err := CreateUser(ctx, database, registration("taken")); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*NewUser)
		field  string
	}{
		{"reserved username", func(u *NewUser) { u.Username = "me" }, "username"},
		{"bad username", func(u *NewUser) { u.Username = "has space" }, "username"},
		{"short password", func(u *NewUser) { u.Password = "short" }, "password"},
		{"missing first name", func(u *NewUser) { u.FirstName = " " }, "first_name"},
		{"duplicate email", func(u *NewUser) { u.Email = "taken@foodgram.test" }, "email"},
		{"duplicate username", func(u *NewUser) { u.Username = "taken" }, "username"},
	}

	for _, tt := range tests {
		input := registration("fresh")
		tt.mutate(&input)
		_, err := CreateUser(ctx, database, input)
		if got := validationField(t, err); got != tt.field {
			t.Fatalf("%s: field = %q, want %q", tt.name, got, tt.field)
		}
	}
}

func TestSetPasswordRequiresCurrentPassword(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := newTestDB(t)
	user, err := CreateUser(ctx, database, registration("pat"))
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	err = SetPassword(ctx, database, user.ID, "not-the-password", "another-pass")
	if got := validationField(t, err); got != "current_password" {
		t.Fatalf("field = %q, want current_password", got)
	}

	if err := SetPassword(ctx, database, user.ID, "s3cret-pass", "another-pass"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if _, err := Authenticate(ctx, database, user.Email, "another-pass"); err != nil {
		t.Fatalf("Authenticate() with new password error = %v", err)
	}
}

func TestAvatarLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := newTestDB(t)
	user := mustUser(t, database, "ava")

	if _, err := ClearAvatar(ctx, database, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ClearAvatar() without avatar error = %v, want ErrNotFound", err)
	}

	previous, err := SetAvatar(ctx, database, user.ID, "avatars/one.png")
	if err != nil || previous != "" {
		t.Fatalf("SetAvatar() = %q, %v", previous, err)
	}
	previous, err = SetAvatar(ctx, database, user.ID, "avatars/two.png")
	if err != nil || previous != "avatars/one.png" {
		t.Fatalf("SetAvatar() = %q, %v; want avatars/one.png", previous, err)
	}

	cleared, err := ClearAvatar(ctx, database, user.ID)
	if err != nil || cleared != "avatars/two.png" {
		t.Fatalf("ClearAvatar() = %q, %v", cleared, err)
	}
}

func TestListUsersPaginates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := newTestDB(t)
	for _, name := range []string{"a1", "a2", "a3"} {
		mustUser(t, database, name)
	}

	users, total, err := ListUsers(ctx, database, Page{Number: 2, Size: 2})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if len(users) != 1 || users[0].Username != "a3" {
		t.Fatalf("page 2 = %+v, want only a3", users)
	}
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"foodgram/models"
)

const (
	maxEmailLength    = 254
	maxNameLength     = 150
	MinPasswordLength = 8
)

// NewUser carries the registration fields.
type NewUser struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

func (u NewUser) validate() error {
	switch {
	case strings.TrimSpace(u.Email) == "":
		return invalid("email", "this field is required")
	case utf8.RuneCountInString(u.Email) > maxEmailLength:
		return invalid("email", fmt.Sprintf("must be at most %d characters", maxEmailLength))
	case u.Username == models.ReservedUsername:
		return invalid("username", fmt.Sprintf("%q is reserved", models.ReservedUsername))
	case !models.ValidUsername(u.Username):
		return invalid("username", "may contain only letters, digits and @/./+/-/_")
	case utf8.RuneCountInString(u.Username) > maxNameLength:
		return invalid("username", fmt.Sprintf("must be at most %d characters", maxNameLength))
	case strings.TrimSpace(u.FirstName) == "":
		return invalid("first_name", "this field is required")
	case utf8.RuneCountInString(u.FirstName) > maxNameLength:
		return invalid("first_name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	case strings.TrimSpace(u.LastName) == "":
		return invalid("last_name", "this field is required")
	case utf8.RuneCountInString(u.LastName) > maxNameLength:
		return invalid("last_name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	case utf8.RuneCountInString(u.Password) < MinPasswordLength:
		return invalid("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// CreateUser registers an account with a bcrypt-hashed password. Email and
// username collisions are reported as validation errors on the colliding field.
func CreateUser(ctx context.Context, db *gorm.DB, input NewUser) (models.User, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := input.validate(); err != nil {
		return models.User{}, err
	}

	for _, field := range []struct{ column, value string }{
		{"email", input.Email},
		{"username", input.Username},
	} {
		var count int64
		if err := db.WithContext(ctx).Model(&models.User{}).Where(field.column+" = ?", field.value).Count(&count).Error; err != nil {
			return models.User{}, fmt.Errorf("check %s: %w", field.column, err)
		}
		if count > 0 {
			return models.User{}, invalid(field.column, fmt.Sprintf("a user with this %s already exists", field.column))
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        input.Email,
		Username:     input.Username,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hash),
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		if isDuplicate(err) {
			return models.User{}, invalid("username", "a user with this email or username already exists")
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func GetUser(ctx context.Context, db *gorm.DB, id uint) (models.User, error) {
	var user models.User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, translateNotFound(err)
	}
	return user, nil
}

// Authenticate returns the user owning email when password matches its hash.
func Authenticate(ctx context.Context, db *gorm.DB, email, password string) (models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ListUsers returns one page of users ordered by id and the total number of users.
func ListUsers(ctx context.Context, db *gorm.DB, page Page) ([]models.User, int64, error) {
	var total int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var users []models.User
	if err := db.WithContext(ctx).Order("id").Scopes(page.scope).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// SetPassword replaces the password after verifying the current one.
func SetPassword(ctx context.Context, db *gorm.DB, userID uint, current, next string) error {
	user, err := GetUser(ctx, db, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return invalid("current_password", "incorrect password")
	}
	if utf8.RuneCountInString(next) < MinPasswordLength {
		return invalid("new_password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := db.WithContext(ctx).Model(&user).Update("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// SetAvatar stores a new avatar key and returns the one it replaced.
func SetAvatar(ctx context.Context, db *gorm.DB, userID uint, key string) (string, error) {
	user, err := GetUser(ctx, db, userID)
	if err != nil {
		return "", err
	}
	previous := user.Avatar
	if err := db.WithContext(ctx).Model(&user).Update("avatar", key).Error; err != nil {
		return "", fmt.Errorf("update avatar: %w", err)
	}
	return previous, nil
}

// ClearAvatar removes the avatar key and returns it. ErrNotFound when none is set.
func ClearAvatar(ctx context.Context, db *gorm.DB, userID uint) (string, error) {
	user, err := GetUser(ctx, db, userID)
	if err != nil {
		return "", err
	}
	previous := user.Avatar
	if previous == "" {
		return "", ErrNotFound
	}
	if err := db.WithContext(ctx).Model(&user).Update("avatar", "").Error; err != nil {
		return "", fmt.Errorf("clear avatar: %w", err)
	}
	return previous, nil
}

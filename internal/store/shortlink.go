package store

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"gorm.io/gorm"

	"foodgram/models"
)

const (
	shortLinkAlphabet    = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	shortLinkLength      = 6
	maxShortLinkAttempts = 8
)

var newShortLinkToken = randomToken

func randomToken() (string, error) {
	limit := big.NewInt(int64(len(shortLinkAlphabet)))
	token := make([]byte, shortLinkLength)
	for i := range token {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		token[i] = shortLinkAlphabet[n.Int64()]
	}
	return string(token), nil
}

// AssignShortLink returns the recipe's short link token, generating and storing
// one on first use. The conditional update means concurrent callers agree on a
// single token, and a token already taken by another recipe is regenerated.
func AssignShortLink(ctx context.Context, db *gorm.DB, recipeID uint) (string, error) {
	for attempt := 0; attempt < maxShortLinkAttempts; attempt++ {
		var recipe models.Recipe
		if err := db.WithContext(ctx).Select("id", "short_link").First(&recipe, recipeID).Error; err != nil {
			return "", translateNotFound(err)
		}
		if recipe.ShortLink != nil {
			return *recipe.ShortLink, nil
		}

		token, err := newShortLinkToken()
		if err != nil {
			return "", fmt.Errorf("generate short link: %w", err)
		}

		result := db.WithContext(ctx).
			Model(&models.Recipe{}).
			Where("id = ? AND short_link IS NULL", recipeID).
			UpdateColumn("short_link", token)
		if result.Error != nil {
			if isDuplicate(result.Error) {
				continue
			}
			return "", fmt.Errorf("store short link: %w", result.Error)
		}
		if result.RowsAffected == 1 {
			return token, nil
		}
		// Another request assigned a token first or the recipe is gone; the
		// next iteration reloads and reports either case.
	}
	return "", ErrShortLinkExhausted
}

// ResolveShortLink returns the id of the recipe owning token.
func ResolveShortLink(ctx context.Context, db *gorm.DB, token string) (uint, error) {
	var recipe models.Recipe
	if err := db.WithContext(ctx).Select("id").Where("short_link = ?", token).First(&recipe).Error; err != nil {
		return 0, translateNotFound(err)
	}
	return recipe.ID, nil
}

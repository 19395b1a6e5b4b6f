package auth

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// パスワードの長さ制約。
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

const bcryptCost = 10

// HashPassword はパスワードをbcryptでハッシュ化する。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword はパスワードがハッシュと一致するかを返す。
// 不一致はエラーではなくfalseとして返す。
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("failed to verify password: %w", err)
}

// ValidatePassword はパスワードの強度要件を検証する。
// 問題がなければ空文字、あれば利用者向けのメッセージを返す。
func ValidatePassword(password string) string {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return fmt.Sprintf("パスワードは%d文字以上で入力してください。", MinPasswordLength)
	}
	if n > MaxPasswordLength {
		return fmt.Sprintf("パスワードは%d文字以下で入力してください。", MaxPasswordLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return "パスワードには英字と数字をそれぞれ1文字以上含めてください。"
	}
	return ""
}

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// tokenBytes はセッショントークンのバイト長（256ビット）。
const tokenBytes = 32

// GenerateSecureToken は暗号論的に安全な乱数から16進文字列のトークンを生成する。
func GenerateSecureToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashToken はトークンのSHA-256ハッシュを16進文字列で返す。
// DBにはトークン本体ではなくこの値を保存する。
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

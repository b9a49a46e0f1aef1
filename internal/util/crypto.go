package util

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// AdminCodeHashCost is the bcrypt cost used for ADMIN_CODE_HASH values.
const AdminCodeHashCost = 12

func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func HashAdminCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), AdminCodeHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// MaskPIN keeps the first two characters, e.g. "1234" -> "12**".
func MaskPIN(pin string) string {
	if pin == "" {
		return ""
	}
	if len(pin) <= 2 {
		return strings.Repeat("*", len(pin))
	}
	return pin[:2] + strings.Repeat("*", len(pin)-2)
}

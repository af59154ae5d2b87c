package common

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	codeCharacters     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	passwordCharacters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!@#$%"
)

func randomString(charset string, n int) string {
	max := big.NewInt(int64(len(charset)))
	result := make([]byte, n)
	for i := range result {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		result[i] = charset[idx.Int64()]
	}
	return string(result)
}

// GenerateTicketCode returns the short code printed on payment tickets.
func GenerateTicketCode() string {
	return randomString(codeCharacters, 7)
}

func GeneratePassword(n int) string {
	return randomString(passwordCharacters, n)
}

// FormatBRL renders an amount as "R$ 1.234,56".
func FormatBRL(amount decimal.Decimal) string {
	s := amount.Abs().StringFixed(2)
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]

	var grouped []string
	for len(intPart) > 3 {
		grouped = append([]string{intPart[len(intPart)-3:]}, grouped...)
		intPart = intPart[:len(intPart)-3]
	}
	grouped = append([]string{intPart}, grouped...)

	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	return sign + "R$ " + strings.Join(grouped, ".") + "," + parts[1]
}

func StringPtr(s string) *string {
	return &s
}

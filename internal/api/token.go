package api

import (
	"strconv"
	"strings"
)

// Copilot API tokens carry their own metadata in the form
// tid=<id>;exp=<unix-seconds>;sku=<plan>;... followed by feature flags.

// expiryFromToken extracts the exp field embedded in a Copilot API token.
// It reports false when the token does not carry one.
func expiryFromToken(token string) (int64, bool) {
	for _, part := range strings.Split(token, ";") {
		if !strings.HasPrefix(part, "exp=") {
			continue
		}
		exp, err := strconv.ParseInt(strings.TrimPrefix(part, "exp="), 10, 64)
		if err != nil {
			return 0, false
		}
		return exp, true
	}
	return 0, false
}

// MaskToken masks a token for display, showing only the first and last
// few characters. Used when logging token material.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

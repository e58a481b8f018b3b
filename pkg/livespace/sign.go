package livespace

import (
	"crypto/sha1"
	"encoding/hex"
	"unicode/utf8"

	pkgerrors "github.com/angelmondragon/livespace-sdk/pkg/errors"
)

// Sign returns the hex encoded SHA-1 digest of apiKey, token and apiSecret
// concatenated in that order.
func Sign(apiKey, token, apiSecret string) (string, error) {
	for _, part := range [...]string{apiKey, token, apiSecret} {
		if !utf8.ValidString(part) {
			return "", pkgerrors.New(pkgerrors.CodeConfig, "signature input is not valid utf-8")
		}
	}
	h := sha1.New()
	h.Write([]byte(apiKey))
	h.Write([]byte(token))
	h.Write([]byte(apiSecret))
	return hex.EncodeToString(h.Sum(nil)), nil
}

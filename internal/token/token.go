// Package token encodes and decodes join tokens: short opaque strings that
// embed an event id so they can be rendered as a scannable QR link. They are
// convenience addressing only, not an access-control credential.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const prefix = "oh"

var ErrMalformedToken = errors.New("malformed join token")

// Encode builds a join token for the given event id. The uuid suffix keeps
// tokens visually distinct across recreated events with recycled ids.
func Encode(eventID uint) string {
	raw := fmt.Sprintf("%s:%d:%s", prefix, eventID, uuid.NewString())
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a join token back to the event id it embeds.
func Decode(tok string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		return 0, ErrMalformedToken
	}

	parts := strings.SplitN(string(raw), ":", 3)
	if len(parts) != 3 || parts[0] != prefix {
		return 0, ErrMalformedToken
	}

	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id == 0 {
		return 0, ErrMalformedToken
	}
	return uint(id), nil
}

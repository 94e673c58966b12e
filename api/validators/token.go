package validators

import (
	"errors"
	"strings"
)

var ErrMissingToken = errors.New("missing bearer token")

// BearerToken extracts the token from an Authorization header value. The
// "Bearer" scheme is optional and matched case-insensitively; any other
// scheme, a bare scheme, or extra parts are rejected.
func BearerToken(raw string) (string, error) {
	parts := strings.Fields(raw)
	switch len(parts) {
	case 1:
		if strings.EqualFold(parts[0], "bearer") {
			return "", ErrMissingToken
		}
		return parts[0], nil
	case 2:
		if strings.EqualFold(parts[0], "bearer") {
			return parts[1], nil
		}
	}
	return "", ErrMissingToken
}

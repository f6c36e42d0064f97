package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/rugstore-backend/pkg/errors"
)

// BearerToken extracts the token from the Authorization header. The
// "Bearer " prefix is optional.
func BearerToken(r *http.Request) (string, error) {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return token, nil
}

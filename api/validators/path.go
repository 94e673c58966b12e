package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/clinica-salud/pacientes-api/pkg/errors"
	"github.com/go-chi/chi/v5"
)

// ParseIDParam reads a positive integer id from the named chi URL parameter.
func ParseIDParam(r *http.Request, key string) (uint, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter is required").WithDetails(map[string]any{"field": key})
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a positive integer").WithDetails(map[string]any{"field": key})
	}
	return uint(value), nil
}

package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/avelichko/vitrina-storefront/pkg/errors"
	"github.com/avelichko/vitrina-storefront/pkg/types"
)

// LimitParam parses an optional positive "limit" query parameter.
// Missing or blank values fall back to the provided default.
func LimitParam(r *http.Request, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer").
			WithDetails(map[string]string{"limit": raw})
	}
	return limit, nil
}

// ShippingParam parses an optional "shipping" query parameter. Missing or
// blank values fall back to standard delivery.
func ShippingParam(r *http.Request) (types.ShippingMethod, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("shipping"))
	if raw == "" {
		return types.ShippingStandard, nil
	}
	method := types.ShippingMethod(strings.ToLower(raw))
	if !method.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method").
			WithDetails(map[string]string{"shipping": raw})
	}
	return method, nil
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxPrincipal extracts the principal ID injected by the Auth middleware
// and performs a fast-fail check before any service call: an empty ID means
// the middleware did not run or the token carried no subject, so reject with
// 401 rather than pass a blank principal downstream.
func ctxPrincipal(c echo.Context) (string, error) {
	principalID, _ := c.Get("principal_id").(string)
	if principalID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return principalID, nil
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ledgerfeed/importer/internal/source/saltedge"
)

// CredentialValidator checks the configured aggregator credential.
type CredentialValidator interface {
	Validate(ctx context.Context) saltedge.AuthStatus
}

type HealthHandler struct {
	validator CredentialValidator
}

func NewHealthHandler(validator CredentialValidator) *HealthHandler {
	return &HealthHandler{validator: validator}
}

func (h *HealthHandler) Check(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Ready additionally reports the aggregator credential state. A credential
// error makes the service not ready; an unconfigured credential does not.
func (h *HealthHandler) Ready(c echo.Context) error {
	status := h.validator.Validate(c.Request().Context())

	code := http.StatusOK
	if status == saltedge.AuthStatusError {
		code = http.StatusServiceUnavailable
	}

	return c.JSON(code, map[string]interface{}{
		"status":     "ok",
		"aggregator": status,
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

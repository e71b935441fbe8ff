package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"storefront/internal/infrastructure/realtime"
)

const healthPath = "health"

type HealthHandler struct {
	store   realtime.DocumentStore
	backend string
}

var healthHandler *HealthHandler

func NewHealthHandler(store realtime.DocumentStore, backend string) *HealthHandler {
	return &HealthHandler{
		store:   store,
		backend: backend,
	}
}

func SetupHealthHandler(store realtime.DocumentStore, backend string) {
	healthHandler = NewHealthHandler(store, backend)
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// CheckStore does a small read against the document store.
func (h *HealthHandler) CheckStore(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.store.Read(ctx, healthPath); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "Document store unreachable",
			"backend": h.backend,
			"error":   err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "Document store connected",
		"backend": h.backend,
	})
}

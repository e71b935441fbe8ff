package handler

import (
	"github.com/labstack/echo/v4"

	"storefront/internal/usecase"
	"storefront/pkg/errors"
	"storefront/pkg/logger"
	"storefront/pkg/response"
)

type AdminHandler struct {
	authUseCase *usecase.AuthUseCase
}

func NewAdminHandler(authUseCase *usecase.AuthUseCase) *AdminHandler {
	return &AdminHandler{
		authUseCase: authUseCase,
	}
}

type setSellerRequest struct {
	Seller *bool `json:"seller" validate:"required"`
}

// SetSeller grants or revokes the seller claim of a user.
func (h *AdminHandler) SetSeller(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return response.Error(c, errors.BadRequest("User ID is required", nil))
	}

	var req setSellerRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.authUseCase.SetSeller(c.Request().Context(), uid, *req.Seller); err != nil {
		return response.Error(c, err)
	}

	logger.Info("Seller capability of %s set to %v by %v", uid, *req.Seller, c.Get("uid"))
	return response.Success(c, map[string]interface{}{
		"uid":    uid,
		"seller": *req.Seller,
	})
}

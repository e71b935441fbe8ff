package middleware

import (
	"github.com/labstack/echo/v4"

	"storefront/pkg/errors"
	"storefront/pkg/response"
)

type AdminMiddleware struct{}

func NewAdminMiddleware() *AdminMiddleware {
	return &AdminMiddleware{}
}

// AdminOnly must run after Authenticate.
func (m *AdminMiddleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session := Session(c)
		if session == nil {
			return response.Error(c, errors.Unauthenticated("Authentication required"))
		}
		if !session.IsAdmin {
			return response.Error(c, errors.Forbidden("Admin privileges required", nil))
		}
		return next(c)
	}
}

// SellerOnly must run after Authenticate.
func (m *AdminMiddleware) SellerOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session := Session(c)
		if session == nil {
			return response.Error(c, errors.Unauthenticated("Authentication required"))
		}
		if !session.IsSeller {
			return response.Error(c, errors.Forbidden("Seller privileges required", nil))
		}
		return next(c)
	}
}

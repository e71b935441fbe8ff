package handler

import (
	"github.com/labstack/echo/v4"

	"storefront/internal/adapter/api/middleware"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"
	"storefront/internal/usecase"
	"storefront/pkg/errors"
	"storefront/pkg/response"
)

type ReviewHandler struct {
	reviewUseCase  *usecase.ReviewUseCase
	productUseCase *usecase.ProductUseCase
}

func NewReviewHandler(reviewUseCase *usecase.ReviewUseCase, productUseCase *usecase.ProductUseCase) *ReviewHandler {
	return &ReviewHandler{
		reviewUseCase:  reviewUseCase,
		productUseCase: productUseCase,
	}
}

type reviewsResponse struct {
	Reviews []entity.Review       `json:"reviews"`
	Rating  service.RatingSummary `json:"rating"`
}

func (h *ReviewHandler) ListReviews(c echo.Context) error {
	productID := c.Param("id")

	reviews, err := h.reviewUseCase.ListReviews(c.Request().Context(), productID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, reviewsResponse{
		Reviews: reviews,
		Rating:  service.Summarize(reviews),
	})
}

func (h *ReviewHandler) SubmitReview(c echo.Context) error {
	ctx := c.Request().Context()
	productID := c.Param("id")

	var req usecase.SubmitReviewInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if _, err := h.productUseCase.GetProduct(ctx, productID); err != nil {
		return response.Error(c, err)
	}

	session := middleware.Session(c)
	current, err := h.reviewUseCase.ListReviews(ctx, productID)
	if err != nil {
		return response.Error(c, err)
	}

	review, err := h.reviewUseCase.SubmitReview(ctx, session, productID, req, usecase.FindUserReview(current, session.UID))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, review)
}

func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	productID := c.Param("id")
	reviewID := c.Param("reviewId")

	if err := h.reviewUseCase.DeleteReview(c.Request().Context(), middleware.Session(c), productID, reviewID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Review deleted"})
}

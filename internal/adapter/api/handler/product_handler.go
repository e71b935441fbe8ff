package handler

import (
	"github.com/labstack/echo/v4"

	"storefront/internal/adapter/api/middleware"
	"storefront/internal/usecase"
	"storefront/internal/view"
	"storefront/pkg/errors"
	"storefront/pkg/response"
	"storefront/pkg/utils"
)

const maxImageSize = 5 << 20

type ProductHandler struct {
	productUseCase *usecase.ProductUseCase
}

func NewProductHandler(productUseCase *usecase.ProductUseCase) *ProductHandler {
	return &ProductHandler{
		productUseCase: productUseCase,
	}
}

func productFilter(c echo.Context) usecase.ProductFilter {
	return usecase.ProductFilter{
		Type:      c.QueryParam("type"),
		Condition: c.QueryParam("condition"),
	}
}

// ListProducts returns a page of product cards with their rating badges.
func (h *ProductHandler) ListProducts(c echo.Context) error {
	params := utils.GetPaginationParams(c)

	items, total, err := h.productUseCase.ListProductCards(c.Request().Context(), productFilter(c), params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	cards := make([]view.CardState, 0, len(items))
	for _, item := range items {
		cards = append(cards, view.BuildCard(item.Product, item.Reviews))
	}

	return response.Paginated(c, cards, total, params.Page, params.PageSize)
}

// GetProduct returns the product page state for the caller.
func (h *ProductHandler) GetProduct(c echo.Context) error {
	id := c.Param("id")

	item, err := h.productUseCase.GetProductWithReviews(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}

	state := view.BuildProductState(item.Product, item.Reviews, middleware.Session(c), view.Draft{}, view.OverlayStatus{State: view.OverlayIdle})
	return response.Success(c, state)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req usecase.CreateProductInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	product, err := h.productUseCase.CreateProduct(c.Request().Context(), middleware.Session(c), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, product)
}

// UploadImage takes a multipart "image" field and returns its public URL.
func (h *ProductHandler) UploadImage(c echo.Context) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return response.Error(c, errors.Validation("image is required"))
	}
	if fileHeader.Size > maxImageSize {
		return response.Error(c, errors.Validation("image must be at most 5MB"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read image", err))
	}
	defer file.Close()

	url, err := h.productUseCase.UploadProductImage(c.Request().Context(), middleware.Session(c), file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]string{"url": url})
}

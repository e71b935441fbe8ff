package usecase

import (
	"context"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/pkg/errors"
	"storefront/pkg/logger"
)

const cardFanOut = 8

type ProductUseCase struct {
	productRepo repository.ProductRepository
	reviewRepo  repository.ReviewRepository
	storage     FileStorage
}

// NewProductUseCase wires the catalog. storage may be nil when image uploads
// are not configured.
func NewProductUseCase(
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
	storage FileStorage,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
		storage:     storage,
	}
}

type ProductFilter struct {
	Type      string
	Condition string
	SellerID  string
}

func (f ProductFilter) toMap() map[string]interface{} {
	filter := make(map[string]interface{})
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Condition != "" {
		filter["condition"] = f.Condition
	}
	if f.SellerID != "" {
		filter["sellerId"] = f.SellerID
	}
	return filter
}

// ProductReviews is a product with its review collection at read time.
type ProductReviews struct {
	Product *entity.Product
	Reviews []entity.Review
}

type CreateProductInput struct {
	Title              string                 `json:"title" validate:"required,max=200"`
	Price              float64                `json:"price" validate:"gte=0"`
	DiscountPercentage float64                `json:"discountPercentage" validate:"gte=0,lte=100"`
	Stock              *int                   `json:"stock" validate:"omitempty,gte=0"`
	Brand              string                 `json:"brand" validate:"max=100"`
	Type               string                 `json:"type" validate:"required,max=100"`
	Condition          string                 `json:"condition" validate:"required,oneof=New Used"`
	UsedDuration       string                 `json:"usedDuration" validate:"max=100"`
	DynamicValues      map[string]interface{} `json:"dynamicValues"`
	Description        string                 `json:"description" validate:"max=5000"`
	ImageURL           string                 `json:"imageUrl" validate:"omitempty,url"`
}

func (uc *ProductUseCase) ListProducts(ctx context.Context, filter ProductFilter, limit, offset int) ([]*entity.Product, int64, error) {
	return uc.productRepo.List(ctx, filter.toMap(), limit, offset)
}

func (uc *ProductUseCase) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	return uc.productRepo.GetByID(ctx, id)
}

// GetProductWithReviews loads a product and its current reviews. A failed
// review read degrades to an empty list.
func (uc *ProductUseCase) GetProductWithReviews(ctx context.Context, id string) (*ProductReviews, error) {
	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ProductReviews{
		Product: product,
		Reviews: uc.reviewsOrEmpty(ctx, id),
	}, nil
}

// ListProductCards lists a page of products and reads every product's
// reviews concurrently.
func (uc *ProductUseCase) ListProductCards(ctx context.Context, filter ProductFilter, limit, offset int) ([]ProductReviews, int64, error) {
	products, total, err := uc.productRepo.List(ctx, filter.toMap(), limit, offset)
	if err != nil {
		return nil, 0, err
	}

	cards := make([]ProductReviews, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cardFanOut)

	for i, product := range products {
		i, product := i, product
		g.Go(func() error {
			cards[i] = ProductReviews{
				Product: product,
				Reviews: uc.reviewsOrEmpty(gctx, product.ID),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

func (uc *ProductUseCase) CreateProduct(ctx context.Context, session *entity.UserSession, input CreateProductInput) (*entity.Product, error) {
	if session == nil {
		return nil, errors.Unauthenticated("not authenticated")
	}
	if !session.IsSeller {
		return nil, errors.Forbidden("Only sellers can list products", nil)
	}

	product := &entity.Product{
		SellerID:           session.UID,
		Title:              strings.TrimSpace(input.Title),
		Price:              input.Price,
		DiscountPercentage: input.DiscountPercentage,
		Stock:              input.Stock,
		Brand:              input.Brand,
		Type:               input.Type,
		Condition:          input.Condition,
		DynamicValues:      input.DynamicValues,
		Description:        input.Description,
		ImageURL:           input.ImageURL,
	}
	if input.Condition == entity.ConditionUsed {
		product.UsedDuration = input.UsedDuration
	}

	if err := uc.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	logger.Info("Product %s listed by seller %s", product.ID, session.UID)
	return product, nil
}

// UploadProductImage stores an image and returns its public URL.
func (uc *ProductUseCase) UploadProductImage(ctx context.Context, session *entity.UserSession, file io.Reader, contentType string) (string, error) {
	if session == nil {
		return "", errors.Unauthenticated("not authenticated")
	}
	if !session.IsSeller {
		return "", errors.Forbidden("Only sellers can upload product images", nil)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", errors.Validation("file must be an image")
	}
	if uc.storage == nil {
		return "", errors.New("STORAGE_UNAVAILABLE", "Image storage is not configured", http.StatusServiceUnavailable, nil)
	}

	url, err := uc.storage.UploadFile(ctx, file, contentType, "products/"+session.UID)
	if err != nil {
		return "", errors.Store("Failed to upload image", err)
	}
	return url, nil
}

func (uc *ProductUseCase) reviewsOrEmpty(ctx context.Context, productID string) []entity.Review {
	reviews, err := uc.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		logger.Warn("Reviews for product %s unavailable: %v", productID, err)
		return []entity.Review{}
	}
	return reviews
}

package transport

import (
	"net/http"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// VariantAxisRequest is one variant axis in a request body
type VariantAxisRequest struct {
	Name   string   `json:"name" validate:"required"`
	Values []string `json:"values" validate:"required,min=1,dive,required"`
}

// CreateProductRequest represents the product creation payload. Presence rules that
// depend on status and type are enforced by the catalog engine, not by tags.
type CreateProductRequest struct {
	Title         string               `json:"title" validate:"max=255"`
	Description   string               `json:"description"`
	Type          string               `json:"type" validate:"omitempty,oneof=physical digital"`
	Status        string               `json:"status" validate:"omitempty,oneof=draft published"`
	CollectionID  *string              `json:"collection_id"`
	ShippingModel *string              `json:"shipping_model" validate:"omitempty,max=100"`
	FileURL       *string              `json:"file_url" validate:"omitempty,url,max=1000"`
	Variants      []VariantAxisRequest `json:"variants" validate:"dive"`
}

// UpdateProductRequest represents a partial product update; omitted fields are unchanged
type UpdateProductRequest struct {
	Title         *string               `json:"title" validate:"omitempty,max=255"`
	Description   *string               `json:"description"`
	Type          *string               `json:"type" validate:"omitempty,oneof=physical digital"`
	Status        *string               `json:"status" validate:"omitempty,oneof=draft published"`
	CollectionID  *string               `json:"collection_id"`
	ShippingModel *string               `json:"shipping_model" validate:"omitempty,max=100"`
	FileURL       *string               `json:"file_url" validate:"omitempty,url,max=1000"`
	Variants      *[]VariantAxisRequest `json:"variants" validate:"omitempty,dive"`
}

// SKUPatchRequest targets the SKU whose combination equals VariantCombination
type SKUPatchRequest struct {
	VariantCombination map[string]string  `json:"variant_combination" validate:"required"`
	Price              *decimal.Decimal   `json:"price"`
	Quantity           *int               `json:"quantity"`
	Dimensions         *domain.Dimensions `json:"dimensions"`
}

// UpdateSKUsRequest represents the SKU update payload
type UpdateSKUsRequest struct {
	SKUs []SKUPatchRequest `json:"skus" validate:"required,min=1,dive"`
}

// ProductHandler handles HTTP requests for the product lifecycle
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes. Mutations run behind auth and the rate limiter.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, rateLimit func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			if rateLimit != nil {
				r.Use(rateLimit)
			}
			r.Post("/", h.CreateProduct)
			r.Patch("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
			r.Patch("/{id}/skus", h.UpdateSKUs)
		})
	})
}

// CreateProduct handles product creation
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Create product request rejected", zap.Error(err))
		middleware.RespondWithBindError(w, err)
		return
	}

	candidate, err := req.toCandidate()
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	product, err := h.productService.Create(r.Context(), candidate, ownerID)
	if err != nil {
		h.logger.Debug("Create product failed", zap.Error(err))
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// GetProduct returns a product with its SKUs
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseID("product", chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// UpdateProduct handles partial product updates
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseID("product", chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Update product request rejected", zap.Error(err))
		middleware.RespondWithBindError(w, err)
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	product, err := h.productService.Update(r.Context(), id, patch, ownerID)
	if err != nil {
		h.logger.Debug("Update product failed", zap.String("product_id", id.String()), zap.Error(err))
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product and its SKUs
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseID("product", chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	if err := h.productService.Remove(r.Context(), id, ownerID); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateSKUs applies price, quantity and dimension changes to existing SKUs
func (h *ProductHandler) UpdateSKUs(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseID("product", chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	var req UpdateSKUsRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithBindError(w, err)
		return
	}

	patches := make([]domain.SKUPatch, len(req.SKUs))
	for i, p := range req.SKUs {
		patches[i] = domain.SKUPatch{
			Combination: domain.VariantCombination(p.VariantCombination),
			Price:       p.Price,
			Quantity:    p.Quantity,
			Dimensions:  p.Dimensions,
		}
	}

	product, err := h.productService.UpdateSKUs(r.Context(), id, patches, ownerID)
	if err != nil {
		h.logger.Debug("Update SKUs failed", zap.String("product_id", id.String()), zap.Error(err))
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// requireUser returns the authenticated caller or writes a 401
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "authentication required")
	}
	return userID, ok
}

func toVariants(axes []VariantAxisRequest) domain.Variants {
	variants := make(domain.Variants, len(axes))
	for i, axis := range axes {
		variants[i] = domain.VariantAxis{Name: axis.Name, Values: axis.Values}
	}
	return variants
}

func parseOptionalID(entity string, raw *string) (*uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := domain.ParseID(entity, *raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (req CreateProductRequest) toCandidate() (*domain.Product, error) {
	collectionID, err := parseOptionalID("collection", req.CollectionID)
	if err != nil {
		return nil, err
	}

	candidate := &domain.Product{
		Title:        req.Title,
		Description:  req.Description,
		Status:       domain.ProductStatus(req.Status),
		CollectionID: collectionID,
		Variants:     toVariants(req.Variants),
	}

	// A missing type is reported by the catalog engine
	if req.Type != "" {
		details, err := domain.NewTypeDetails(domain.ProductType(req.Type), req.ShippingModel, req.FileURL)
		if err != nil {
			return nil, err
		}
		candidate.Details = details
	}

	return candidate, nil
}

func (req UpdateProductRequest) toPatch() (domain.ProductPatch, error) {
	patch := domain.ProductPatch{
		Title:         req.Title,
		Description:   req.Description,
		ShippingModel: req.ShippingModel,
		FileURL:       req.FileURL,
	}

	if req.Status != nil {
		status, err := domain.ParseProductStatus(*req.Status)
		if err != nil {
			return patch, err
		}
		patch.Status = &status
	}
	if req.Type != nil {
		productType, err := domain.ParseProductType(*req.Type)
		if err != nil {
			return patch, err
		}
		patch.Type = &productType
	}

	collectionID, err := parseOptionalID("collection", req.CollectionID)
	if err != nil {
		return patch, err
	}
	patch.CollectionID = collectionID

	if req.Variants != nil {
		variants := toVariants(*req.Variants)
		patch.Variants = &variants
	}

	return patch, nil
}

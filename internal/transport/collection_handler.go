package transport

import (
	"net/http"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateCollectionRequest represents the collection creation payload
type CreateCollectionRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"omitempty,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Active      *bool  `json:"active"`
}

// SetActiveRequest toggles whether products may be published into a collection
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// CollectionHandler handles HTTP requests for collections
type CollectionHandler struct {
	collectionService service.CollectionService
	logger            *zap.Logger
}

// NewCollectionHandler creates a new CollectionHandler
func NewCollectionHandler(collectionService service.CollectionService, logger *zap.Logger) *CollectionHandler {
	return &CollectionHandler{
		collectionService: collectionService,
		logger:            logger,
	}
}

// RegisterRoutes registers collection routes. Reads are public, mutations are admin only.
func (h *CollectionHandler) RegisterRoutes(r chi.Router, authMiddleware, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/api/collections", func(r chi.Router) {
		r.Get("/", h.ListCollections)
		r.Get("/{id}", h.GetCollection)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(requireAdmin)
			r.Post("/", h.CreateCollection)
			r.Patch("/{id}/active", h.SetActive)
			r.Delete("/{id}", h.DeleteCollection)
		})
	})
}

func (h *CollectionHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateCollectionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithBindError(w, err)
		return
	}

	input := service.CreateCollectionInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Active:      req.Active == nil || *req.Active,
	}

	collection, err := h.collectionService.Create(r.Context(), input, ownerID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("Collection created", zap.String("collection_id", collection.ID.String()), zap.String("slug", collection.Slug))
	middleware.RespondWithJSON(w, http.StatusCreated, collection)
}

func (h *CollectionHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.collectionService.List(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, collections)
}

func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseID("collection", chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	collection, err := h.collectionService.Get(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, collection)
}

// SetActive activates or deactivates a collection
func (h *CollectionHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseID("collection", chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	var req SetActiveRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithBindError(w, err)
		return
	}

	collection, err := h.collectionService.SetActive(r.Context(), id, *req.Active)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, collection)
}

func (h *CollectionHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseID("collection", chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	if err := h.collectionService.Delete(r.Context(), id); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package transport

import (
	"errors"
	"net/http"

	"serene/internal/catalog"
	"serene/internal/domain"
	"serene/internal/middleware"
	"serene/internal/repository"
	"serene/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UpsertProfileRequest carries skin profile fields. Absent fields leave the
// stored values untouched.
type UpsertProfileRequest struct {
	SkinType    string             `json:"skinType" validate:"omitempty"`
	Concerns    []string           `json:"concerns" validate:"omitempty"`
	QuizAnswers []ProfileAnswerDTO `json:"quizAnswers" validate:"omitempty,dive"`
}

// ProfileAnswerDTO is a raw quiz answer kept on the profile for reference
type ProfileAnswerDTO struct {
	QuestionID     int    `json:"questionId" validate:"required,min=1"`
	SelectedOption string `json:"selectedOption" validate:"required"`
}

// SelectProductRequest pins a catalog product into the user's routine
type SelectProductRequest struct {
	Category  string `json:"category" validate:"required"`
	ProductID string `json:"productId" validate:"required"`
	DayTime   string `json:"dayTime" validate:"omitempty,oneof=AM PM Both"`
}

// RemoveProductRequest clears a selection slot
type RemoveProductRequest struct {
	Category string `json:"category" validate:"required"`
	DayTime  string `json:"dayTime" validate:"omitempty,oneof=AM PM Both"`
}

// ProfileHandler handles HTTP requests for skin profile operations
type ProfileHandler struct {
	profiles service.ProfileService
	logger   *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profiles service.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// RegisterRoutes registers all profile routes; every route requires auth
func (h *ProfileHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/profile", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.Get)
		r.Post("/", h.Upsert)
		r.Get("/selected-products", h.SelectedProducts)
		r.Post("/select-product", h.SelectProduct)
		r.Post("/remove-product", h.RemoveProduct)
	})
}

// Get returns the authenticated user's skin profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		h.respondProfileError(w, err, "failed to get profile")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]*domain.Profile{"profile": profile})
}

// Upsert creates the profile on first save and merges on later saves
func (h *ProfileHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpsertProfileRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// A field left out of the payload stays nil and the merge keeps the
	// stored value; an explicit empty array clears it.
	update := service.ProfileUpdate{SkinType: domain.SkinType(req.SkinType)}
	if req.Concerns != nil {
		update.Concerns = make([]domain.Concern, 0, len(req.Concerns))
		for _, c := range req.Concerns {
			update.Concerns = append(update.Concerns, domain.Concern(c))
		}
	}
	if req.QuizAnswers != nil {
		update.QuizAnswers = make([]domain.QuizAnswer, 0, len(req.QuizAnswers))
		for _, a := range req.QuizAnswers {
			update.QuizAnswers = append(update.QuizAnswers, domain.QuizAnswer{
				QuestionID:     a.QuestionID,
				SelectedOption: a.SelectedOption,
			})
		}
	}

	profile, err := h.profiles.Upsert(r.Context(), userID, update)
	if err != nil {
		h.respondProfileError(w, err, "failed to save profile")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile saved",
		"profile": profile,
	})
}

// SelectedProducts returns the chosen products only
func (h *ProfileHandler) SelectedProducts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	selections, err := h.profiles.SelectedProducts(r.Context(), userID)
	if err != nil {
		h.respondProfileError(w, err, "failed to get selected products")
		return
	}
	if selections == nil {
		selections = []domain.ProductSelection{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count":            len(selections),
		"selectedProducts": selections,
	})
}

// SelectProduct records a product choice, replacing any previous choice for
// the same category and time slot.
func (h *ProfileHandler) SelectProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SelectProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.profiles.SelectProduct(r.Context(), userID, domain.Category(req.Category), req.ProductID, domain.DayTime(req.DayTime))
	if err != nil {
		h.respondProfileError(w, err, "failed to select product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":          "Product selected",
		"selectedProducts": profile.SelectedProducts,
	})
}

// RemoveProduct clears a selection slot; removing an empty slot succeeds
func (h *ProfileHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RemoveProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.profiles.RemoveProduct(r.Context(), userID, domain.Category(req.Category), domain.DayTime(req.DayTime))
	if err != nil {
		h.respondProfileError(w, err, "failed to remove product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":          "Product removed",
		"selectedProducts": profile.SelectedProducts,
	})
}

func (h *ProfileHandler) respondProfileError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrProfileNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "Profile not found")
	case errors.Is(err, service.ErrInvalidSkinType),
		errors.Is(err, service.ErrInvalidConcern),
		errors.Is(err, service.ErrInvalidSelection),
		errors.Is(err, service.ErrUnknownProduct),
		errors.Is(err, catalog.ErrInvalidCategory),
		errors.Is(err, catalog.ErrInvalidDayTime):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

package transport

import (
	"errors"
	"net/http"

	"serene/internal/catalog"
	"serene/internal/domain"
	"serene/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SubmitQuizRequest represents a completed skin assessment
type SubmitQuizRequest struct {
	Answers []QuizAnswerDTO `json:"answers" validate:"required,dive"`
}

// QuizAnswerDTO is a single answered question
type QuizAnswerDTO struct {
	QuestionID int    `json:"questionId" validate:"required,min=1"`
	SkinType   string `json:"skinType" validate:"required"`
}

// QuizResponse is the questionnaire as handed to clients. Result cards stay
// server-side until the quiz is submitted.
type QuizResponse struct {
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Questions      []domain.QuizQuestion `json:"questions"`
	TotalQuestions int                   `json:"totalQuestions"`
}

// CatalogHandler serves the static product, routine and quiz catalog
type CatalogHandler struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(c *catalog.Catalog, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, logger: logger}
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/category/{category}", h.ProductsByCategory)
		r.Get("/skin-type/{skinType}", h.ProductsBySkinType)
		r.Get("/recommend/{skinType}/{category}", h.Recommendations)
		r.Get("/recommend/{skinType}/{category}/{dayTime}", h.Recommendations)
		r.Get("/{id}", h.GetProduct)
	})

	r.Route("/api/routines", func(r chi.Router) {
		r.Get("/", h.ListRoutines)
		r.Get("/{skinType}", h.RoutinesBySkinType)
	})

	r.Route("/api/quiz", func(r chi.Router) {
		r.Get("/", h.GetQuiz)
		r.Post("/submit", h.SubmitQuiz)
	})
}

// ListProducts returns every product in the catalog
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.catalog.AllProducts()
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(products),
		"products": products,
	})
}

// GetProduct returns a single product by its catalog ID
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, ok := h.catalog.ProductByID(id)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"product": product})
}

// ProductsByCategory returns products of one category
func (h *CatalogHandler) ProductsByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	products, err := h.catalog.ProductsByCategory(domain.Category(category))
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(products),
		"products": products,
	})
}

// ProductsBySkinType returns products suitable for one skin type
func (h *CatalogHandler) ProductsBySkinType(w http.ResponseWriter, r *http.Request) {
	skinType := chi.URLParam(r, "skinType")

	products, err := h.catalog.ProductsBySkinType(domain.SkinType(skinType))
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(products),
		"products": products,
	})
}

// Recommendations returns products matching a skin type and category,
// optionally narrowed to a time of day.
func (h *CatalogHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	skinType := chi.URLParam(r, "skinType")
	category := chi.URLParam(r, "category")
	dayTime := chi.URLParam(r, "dayTime")

	products, err := h.catalog.Recommend(domain.SkinType(skinType), domain.Category(category), domain.DayTime(dayTime))
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(products),
		"products": products,
	})
}

// ListRoutines returns every routine
func (h *CatalogHandler) ListRoutines(w http.ResponseWriter, r *http.Request) {
	routines := h.catalog.AllRoutines()
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(routines),
		"routines": routines,
	})
}

// RoutinesBySkinType returns the AM and PM routines for one skin type
func (h *CatalogHandler) RoutinesBySkinType(w http.ResponseWriter, r *http.Request) {
	skinType := chi.URLParam(r, "skinType")

	routines, err := h.catalog.RoutinesBySkinType(domain.SkinType(skinType))
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(routines),
		"routines": routines,
	})
}

// GetQuiz returns the skin assessment questionnaire
func (h *CatalogHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz := h.catalog.Quiz()
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"quiz": QuizResponse{
			Title:          quiz.Title,
			Description:    quiz.Description,
			Questions:      quiz.Questions,
			TotalQuestions: len(quiz.Questions),
		},
	})
}

// SubmitQuiz tallies submitted answers and returns the winning skin type with
// its result card.
func (h *CatalogHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req SubmitQuizRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answers := make([]catalog.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, catalog.Answer{
			QuestionID: a.QuestionID,
			SkinType:   domain.SkinType(a.SkinType),
		})
	}

	outcome, err := h.catalog.Score(answers)
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"skinType": outcome.SkinType,
		"result":   outcome.Result,
	})
}

func (h *CatalogHandler) respondCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidCategory),
		errors.Is(err, catalog.ErrInvalidSkinType),
		errors.Is(err, catalog.ErrInvalidDayTime),
		errors.Is(err, catalog.ErrBadSubmission):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Catalog query failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to query catalog")
	}
}

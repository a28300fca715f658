package service

import (
	"context"
	"errors"
	"fmt"

	"serene/internal/catalog"
	"serene/internal/domain"
	"serene/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidSkinType  = errors.New("invalid skin type")
	ErrInvalidConcern   = errors.New("invalid concern")
	ErrInvalidSelection = errors.New("category and productId are required")
	ErrUnknownProduct   = errors.New("product not found in catalog")
)

// ProfileUpdate carries the fields of an upsert request. Nil/empty fields are
// left untouched on an existing profile.
type ProfileUpdate struct {
	SkinType    domain.SkinType
	Concerns    []domain.Concern
	QuizAnswers []domain.QuizAnswer
}

// ProfileService defines the interface for profile business logic
type ProfileService interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*domain.Profile, error)
	Upsert(ctx context.Context, userID primitive.ObjectID, update ProfileUpdate) (*domain.Profile, error)
	SelectProduct(ctx context.Context, userID primitive.ObjectID, category domain.Category, productID string, dayTime domain.DayTime) (*domain.Profile, error)
	RemoveProduct(ctx context.Context, userID primitive.ObjectID, category domain.Category, dayTime domain.DayTime) (*domain.Profile, error)
	SelectedProducts(ctx context.Context, userID primitive.ObjectID) ([]domain.ProductSelection, error)
}

type profileService struct {
	profileRepo repository.ProfileRepository
	catalog     *catalog.Catalog
}

// NewProfileService creates a new instance of ProfileService
func NewProfileService(profileRepo repository.ProfileRepository, cat *catalog.Catalog) ProfileService {
	return &profileService{profileRepo: profileRepo, catalog: cat}
}

func (s *profileService) Get(ctx context.Context, userID primitive.ObjectID) (*domain.Profile, error) {
	return s.profileRepo.FindByUserID(ctx, userID)
}

// Upsert creates the profile on first call, otherwise merges only the fields
// supplied and preserves everything else, selections included.
func (s *profileService) Upsert(ctx context.Context, userID primitive.ObjectID, update ProfileUpdate) (*domain.Profile, error) {
	if update.SkinType != "" && !update.SkinType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSkinType, update.SkinType)
	}
	for _, c := range update.Concerns {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidConcern, c)
		}
	}

	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		profile = &domain.Profile{
			UserID:           userID,
			SkinType:         update.SkinType,
			Concerns:         update.Concerns,
			QuizAnswers:      update.QuizAnswers,
			SelectedProducts: []domain.ProductSelection{},
		}
		if profile.Concerns == nil {
			profile.Concerns = []domain.Concern{}
		}
		if profile.QuizAnswers == nil {
			profile.QuizAnswers = []domain.QuizAnswer{}
		}
		if err := s.profileRepo.Create(ctx, profile); err != nil {
			return nil, err
		}
		return profile, nil
	}
	if err != nil {
		return nil, err
	}

	if update.SkinType != "" {
		profile.SkinType = update.SkinType
	}
	if update.Concerns != nil {
		profile.Concerns = update.Concerns
	}
	if update.QuizAnswers != nil {
		profile.QuizAnswers = update.QuizAnswers
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// SelectProduct stores a product pick for a (category, dayTime) slot. Any
// prior selection for the same slot is dropped before the new one is
// appended, which keeps the one-selection-per-slot invariant.
func (s *profileService) SelectProduct(ctx context.Context, userID primitive.ObjectID, category domain.Category, productID string, dayTime domain.DayTime) (*domain.Profile, error) {
	if category == "" || productID == "" {
		return nil, ErrInvalidSelection
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", catalog.ErrInvalidCategory, category)
	}
	if dayTime == "" {
		dayTime = domain.DayTimeBoth
	}
	if !dayTime.ValidForSelection() {
		return nil, fmt.Errorf("%w: %q", catalog.ErrInvalidDayTime, dayTime)
	}
	if _, ok := s.catalog.ProductByID(productID); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProduct, productID)
	}

	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.SelectedProducts = removeSelection(profile.SelectedProducts, category, dayTime)
	profile.SelectedProducts = append(profile.SelectedProducts, domain.ProductSelection{
		Category:  category,
		ProductID: productID,
		DayTime:   dayTime,
	})

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// RemoveProduct drops the selection for a slot. Removing a slot that holds
// nothing is not an error.
func (s *profileService) RemoveProduct(ctx context.Context, userID primitive.ObjectID, category domain.Category, dayTime domain.DayTime) (*domain.Profile, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", catalog.ErrInvalidCategory, category)
	}
	if dayTime == "" {
		dayTime = domain.DayTimeBoth
	}
	if !dayTime.ValidForSelection() {
		return nil, fmt.Errorf("%w: %q", catalog.ErrInvalidDayTime, dayTime)
	}

	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.SelectedProducts = removeSelection(profile.SelectedProducts, category, dayTime)

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *profileService) SelectedProducts(ctx context.Context, userID primitive.ObjectID) ([]domain.ProductSelection, error) {
	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profile.SelectedProducts, nil
}

func removeSelection(selections []domain.ProductSelection, category domain.Category, dayTime domain.DayTime) []domain.ProductSelection {
	out := selections[:0]
	for _, sel := range selections {
		if sel.Category == category && sel.DayTime == dayTime {
			continue
		}
		out = append(out, sel)
	}
	return out
}

package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"serene/internal/domain"
)

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidSkinType = errors.New("invalid skin type")
	ErrInvalidDayTime  = errors.New("invalid day time")
)

// product data files, one per category, merged in this order so that query
// results keep a stable catalog order.
var productFiles = []string{
	"cleansers.json",
	"toners.json",
	"serums.json",
	"moisturizers.json",
	"sunscreens.json",
	"treatments.json",
}

// Catalog is the immutable product/routine/quiz data set, built once at
// process start. Query methods never mutate it, so it is safe to share
// across requests without locking.
type Catalog struct {
	products []domain.Product
	byID     map[string]*domain.Product
	routines []domain.Routine
	quiz     domain.Quiz
}

type productsFile struct {
	Products []domain.Product `json:"products"`
}

type routinesFile struct {
	Routines []domain.Routine `json:"routines"`
}

type quizFile struct {
	Quiz domain.Quiz `json:"quiz"`
}

// Load reads the static catalog from dataDir. It fails on unreadable files,
// malformed JSON, or records carrying unknown enum values, so a bad data set
// is caught at startup rather than at query time.
func Load(dataDir string) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*domain.Product)}

	for _, name := range productFiles {
		path := filepath.Join(dataDir, "products", name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read product data %s: %w", name, err)
		}
		var pf productsFile
		if err := json.Unmarshal(raw, &pf); err != nil {
			return nil, fmt.Errorf("failed to parse product data %s: %w", name, err)
		}
		for _, p := range pf.Products {
			if err := validateProduct(&p); err != nil {
				return nil, fmt.Errorf("invalid product %q in %s: %w", p.ID, name, err)
			}
			c.products = append(c.products, p)
		}
	}
	for i := range c.products {
		c.byID[c.products[i].ID] = &c.products[i]
	}

	raw, err := os.ReadFile(filepath.Join(dataDir, "routines.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read routine data: %w", err)
	}
	var rf routinesFile
	if err := json.Unmarshal(raw, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse routine data: %w", err)
	}
	for _, r := range rf.Routines {
		if err := validateRoutine(&r); err != nil {
			return nil, fmt.Errorf("invalid routine %q: %w", r.RoutineID, err)
		}
	}
	c.routines = rf.Routines

	raw, err = os.ReadFile(filepath.Join(dataDir, "skin-assessment-questions.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read quiz data: %w", err)
	}
	var qf quizFile
	if err := json.Unmarshal(raw, &qf); err != nil {
		return nil, fmt.Errorf("failed to parse quiz data: %w", err)
	}
	if err := validateQuiz(&qf.Quiz); err != nil {
		return nil, fmt.Errorf("invalid quiz data: %w", err)
	}
	c.quiz = qf.Quiz

	return c, nil
}

func validateProduct(p *domain.Product) error {
	if p.ID == "" {
		return errors.New("missing id")
	}
	if !p.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, p.Category)
	}
	if len(p.SuitableFor) == 0 {
		return errors.New("empty suitableFor")
	}
	for _, s := range p.SuitableFor {
		if !s.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidSkinType, s)
		}
	}
	for _, c := range p.TargetConcerns {
		if !c.Valid() {
			return fmt.Errorf("unknown concern %q", c)
		}
	}
	for _, d := range p.DayTime {
		if !d.ValidForCatalog() {
			return fmt.Errorf("%w: %q", ErrInvalidDayTime, d)
		}
	}
	return nil
}

func validateRoutine(r *domain.Routine) error {
	if r.RoutineID == "" {
		return errors.New("missing routineId")
	}
	if !r.SkinType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSkinType, r.SkinType)
	}
	if !r.TimeOfDay.ValidForCatalog() {
		return fmt.Errorf("%w: %q", ErrInvalidDayTime, r.TimeOfDay)
	}
	if len(r.Steps) == 0 {
		return errors.New("empty steps")
	}
	seen := make(map[int]bool, len(r.Steps))
	for _, s := range r.Steps {
		if !s.Category.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidCategory, s.Category)
		}
		if seen[s.Order] {
			return fmt.Errorf("duplicate step order %d", s.Order)
		}
		seen[s.Order] = true
	}
	return nil
}

func validateQuiz(q *domain.Quiz) error {
	if len(q.Questions) != QuizLength {
		return fmt.Errorf("expected %d questions, got %d", QuizLength, len(q.Questions))
	}
	for _, question := range q.Questions {
		if len(question.Options) == 0 {
			return fmt.Errorf("question %d has no options", question.ID)
		}
		for _, opt := range question.Options {
			if !opt.SkinType.Valid() {
				return fmt.Errorf("question %d: %w: %q", question.ID, ErrInvalidSkinType, opt.SkinType)
			}
		}
	}
	for _, s := range domain.AllSkinTypes {
		if _, ok := q.Results[s]; !ok {
			return fmt.Errorf("missing result copy for skin type %q", s)
		}
	}
	return nil
}

// Quiz returns the full assessment data.
func (c *Catalog) Quiz() domain.Quiz {
	return c.quiz
}

// AllProducts returns every product in catalog order.
func (c *Catalog) AllProducts() []domain.Product {
	return c.products
}

// ProductByID looks up a product by its stable id.
func (c *Catalog) ProductByID(id string) (*domain.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// ProductsByCategory returns products in the given category, preserving
// catalog order. An unknown category is a validation error; a known category
// with no products yields an empty slice.
func (c *Catalog) ProductsByCategory(category domain.Category) ([]domain.Product, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	out := []domain.Product{}
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

// ProductsBySkinType returns products whose suitableFor set contains the
// given skin type.
func (c *Catalog) ProductsBySkinType(skinType domain.SkinType) ([]domain.Product, error) {
	if !skinType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSkinType, skinType)
	}
	out := []domain.Product{}
	for _, p := range c.products {
		if p.SuitsSkinType(skinType) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Recommend returns products matching both a skin type and a category,
// optionally narrowed to a time of day. dayTime == "" means any time.
func (c *Catalog) Recommend(skinType domain.SkinType, category domain.Category, dayTime domain.DayTime) ([]domain.Product, error) {
	if !skinType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSkinType, skinType)
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if dayTime != "" && !dayTime.ValidForCatalog() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDayTime, dayTime)
	}
	out := []domain.Product{}
	for _, p := range c.products {
		if p.Category != category || !p.SuitsSkinType(skinType) {
			continue
		}
		if dayTime != "" && !p.AppliesAt(dayTime) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// AllRoutines returns every routine in catalog order.
func (c *Catalog) AllRoutines() []domain.Routine {
	return c.routines
}

// RoutinesBySkinType returns the routines for one skin type.
func (c *Catalog) RoutinesBySkinType(skinType domain.SkinType) ([]domain.Routine, error) {
	if !skinType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSkinType, skinType)
	}
	out := []domain.Routine{}
	for _, r := range c.routines {
		if r.SkinType == skinType {
			out = append(out, r)
		}
	}
	return out, nil
}

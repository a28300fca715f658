package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"serene/internal/domain"
)

func TestDataFilesExist(t *testing.T) {
	dataDir := "../../data"

	expected := []string{
		"routines.json",
		"skin-assessment-questions.json",
	}
	for _, name := range productFiles {
		expected = append(expected, filepath.Join("products", name))
	}

	for _, name := range expected {
		if _, err := os.Stat(filepath.Join(dataDir, name)); os.IsNotExist(err) {
			t.Errorf("Data file %s does not exist", name)
		}
	}
}

func TestLoad(t *testing.T) {
	c := loadTestCatalog(t)

	if len(c.AllProducts()) == 0 {
		t.Fatal("Expected products in the catalog")
	}
	if len(c.AllRoutines()) == 0 {
		t.Fatal("Expected routines in the catalog")
	}

	quiz := c.Quiz()
	if len(quiz.Questions) != QuizLength {
		t.Errorf("Expected %d quiz questions, got %d", QuizLength, len(quiz.Questions))
	}
	for _, s := range domain.AllSkinTypes {
		if _, ok := quiz.Results[s]; !ok {
			t.Errorf("Missing quiz result copy for skin type %q", s)
		}
	}
}

func TestLoad_MissingDir(t *testing.T) {
	if _, err := Load("testdata/does-not-exist"); err == nil {
		t.Fatal("Expected error for missing data dir")
	}
}

func TestProductByID(t *testing.T) {
	c := loadTestCatalog(t)

	first := c.AllProducts()[0]
	p, ok := c.ProductByID(first.ID)
	if !ok {
		t.Fatalf("ProductByID(%q) not found", first.ID)
	}
	if p.Name != first.Name {
		t.Errorf("ProductByID returned wrong product: %q", p.Name)
	}

	if _, ok := c.ProductByID("no-such-product"); ok {
		t.Error("Expected lookup miss for unknown id")
	}
}

func TestProductsByCategory(t *testing.T) {
	c := loadTestCatalog(t)

	products, err := c.ProductsByCategory(domain.CategoryCleanser)
	if err != nil {
		t.Fatalf("ProductsByCategory failed: %v", err)
	}
	if len(products) == 0 {
		t.Fatal("Expected cleansers in the catalog")
	}
	for _, p := range products {
		if p.Category != domain.CategoryCleanser {
			t.Errorf("Product %q has category %q", p.ID, p.Category)
		}
	}

	// Unknown category is a validation error, not an empty result
	if _, err := c.ProductsByCategory("shampoo"); !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("Expected ErrInvalidCategory for shampoo, got %v", err)
	}
}

func TestProductsBySkinType(t *testing.T) {
	c := loadTestCatalog(t)

	products, err := c.ProductsBySkinType(domain.SkinTypeOily)
	if err != nil {
		t.Fatalf("ProductsBySkinType failed: %v", err)
	}
	for _, p := range products {
		if !p.SuitsSkinType(domain.SkinTypeOily) {
			t.Errorf("Product %q does not suit oily skin", p.ID)
		}
	}

	if _, err := c.ProductsBySkinType("greasy"); !errors.Is(err, ErrInvalidSkinType) {
		t.Errorf("Expected ErrInvalidSkinType, got %v", err)
	}
}

func TestRecommend(t *testing.T) {
	c := loadTestCatalog(t)

	products, err := c.Recommend(domain.SkinTypeDry, domain.CategoryMoisturizer, "")
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	for _, p := range products {
		if p.Category != domain.CategoryMoisturizer || !p.SuitsSkinType(domain.SkinTypeDry) {
			t.Errorf("Product %q does not match the filters", p.ID)
		}
	}

	am, err := c.Recommend(domain.SkinTypeOily, domain.CategorySerum, domain.DayTimeAM)
	if err != nil {
		t.Fatalf("Recommend with dayTime failed: %v", err)
	}
	for _, p := range am {
		if !p.AppliesAt(domain.DayTimeAM) {
			t.Errorf("Product %q not applicable in the morning", p.ID)
		}
	}

	// Empty result is a success, not an error
	all, _ := c.Recommend(domain.SkinTypeSensitive, domain.CategoryTreatment, domain.DayTimeAM)
	if all == nil {
		t.Error("Expected empty non-nil slice for no matches")
	}

	if _, err := c.Recommend(domain.SkinTypeOily, domain.CategorySerum, "Midnight"); !errors.Is(err, ErrInvalidDayTime) {
		t.Errorf("Expected ErrInvalidDayTime, got %v", err)
	}
}

func TestRoutinesBySkinType(t *testing.T) {
	c := loadTestCatalog(t)

	routines, err := c.RoutinesBySkinType(domain.SkinTypeCombination)
	if err != nil {
		t.Fatalf("RoutinesBySkinType failed: %v", err)
	}
	if len(routines) == 0 {
		t.Fatal("Expected routines for combination skin")
	}

	var am, pm bool
	for _, r := range routines {
		if r.SkinType != domain.SkinTypeCombination {
			t.Errorf("Routine %q has skin type %q", r.RoutineID, r.SkinType)
		}
		switch r.TimeOfDay {
		case domain.DayTimeAM:
			am = true
		case domain.DayTimePM:
			pm = true
		}
	}
	if !am || !pm {
		t.Error("Expected both an AM and a PM routine")
	}

	if _, err := c.RoutinesBySkinType("greasy"); !errors.Is(err, ErrInvalidSkinType) {
		t.Errorf("Expected ErrInvalidSkinType, got %v", err)
	}
}

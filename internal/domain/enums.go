package domain

// SkinType classifies general skin behavior. The declaration order of
// AllSkinTypes is the tie-break order for quiz scoring.
type SkinType string

const (
	SkinTypeOily        SkinType = "oily"
	SkinTypeDry         SkinType = "dry"
	SkinTypeCombination SkinType = "combination"
	SkinTypeSensitive   SkinType = "sensitive"
	SkinTypeNormal      SkinType = "normal"
)

// AllSkinTypes lists every skin type in declaration order.
var AllSkinTypes = []SkinType{
	SkinTypeOily,
	SkinTypeDry,
	SkinTypeCombination,
	SkinTypeSensitive,
	SkinTypeNormal,
}

// Valid reports whether s is one of the five known skin types.
func (s SkinType) Valid() bool {
	for _, t := range AllSkinTypes {
		if s == t {
			return true
		}
	}
	return false
}

// Category is a product category, which doubles as a routine step name.
type Category string

const (
	CategoryCleanser    Category = "cleanser"
	CategoryToner       Category = "toner"
	CategorySerum       Category = "serum"
	CategoryMoisturizer Category = "moisturizer"
	CategorySunscreen   Category = "sunscreen"
	CategoryTreatment   Category = "treatment"
)

// AllCategories lists every product category in catalog order.
var AllCategories = []Category{
	CategoryCleanser,
	CategoryToner,
	CategorySerum,
	CategoryMoisturizer,
	CategorySunscreen,
	CategoryTreatment,
}

// Valid reports whether c is a known product category.
func (c Category) Valid() bool {
	for _, v := range AllCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Concern is a specific skin issue a user wants addressed.
type Concern string

const (
	ConcernAcne          Concern = "acne"
	ConcernDryness       Concern = "dryness"
	ConcernOiliness      Concern = "oiliness"
	ConcernSensitivity   Concern = "sensitivity"
	ConcernRedness       Concern = "redness"
	ConcernUnevenTexture Concern = "uneven_texture"
	ConcernDullness      Concern = "dullness"
	ConcernLargePores    Concern = "large_pores"
	ConcernFineLines     Concern = "fine_lines"
	ConcernDarkSpots     Concern = "dark_spots"
)

// AllConcerns lists the ten supported concerns.
var AllConcerns = []Concern{
	ConcernAcne,
	ConcernDryness,
	ConcernOiliness,
	ConcernSensitivity,
	ConcernRedness,
	ConcernUnevenTexture,
	ConcernDullness,
	ConcernLargePores,
	ConcernFineLines,
	ConcernDarkSpots,
}

// Valid reports whether c is a known concern.
func (c Concern) Valid() bool {
	for _, v := range AllConcerns {
		if c == v {
			return true
		}
	}
	return false
}

// DayTime says when a routine or a product applies. Product selections use
// DayTimeBoth as their default slot.
type DayTime string

const (
	DayTimeAM    DayTime = "AM"
	DayTimePM    DayTime = "PM"
	DayTimeDaily DayTime = "Daily"
	DayTimeBoth  DayTime = "Both"
)

// ValidForCatalog reports whether d can appear on a product or routine.
func (d DayTime) ValidForCatalog() bool {
	return d == DayTimeAM || d == DayTimePM || d == DayTimeDaily
}

// ValidForSelection reports whether d can key a product selection.
func (d DayTime) ValidForSelection() bool {
	return d == DayTimeAM || d == DayTimePM || d == DayTimeBoth
}

// PriceRange is a coarse price tier for a product.
type PriceRange string

const (
	PriceBudget   PriceRange = "budget"
	PriceMidRange PriceRange = "mid-range"
	PricePremium  PriceRange = "premium"
)

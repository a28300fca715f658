package domain

// Product is a catalog entry. Products are loaded once at startup and never
// mutated afterwards.
type Product struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Brand          string     `json:"brand"`
	Category       Category   `json:"category"`
	SuitableFor    []SkinType `json:"suitableFor"`
	TargetConcerns []Concern  `json:"targetConcerns"`
	DayTime        []DayTime  `json:"dayTime"`
	PriceRange     PriceRange `json:"priceRange"`
	Description    string     `json:"description"`
	KeyIngredients []string   `json:"keyIngredients"`
	URL            string     `json:"url,omitempty"`
	AllIngredients string     `json:"allIngredients,omitempty"`
}

// SuitsSkinType reports whether the product serves the given skin type.
func (p *Product) SuitsSkinType(s SkinType) bool {
	for _, t := range p.SuitableFor {
		if t == s {
			return true
		}
	}
	return false
}

// AppliesAt reports whether the product can be used at the given time of day.
// A product marked Daily applies at any time.
func (p *Product) AppliesAt(d DayTime) bool {
	for _, t := range p.DayTime {
		if t == d || t == DayTimeDaily {
			return true
		}
	}
	return false
}

// RoutineStep names one category in a routine. Order is unique within a
// routine and defines the application sequence.
type RoutineStep struct {
	Order    int      `json:"order"`
	Category Category `json:"category"`
}

// Routine is an ordered sequence of product categories for one skin type and
// time of day.
type Routine struct {
	RoutineID   string        `json:"routineId"`
	Name        string        `json:"name"`
	SkinType    SkinType      `json:"skinType"`
	TimeOfDay   DayTime       `json:"timeOfDay"`
	Description string        `json:"description"`
	Steps       []RoutineStep `json:"steps"`
}

// QuizOption is one selectable answer; picking it votes for its skin type.
type QuizOption struct {
	Text     string   `json:"text"`
	SkinType SkinType `json:"skinType"`
}

// QuizQuestion is one of the seven assessment questions.
type QuizQuestion struct {
	ID       int          `json:"id"`
	Question string       `json:"question"`
	Options  []QuizOption `json:"options"`
}

// QuizResult is the static result copy shown for a skin type.
type QuizResult struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Recommendations []string `json:"recommendations"`
}

// Quiz is the full assessment: questions plus per-skin-type results.
type Quiz struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Questions   []QuizQuestion          `json:"questions"`
	Results     map[SkinType]QuizResult `json:"results"`
}

package types

import "time"

// Category is one of the six fixed report categories.
type Category string

// The fixed category taxonomy.
const (
	CategoryWeakAreas     Category = "weak_areas_improvement"
	CategoryInterviewPrep Category = "interview_preparation"
	CategorySkillDev      Category = "skill_development"
	CategoryPractice      Category = "practice_problems"
	CategoryTechTutorials Category = "technology_tutorials"
	CategoryGeneral       Category = "general_learning"
)

// Categories returns the fixed category set in canonical order.
func Categories() []Category {
	return []Category{
		CategoryWeakAreas,
		CategoryInterviewPrep,
		CategorySkillDev,
		CategoryPractice,
		CategoryTechTutorials,
		CategoryGeneral,
	}
}

// IsValid reports whether c is one of the six fixed categories.
func (c Category) IsValid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// CategorizedReport maps every fixed category to its resources.
// A report built with NewReport always carries all six keys.
type CategorizedReport map[Category][]Resource

// NewReport returns a report with all six categories present and empty.
func NewReport() CategorizedReport {
	report := make(CategorizedReport, len(Categories()))
	for _, c := range Categories() {
		report[c] = []Resource{}
	}
	return report
}

// Add appends r to category c, routing unknown categories to general_learning.
func (r CategorizedReport) Add(c Category, res Resource) {
	if !c.IsValid() {
		c = CategoryGeneral
	}
	r[c] = append(r[c], res)
}

// Total returns the number of resources across all categories.
func (r CategorizedReport) Total() int {
	n := 0
	for _, items := range r {
		n += len(items)
	}
	return n
}

// CategoryNames returns the report's category names in canonical order.
func (r CategorizedReport) CategoryNames() []string {
	names := make([]string, 0, len(r))
	for _, c := range Categories() {
		if _, ok := r[c]; ok {
			names = append(names, string(c))
		}
	}
	return names
}

// PipelineResult is the output of one pipeline run.
type PipelineResult struct {
	UserProfile    Profile           `json:"user_profile" firestore:"user_profile"`
	SearchQueries  []string          `json:"search_queries" firestore:"search_queries"`
	TotalResources int               `json:"total_resources" firestore:"total_resources"`
	Resources      CategorizedReport `json:"resources" firestore:"resources"`
	GeneratedAt    string            `json:"generated_at" firestore:"generated_at"`
}

// TimestampFormat is the ISO-8601 layout used for generated_at.
const TimestampFormat = time.RFC3339Nano

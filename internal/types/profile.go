// Package types provides type definitions for structured data used throughout the resource curator.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Answer is one onboarding question/answer pair as submitted by the user.
// QuestionText is informational only; matching is done on QuestionID.
type Answer struct {
	QuestionID   string `json:"question_id" firestore:"question_id"`
	QuestionText string `json:"question_text" firestore:"question_text"`
	Answer       string `json:"answer" firestore:"answer"`
}

// Profile is the structured learner profile extracted from onboarding answers.
// Every field always has a value: empty string or empty (non-nil) slice.
type Profile struct {
	Name               string   `json:"name" firestore:"name"`
	Status             string   `json:"status" firestore:"status"`
	Education          string   `json:"education" firestore:"education"`
	GraduationYear     string   `json:"graduation_year" firestore:"graduation_year"`
	PrimaryLanguage    string   `json:"primary_language" firestore:"primary_language"`
	TechStack          []string `json:"tech_stack" firestore:"tech_stack"`
	FamiliarTopics     []string `json:"familiar_topics" firestore:"familiar_topics"`
	WeakAreas          []string `json:"weak_areas" firestore:"weak_areas"`
	TargetCompanies    []string `json:"target_companies" firestore:"target_companies"`
	PreferredRole      string   `json:"preferred_role" firestore:"preferred_role"`
	TargetTimeline     string   `json:"target_timeline" firestore:"target_timeline"`
	PreferredResources []string `json:"preferred_resources" firestore:"preferred_resources"`
}

// NewProfile returns a Profile with every list field initialised to an empty slice.
func NewProfile() Profile {
	return Profile{
		TechStack:          []string{},
		FamiliarTopics:     []string{},
		WeakAreas:          []string{},
		TargetCompanies:    []string{},
		PreferredResources: []string{},
	}
}

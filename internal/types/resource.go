package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ResourceType classifies what kind of content a resource is.
type ResourceType string

// Known resource types. Values outside this set are normalised to ResourceUnknown.
const (
	ResourceVideo         ResourceType = "video"
	ResourceBlog          ResourceType = "blog"
	ResourceCourse        ResourceType = "course"
	ResourceDocumentation ResourceType = "documentation"
	ResourcePractice      ResourceType = "practice"
	ResourceRepository    ResourceType = "repository"
	ResourceSearch        ResourceType = "search"
	ResourceUnknown       ResourceType = "unknown"
)

// Difficulty is the estimated level of a resource.
type Difficulty string

// Known difficulty levels.
const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Source is the provenance tag naming the code path that produced a Resource.
type Source string

// Provenance tags.
const (
	// SourceLLMMetadata marks a discovered URL whose metadata came from the generative capability.
	SourceLLMMetadata Source = "llm_metadata"
	// SourceMetadataFallback marks a discovered URL whose generated metadata was malformed.
	SourceMetadataFallback Source = "metadata_fallback"
	// SourceMinimalFallback marks a discovered URL whose metadata synthesis failed outright.
	SourceMinimalFallback Source = "minimal_fallback"
	// SourceSearchFallback marks the single synthesized resource used when discovery found nothing.
	SourceSearchFallback Source = "search_fallback"
)

// Resource is a single curated learning resource.
type Resource struct {
	Title         string       `json:"title" firestore:"title" validate:"required"`
	URL           string       `json:"url" firestore:"url" validate:"required,url"`
	Description   string       `json:"description" firestore:"description"`
	ResourceType  ResourceType `json:"resource_type" firestore:"resource_type"`
	Difficulty    Difficulty   `json:"difficulty" firestore:"difficulty"`
	EstimatedTime int          `json:"estimated_time,omitempty" firestore:"estimated_time,omitempty"`
	Tags          []string     `json:"tags" firestore:"tags"`
	CreatedAt     time.Time    `json:"created_at" firestore:"created_at"`
	Query         string       `json:"query" firestore:"query"`
	Source        Source       `json:"source" firestore:"source"`
}

var resourceValidator = validator.New()

// Validate reports whether the resource satisfies the record invariants:
// a non-blank title and an absolute URL.
func (r *Resource) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("resource title is blank")
	}
	if err := resourceValidator.Struct(r); err != nil {
		return fmt.Errorf("invalid resource %q: %w", r.URL, err)
	}
	return nil
}

// NormalizeResourceType maps free-form type strings onto the known set.
func NormalizeResourceType(s string) ResourceType {
	switch t := ResourceType(strings.ToLower(strings.TrimSpace(s))); t {
	case ResourceVideo, ResourceBlog, ResourceCourse, ResourceDocumentation,
		ResourcePractice, ResourceRepository, ResourceSearch:
		return t
	default:
		return ResourceUnknown
	}
}

// NormalizeDifficulty maps free-form difficulty strings onto the known set,
// defaulting to intermediate.
func NormalizeDifficulty(s string) Difficulty {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return d
	default:
		return DifficultyIntermediate
	}
}

// QueryTags splits a query into whitespace-separated tokens.
func QueryTags(query string) []string {
	tags := strings.Fields(query)
	if tags == nil {
		return []string{}
	}
	return tags
}

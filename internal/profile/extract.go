// Package profile maps onboarding question/answer pairs onto a structured learner profile.
package profile

import (
	"strings"

	"github.com/jonathan/resource-curator/internal/types"
)

// field identifies the Profile field an answer populates.
type field int

const (
	fieldName field = iota
	fieldStatus
	fieldEducation
	fieldGraduationYear
	fieldPrimaryLanguage
	fieldTechStack
	fieldFamiliarTopics
	fieldWeakAreas
	fieldTargetCompanies
	fieldPreferredRole
	fieldTargetTimeline
	fieldPreferredResources
)

// marker pairs a question-id substring with the field it fills.
type marker struct {
	substr string
	field  field
}

// markers are tested in order; the first substring found in a question id wins.
var markers = []marker{
	{"name", fieldName},
	{"status", fieldStatus},
	{"education", fieldEducation},
	{"graduation_year", fieldGraduationYear},
	{"primary_language", fieldPrimaryLanguage},
	{"tech_stack", fieldTechStack},
	{"familiar_topics", fieldFamiliarTopics},
	{"weak_areas", fieldWeakAreas},
	{"target_companies", fieldTargetCompanies},
	{"preferred_role", fieldPreferredRole},
	{"target_timeline", fieldTargetTimeline},
	{"preferred_resources", fieldPreferredResources},
}

// Extract builds a Profile from answers. Answers whose question id matches no
// marker are ignored. A later answer for the same field overwrites an earlier one.
// The result is always fully populated; it never returns an error.
func Extract(answers []types.Answer) types.Profile {
	p := types.NewProfile()

	for _, a := range answers {
		f, ok := match(a.QuestionID)
		if !ok {
			continue
		}

		switch f {
		case fieldName:
			p.Name = a.Answer
		case fieldStatus:
			p.Status = a.Answer
		case fieldEducation:
			p.Education = a.Answer
		case fieldGraduationYear:
			p.GraduationYear = a.Answer
		case fieldPrimaryLanguage:
			p.PrimaryLanguage = a.Answer
		case fieldTechStack:
			p.TechStack = SplitList(a.Answer)
		case fieldFamiliarTopics:
			p.FamiliarTopics = SplitList(a.Answer)
		case fieldWeakAreas:
			p.WeakAreas = SplitList(a.Answer)
		case fieldTargetCompanies:
			p.TargetCompanies = SplitList(a.Answer)
		case fieldPreferredRole:
			p.PreferredRole = a.Answer
		case fieldTargetTimeline:
			p.TargetTimeline = a.Answer
		case fieldPreferredResources:
			p.PreferredResources = SplitList(a.Answer)
		}
	}

	return p
}

func match(questionID string) (field, bool) {
	for _, m := range markers {
		if strings.Contains(questionID, m.substr) {
			return m.field, true
		}
	}
	return 0, false
}

// SplitList splits a comma-delimited answer and trims each segment.
// Empty segments are kept: "a, ,b," yields ["a", "", "b", ""].
func SplitList(answer string) []string {
	parts := strings.Split(answer, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

// NonBlank returns the entries of list that are not empty after trimming.
// Consumers that turn list entries into search terms use it so that kept
// empty segments never become empty terms.
func NonBlank(list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

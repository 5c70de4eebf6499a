//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// TechnicalTestRequest describes the job requirements a screening test is generated for
type TechnicalTestRequest struct {
	Profession   string `json:"profession" validate:"required"`
	Technologies string `json:"technologies" validate:"required"`
	Experience   string `json:"experience" validate:"required"`
	Education    string `json:"education" validate:"required"`
}

// Validate trims the fields and checks that all four are present
func (r *TechnicalTestRequest) Validate() error {
	r.Profession = strings.TrimSpace(r.Profession)
	r.Technologies = strings.TrimSpace(r.Technologies)
	r.Experience = strings.TrimSpace(r.Experience)
	r.Education = strings.TrimSpace(r.Education)

	validate := validator.New()
	return validate.Struct(r)
}

// Fields returns the request as a placeholder map for the technical test prompt
func (r TechnicalTestRequest) Fields() map[string]string {
	return map[string]string{
		FieldProfession:   r.Profession,
		FieldTechnologies: r.Technologies,
		FieldExperience:   r.Experience,
		FieldEducation:    r.Education,
	}
}

// Summary echoes the fields a reviewer needs next to the generated test
func (r TechnicalTestRequest) Summary() ProfileSummary {
	return ProfileSummary{
		Profession:   r.Profession,
		Technologies: r.Technologies,
		Experience:   r.Experience,
	}
}

// ProfileSummary is the short candidate description returned with a technical test
type ProfileSummary struct {
	Profession   string `json:"profession"`
	Technologies string `json:"technologies"`
	Experience   string `json:"experience"`
}

// TechnicalTestResponse is the boundary shape of a generated technical test
type TechnicalTestResponse struct {
	TechnicalTestMarkdown string         `json:"technical_test_markdown"`
	ProfileSummary        ProfileSummary `json:"profile_summary"`
}

// ProfileResponse is the boundary shape of a completed profile extraction
type ProfileResponse struct {
	CVProfile   string      `json:"cv_profile"`
	ProfileData ProfileData `json:"profile_data"`
}

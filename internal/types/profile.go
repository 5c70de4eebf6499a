// Package types provides type definitions for structured data used throughout the profile extractor.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Field names shared by the extraction prompt, the response parser and the CV prompt.
const (
	FieldName         = "name"
	FieldProfession   = "profession"
	FieldExperience   = "experience"
	FieldEducation    = "education"
	FieldTechnologies = "technologies"
	FieldLanguages    = "languages"
	FieldAchievements = "achievements"
	FieldSoftSkills   = "soft_skills"
)

// ProfileFields lists every ProfileData key in the order the extraction prompt presents them.
var ProfileFields = []string{
	FieldName,
	FieldProfession,
	FieldExperience,
	FieldEducation,
	FieldTechnologies,
	FieldLanguages,
	FieldAchievements,
	FieldSoftSkills,
}

// ProfileData is the structured professional profile inferred from a transcript.
// Every key is always present; fields that could not be inferred are empty strings.
type ProfileData struct {
	Name         string `json:"name" mapstructure:"name"`
	Profession   string `json:"profession" mapstructure:"profession"`
	Experience   string `json:"experience" mapstructure:"experience"`
	Education    string `json:"education" mapstructure:"education"`
	Technologies string `json:"technologies" mapstructure:"technologies"`
	Languages    string `json:"languages" mapstructure:"languages"`
	Achievements string `json:"achievements" mapstructure:"achievements"`
	SoftSkills   string `json:"soft_skills" mapstructure:"soft_skills"`
}

// Fields returns the profile as a placeholder map keyed by the snake_case field names.
func (p ProfileData) Fields() map[string]string {
	return map[string]string{
		FieldName:         p.Name,
		FieldProfession:   p.Profession,
		FieldExperience:   p.Experience,
		FieldEducation:    p.Education,
		FieldTechnologies: p.Technologies,
		FieldLanguages:    p.Languages,
		FieldAchievements: p.Achievements,
		FieldSoftSkills:   p.SoftSkills,
	}
}

// IsEmpty reports whether no field could be inferred.
func (p ProfileData) IsEmpty() bool {
	return p == ProfileData{}
}

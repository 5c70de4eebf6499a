package pipeline

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/jonathan/profile-extractor/internal/llm"
	"github.com/jonathan/profile-extractor/internal/schemas"
	"github.com/jonathan/profile-extractor/internal/types"
)

// keyAliases maps normalized spellings models use to canonical profile keys
var keyAliases = map[string]string{
	"full_name":           types.FieldName,
	"candidate_name":      types.FieldName,
	"nombre":              types.FieldName,
	"role":                types.FieldProfession,
	"job_title":           types.FieldProfession,
	"occupation":          types.FieldProfession,
	"profesion":           types.FieldProfession,
	"work_experience":     types.FieldExperience,
	"experiencia":         types.FieldExperience,
	"studies":             types.FieldEducation,
	"educacion":           types.FieldEducation,
	"tech_stack":          types.FieldTechnologies,
	"tools":               types.FieldTechnologies,
	"technical_skills":    types.FieldTechnologies,
	"tecnologias":         types.FieldTechnologies,
	"spoken_languages":    types.FieldLanguages,
	"idiomas":             types.FieldLanguages,
	"accomplishments":     types.FieldAchievements,
	"logros":              types.FieldAchievements,
	"softskills":          types.FieldSoftSkills,
	"interpersonal":       types.FieldSoftSkills,
	"habilidades_blandas": types.FieldSoftSkills,
}

// placeholderValues are filler answers treated as "not inferred"
var placeholderValues = map[string]bool{
	"not specified":   true,
	"no especificado": true,
	"n/a":             true,
	"unknown":         true,
	"null":            true,
}

// keyValueLine matches `key: value` and `"key": "value",` lines of non-JSON responses
var keyValueLine = regexp.MustCompile(`(?m)^[\s\-*]*"?([A-Za-z_ ]+?)"?\s*[:=]\s*(.*?)\s*$`)

// ParseProfile reads a field-extraction response into ProfileData.
// Strictly valid JSON is decoded directly; anything else is read as leniently
// as possible. Keys that cannot be found are left empty, so parsing never fails.
// The returned list names the fields that were recognised.
func ParseProfile(raw string) (types.ProfileData, []string) {
	cleaned := llm.CleanJSONBlock(raw)

	for _, obj := range candidateObjects(cleaned, raw) {
		if schemas.ValidateProfileData([]byte(obj)) == nil {
			var p types.ProfileData
			if err := json.Unmarshal([]byte(obj), &p); err == nil {
				p = cleanProfile(p)
				return p, filledKeys(p)
			}
		}

		var loose map[string]any
		if err := json.Unmarshal([]byte(obj), &loose); err == nil {
			if p, found, err := decodeLoose(loose); err == nil && len(found) > 0 {
				return p, filledKeys(p)
			}
		}
	}

	p, found := scanLines(cleaned)
	if len(found) == 0 && cleaned != raw {
		p, _ = scanLines(raw)
	}
	return p, filledKeys(p)
}

// candidateObjects lists the distinct outermost objects of the cleaned and raw replies
func candidateObjects(cleaned, raw string) []string {
	var out []string
	for _, s := range []string{cleaned, raw} {
		if obj := outermostObject(s); obj != "" && (len(out) == 0 || out[0] != obj) {
			out = append(out, obj)
		}
	}
	return out
}

// outermostObject returns the text from the first '{' to the last '}'
func outermostObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// decodeLoose normalizes keys and values of a decoded JSON object and maps it onto ProfileData
func decodeLoose(loose map[string]any) (types.ProfileData, []string, error) {
	normalized := make(map[string]string, len(loose))
	aliased := make(map[string]string)
	for k, v := range loose {
		key, ok := canonicalKey(k)
		if !ok {
			continue
		}
		if isProfileField(normalizeKey(k)) {
			normalized[key] = cleanValue(stringify(v))
		} else {
			aliased[key] = cleanValue(stringify(v))
		}
	}
	// exact keys win over aliases
	for key, v := range aliased {
		if _, ok := normalized[key]; !ok {
			normalized[key] = v
		}
	}

	var p types.ProfileData
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return types.ProfileData{}, nil, fmt.Errorf("creating decoder: %w", err)
	}
	if err := decoder.Decode(normalized); err != nil {
		return types.ProfileData{}, nil, fmt.Errorf("decoding profile: %w", err)
	}
	return p, sortedKeys(normalized), nil
}

// scanLines recognises `key: value` pairs line by line
func scanLines(text string) (types.ProfileData, []string) {
	values := make(map[string]string)
	for _, m := range keyValueLine.FindAllStringSubmatch(text, -1) {
		key, ok := canonicalKey(m[1])
		if !ok {
			continue
		}
		if _, dup := values[key]; dup {
			continue
		}
		v := strings.TrimSuffix(strings.TrimSpace(m[2]), ",")
		values[key] = cleanValue(strings.Trim(v, `"`))
	}

	var p types.ProfileData
	// string-to-string decode cannot fail
	_ = mapstructure.Decode(values, &p)
	return p, sortedKeys(values)
}

// canonicalKey maps a response key to a profile field, if it is one
func canonicalKey(k string) (string, bool) {
	k = normalizeKey(k)
	if isProfileField(k) {
		return k, true
	}
	if alias, ok := keyAliases[k]; ok {
		return alias, true
	}
	return "", false
}

func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(k)
}

func isProfileField(k string) bool {
	for _, field := range types.ProfileFields {
		if k == field {
			return true
		}
	}
	return false
}

// stringify flattens JSON values to the single string each profile field holds
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := strings.TrimSpace(stringify(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	if placeholderValues[strings.ToLower(strings.TrimSuffix(s, "."))] {
		return ""
	}
	return s
}

func cleanProfile(p types.ProfileData) types.ProfileData {
	return types.ProfileData{
		Name:         cleanValue(p.Name),
		Profession:   cleanValue(p.Profession),
		Experience:   cleanValue(p.Experience),
		Education:    cleanValue(p.Education),
		Technologies: cleanValue(p.Technologies),
		Languages:    cleanValue(p.Languages),
		Achievements: cleanValue(p.Achievements),
		SoftSkills:   cleanValue(p.SoftSkills),
	}
}

// filledKeys lists the fields of p that hold a value, sorted
func filledKeys(p types.ProfileData) []string {
	keys := make([]string, 0, len(types.ProfileFields))
	for k, v := range p.Fields() {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

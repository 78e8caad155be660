package analysis

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kiranshivaraju/recruitai/pkg/models"
)

// Field names recognised in completion output.
const (
	FieldScore         = "Score"
	FieldMissingSkills = "Missing Skills"
	FieldRemarks       = "Remarks"
)

// Output keys of a parsed Record.
const (
	KeyScore         = "score"
	KeyMissingSkills = "missing_skills"
	KeyRemarks       = "remarks"
)

// DefaultRemarks is used when a requested Remarks line is absent.
const DefaultRemarks = "Unable to determine specific skill gaps from the provided information."

// AnalysisFields is the field list of a standard analysis completion.
var AnalysisFields = []string{FieldScore, FieldMissingSkills, FieldRemarks}

var (
	reEmphasis   = regexp.MustCompile(`\*\*|__`)
	reOutOfScore = regexp.MustCompile(`^\s*(-?[0-9]*\.?[0-9]+)\s*/\s*100\s*$`)

	emptySkillValues = map[string]bool{
		"[]":                true,
		"none":              true,
		"n/a":               true,
		"-":                 true,
		"":                  true,
		"no missing skills": true,
	}

	skillSeparators = []string{",", ";", "\n", "•", "-"}
)

// Record is the typed result of Parse. Score and MissingSkills are always
// populated; other requested fields land in Fields under their lower-cased name.
type Record struct {
	Score         float64
	MissingSkills []string
	Fields        map[string]string
}

// Remarks returns the remarks field, which Parse defaults when it was requested.
func (r Record) Remarks() string {
	return r.Fields[KeyRemarks]
}

// Parse extracts the requested fields from semi-structured completion text.
// For each field the first line starting with "<Field>:" wins. Parse never
// fails; missing or malformed values degrade to defaults.
func Parse(text string, fields []string) Record {
	lines := strings.Split(text, "\n")
	rec := Record{
		MissingSkills: []string{},
		Fields:        make(map[string]string),
	}

	for _, field := range fields {
		value, ok := findField(lines, field)
		switch field {
		case FieldScore:
			if ok {
				rec.Score = parseScore(value)
			}
		case FieldMissingSkills:
			if ok {
				rec.MissingSkills = parseSkills(value)
			}
		default:
			key := strings.ToLower(field)
			if ok {
				rec.Fields[key] = strings.TrimSpace(value)
			} else if key == KeyRemarks {
				rec.Fields[key] = DefaultRemarks
			}
		}
	}
	return rec
}

// ParseAnalysis parses the standard Score / Missing Skills / Remarks block.
func ParseAnalysis(text string) models.AnalysisResult {
	rec := Parse(text, AnalysisFields)
	return models.AnalysisResult{
		Score:         rec.Score,
		MissingSkills: rec.MissingSkills,
		Remarks:       rec.Remarks(),
	}
}

func findField(lines []string, field string) (string, bool) {
	prefix := field + ":"
	for _, line := range lines {
		trimmed := strings.TrimSpace(reEmphasis.ReplaceAllString(line, ""))
		if strings.HasPrefix(trimmed, prefix) {
			_, value, _ := strings.Cut(trimmed, ":")
			return value, true
		}
	}
	return "", false
}

func parseScore(raw string) float64 {
	v := strings.TrimSpace(strings.ReplaceAll(raw, "%", ""))
	if m := reOutOfScore.FindStringSubmatch(v); m != nil {
		v = m[1]
	}
	score, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(score) {
		return 0
	}
	return math.Min(100, math.Max(0, score))
}

func parseSkills(raw string) []string {
	value := strings.TrimSpace(raw)
	if emptySkillValues[strings.ToLower(value)] {
		return []string{}
	}
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		value = strings.TrimSpace(value[1 : len(value)-1])
	}

	for _, sep := range skillSeparators {
		if !strings.Contains(value, sep) {
			continue
		}
		skills := []string{}
		for _, token := range strings.Split(value, sep) {
			token = strings.TrimSpace(token)
			if emptySkillValues[strings.ToLower(token)] || utf8.RuneCountInString(token) <= 1 {
				continue
			}
			skills = append(skills, token)
		}
		return skills
	}

	if value == "" {
		return []string{}
	}
	return []string{value}
}

// SplitList splits a comma separated user input, trimming entries and
// dropping blanks.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

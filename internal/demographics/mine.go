package demographics

import (
	"regexp"
	"strconv"
	"strings"

	"homie/internal/models"
)

var ethnicityVocabulary = []string{
	"African American", "Pacific Islander", "Native American", "Middle Eastern",
	"Multi-racial", "Multi racial", "Caucasian", "Hispanic", "Latino",
	"White", "Black", "Asian", "Mixed", "Other",
	"New Zealand", "Philippines", "Australia", "England", "China", "India",
}

var (
	ageMention       = regexp.MustCompile(`(?i)(\d+\s*-\s*\d+|\d+\+|\d+s(?:\s*-\s*\d+s)?|(?:under|over)\s+\d+)\s*(?:years?(?:\s*old)?)?\s*:\s*(\d+(?:\.\d+)?)%`)
	incomeMention    = regexp.MustCompile(`(?i)(?:(under|over|less than|more than)\s*)?\$\s*(\d+(?:,\d+)*(?:\.\d+)?)\s*k?(?:\s*-\s*\$?\s*(\d+(?:,\d+)*(?:\.\d+)?)\s*k?)?\s*:?\s*(\d+(?:\.\d+)?)%`)
	ethnicityMention = regexp.MustCompile(`(?i)\b(` + alternation(ethnicityVocabulary) + `)(?:\s*ethnicity)?\s*:?\s*(\d+(?:\.\d+)?)%`)
	openAgeBand      = regexp.MustCompile(`(?i)^(under|over)\s+(\d+)$`)
	spaces           = regexp.MustCompile(`\s+`)
)

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

// canonicalEthnicity maps a case-insensitive vocabulary match to its listed spelling.
func canonicalEthnicity(label string) string {
	for _, w := range ethnicityVocabulary {
		if strings.EqualFold(w, label) {
			return w
		}
	}
	return label
}

// section narrows text to the paragraph that starts at the first
// "demographics" heading, or returns text unchanged.
func section(text string) string {
	idx := strings.Index(strings.ToLower(text), "demographics")
	if idx < 0 {
		return text
	}
	rest := text[idx:]
	if end := strings.Index(rest, "\n\n"); end >= 0 {
		return rest[:end]
	}
	return rest
}

// Mine scans free text for "<range>: <pct>%", "<Ethnicity>: <pct>%" and
// "<Under/Over $Nk-$Mk>: <pct>%" mentions. Categories with no mention are
// left empty. A repeated label keeps its first value.
func Mine(text string) models.DemographicProfile {
	src := section(text)
	profile := models.DemographicProfile{
		AgeDistribution:    []models.AgeBand{},
		EthnicDistribution: []models.EthnicShare{},
		IncomeBrackets:     []models.IncomeBand{},
	}

	seen := map[string]bool{}
	for _, m := range ageMention.FindAllStringSubmatch(src, -1) {
		label := ageLabel(m[1])
		if seen["age:"+label] {
			continue
		}
		seen["age:"+label] = true
		profile.AgeDistribution = append(profile.AgeDistribution, models.AgeBand{Range: label, Percentage: number(m[2])})
	}

	for _, m := range ethnicityMention.FindAllStringSubmatch(src, -1) {
		label := canonicalEthnicity(m[1])
		if seen["eth:"+label] {
			continue
		}
		seen["eth:"+label] = true
		profile.EthnicDistribution = append(profile.EthnicDistribution, models.EthnicShare{Label: label, Percentage: number(m[2])})
	}

	for _, m := range incomeMention.FindAllStringSubmatch(src, -1) {
		label := incomeLabel(m[1], m[2], m[3])
		if seen["inc:"+label] {
			continue
		}
		seen["inc:"+label] = true
		profile.IncomeBrackets = append(profile.IncomeBrackets, models.IncomeBand{Bracket: label, Percentage: number(m[4])})
	}

	return profile
}

func ageLabel(raw string) string {
	if m := openAgeBand.FindStringSubmatch(raw); m != nil {
		return strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:]) + " " + m[2]
	}
	return spaces.ReplaceAllString(raw, "")
}

func incomeLabel(qualifier, low, high string) string {
	switch strings.ToLower(qualifier) {
	case "under", "less than":
		return "Under $" + low + "k"
	case "over", "more than":
		return "Over $" + low + "k"
	}
	if high != "" {
		return "$" + low + "k-$" + high + "k"
	}
	return "$" + low + "k"
}

func number(s string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}

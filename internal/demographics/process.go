package demographics

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"homie/internal/models"
)

const (
	maxEthnicities = 5
	otherLabel     = "Other"
	sumTolerance   = 0.1
)

var firstNumeral = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?`)

// Finalize applies the post-processing every profile goes through: ages by
// first numeral, incomes by lower bound, ethnicities by share with the tail
// collapsed into "Other", and every category rescaled to sum to 100.
func Finalize(p models.DemographicProfile) models.DemographicProfile {
	out := models.DemographicProfile{
		AgeDistribution:    append([]models.AgeBand{}, p.AgeDistribution...),
		EthnicDistribution: capEthnicities(p.EthnicDistribution),
		IncomeBrackets:     append([]models.IncomeBand{}, p.IncomeBrackets...),
	}

	sort.SliceStable(out.AgeDistribution, func(i, j int) bool {
		return lowerBound(out.AgeDistribution[i].Range) < lowerBound(out.AgeDistribution[j].Range)
	})
	sort.SliceStable(out.IncomeBrackets, func(i, j int) bool {
		return lowerBound(out.IncomeBrackets[i].Bracket) < lowerBound(out.IncomeBrackets[j].Bracket)
	})

	rescale(len(out.AgeDistribution), func(i int) *float64 { return &out.AgeDistribution[i].Percentage })
	rescale(len(out.EthnicDistribution), func(i int) *float64 { return &out.EthnicDistribution[i].Percentage })
	rescale(len(out.IncomeBrackets), func(i int) *float64 { return &out.IncomeBrackets[i].Percentage })

	return out
}

// lowerBound orders open-ended "Under N" bands just before bands starting at N.
// Labels without a numeral sort last.
func lowerBound(label string) float64 {
	m := firstNumeral.FindString(label)
	if m == "" {
		return math.MaxFloat64
	}
	v := number(m)
	lower := strings.ToLower(label)
	if strings.HasPrefix(lower, "under") || strings.HasPrefix(lower, "less than") {
		return v - 0.5
	}
	return v
}

// capEthnicities sorts shares descending and keeps the four largest named
// entries. Anything beyond them is added to "Other", which always comes last.
func capEthnicities(shares []models.EthnicShare) []models.EthnicShare {
	var other float64
	hasOther := false
	named := make([]models.EthnicShare, 0, len(shares))
	for _, s := range shares {
		if strings.EqualFold(s.Label, otherLabel) {
			other += s.Percentage
			hasOther = true
			continue
		}
		named = append(named, s)
	}
	sort.SliceStable(named, func(i, j int) bool {
		return named[i].Percentage > named[j].Percentage
	})

	limit := maxEthnicities - 1
	if len(named) > limit {
		for _, s := range named[limit:] {
			other += s.Percentage
		}
		named = named[:limit]
		hasOther = true
	}
	if hasOther {
		named = append(named, models.EthnicShare{Label: otherLabel, Percentage: other})
	}
	return named
}

// rescale scales n percentages to sum to 100 when they are off by more than
// the tolerance, rounding to one decimal and putting the rounding residue on
// the last entry. All-zero categories become equal shares.
func rescale(n int, at func(int) *float64) {
	if n == 0 {
		return
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += *at(i)
	}
	if math.Abs(sum-100) <= sumTolerance {
		return
	}

	var rounded float64
	for i := 0; i < n; i++ {
		v := 100.0 / float64(n)
		if sum > 0 {
			v = *at(i) * 100 / sum
		}
		*at(i) = round1(v)
		rounded += *at(i)
	}
	last := at(n - 1)
	*last = round1(*last + 100 - rounded)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

package derive

import (
	"regexp"
	"strings"

	"github.com/brewlog/taplist/pkg/types"
)

// Above this strength a draft pour goes in a tulip instead of a pint.
const tulipThresholdABV = 7.4

var flightWordRe = regexp.MustCompile(`(?i)\bflight\b`)

// ContainerTypeFor classifies the vessel for one beer record. The rules
// form a strict decision sequence; the first matching rule wins. The zero
// ContainerType means no rule applied and the column stays NULL.
//
// precomputedABV, when non-nil, short-circuits description parsing for the
// strength-based draft rule; pass nil to let the ABV be extracted from the
// description.
func ContainerTypeFor(container, description, style, name string, precomputedABV *float64) types.ContainerType {
	lcontainer := strings.ToLower(container)
	lstyle := strings.ToLower(style)

	// Flights are recorded with a draft-like or empty container label; the
	// signal lives in the name or style.
	if flightWordRe.MatchString(name) || lstyle == "flight" {
		if lcontainer == "" || containsAny(lcontainer, "draft", "draught", "flight") {
			return types.ContainerFlight
		}
	}

	if lcontainer == "" {
		return ""
	}
	if strings.Contains(lcontainer, "can") {
		return types.ContainerCan
	}
	if strings.Contains(lcontainer, "bottle") {
		return types.ContainerBottle
	}
	if !containsAny(lcontainer, "draft", "draught") {
		return ""
	}

	// Explicit pour sizes override the strength rule entirely.
	if containsAny(lcontainer, "13oz", "13 oz") {
		return types.ContainerTulip
	}
	if containsAny(lcontainer, "16oz", "16 oz") {
		return types.ContainerPint
	}

	abv := precomputedABV
	if abv == nil {
		abv = ExtractABV(description)
	}
	if abv != nil {
		if *abv >= tulipThresholdABV {
			return types.ContainerTulip
		}
		return types.ContainerPint
	}

	// No ABV signal; fall back on style keywords.
	if containsAny(lstyle, "pilsner", "lager") {
		return types.ContainerPint
	}
	if containsAny(lstyle, "imperial", "tripel", "quad", "barleywine") {
		return types.ContainerTulip
	}
	return ""
}

// ApplyDerived fills in rec's ContainerType and ABV from its text fields.
// Already-present values are kept: a pre-enriched ABV is trusted and feeds
// the container classification.
func ApplyDerived(rec *types.BeerRecord) {
	if rec.ABV == nil {
		rec.ABV = ExtractABV(rec.BrewDescription)
	}
	if rec.ContainerType == "" {
		rec.ContainerType = ContainerTypeFor(rec.BrewContainer, rec.BrewDescription, rec.BrewStyle, rec.BrewName, rec.ABV)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

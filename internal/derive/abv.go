// Package derive computes the derived beer-record fields: the alcohol
// percentage extracted from free-text descriptions and the container
// classification. All functions are pure and never panic on malformed
// input; unknowable answers come back as nil or the zero ContainerType.
package derive

import (
	"regexp"
	"strconv"
)

var (
	htmlTagRe = regexp.MustCompile(`<[^>]*>`)

	// A bare percentage token. The leading group rejects numbers preceded
	// by a minus sign or glued to another number ("2-4.5%" must not yield
	// 4.5).
	barePercentRe = regexp.MustCompile(`(?:^|[^-\d.])(\d+(?:\.\d+)?)%`)

	// "ABV 5.2", "ABV: 5.2%", and the reversed "5.2 ABV" / "5.2% ABV".
	abvBeforeRe = regexp.MustCompile(`(?i)\babv[\s:]*(\d+(?:\.\d+)?)`)
	abvAfterRe  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%?\s*abv\b`)
)

// ExtractABV pulls an alcohol-by-volume percentage out of a description.
// HTML tags are stripped first. Candidates are tried in priority order: a
// bare percentage token, then an ABV keyword adjacent to a number in
// either order. The first matching pattern decides; its value is returned
// only when it lies in [0, 100]. No match returns nil.
func ExtractABV(description string) *float64 {
	if description == "" {
		return nil
	}
	text := htmlTagRe.ReplaceAllString(description, " ")

	for _, re := range []*regexp.Regexp{barePercentRe, abvBeforeRe, abvAfterRe} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || v < 0 || v > 100 {
			return nil
		}
		return &v
	}
	return nil
}

package completion

import (
	"github.com/tidwall/gjson"
)

// experimentalField is the metadata key some kernels use to report structured
// completion matches alongside the legacy plain-text list.
const experimentalField = "_jupyter_types_experimental"

// experimentalMatch is one validated entry of the experimental match schema.
type experimentalMatch struct {
	Start int
	End   int
	Text  string
	Type  string
}

// parseExperimentalMatches extracts the experimental match set from raw kernel
// metadata. The set is valid only when the field is an array at least as long
// as the legacy match list and every element carries a numeric start, numeric
// end, and string text. Anything less returns ok=false and the caller falls
// back to the legacy schema wholesale; partial mixing of the two schemas is
// never allowed.
//
// The length check guards against a well-typed but shorter experimental set
// silently dropping candidates the legacy list still has.
func parseExperimentalMatches(metadata []byte, legacyLen int) ([]experimentalMatch, bool) {
	if len(metadata) == 0 {
		return nil, false
	}

	field := gjson.GetBytes(metadata, experimentalField)
	if !field.IsArray() {
		return nil, false
	}

	elements := field.Array()
	if len(elements) < legacyLen {
		return nil, false
	}

	matches := make([]experimentalMatch, 0, len(elements))
	for _, el := range elements {
		start := el.Get("start")
		end := el.Get("end")
		text := el.Get("text")
		if start.Type != gjson.Number || end.Type != gjson.Number || text.Type != gjson.String {
			return nil, false
		}
		matches = append(matches, experimentalMatch{
			Start: int(start.Int()),
			End:   int(end.Int()),
			Text:  text.String(),
			Type:  el.Get("type").String(),
		})
	}

	return matches, true
}

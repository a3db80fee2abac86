package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"area-resolver-api/internal/models"

	"github.com/paulmach/orb/geojson"
)

// unrestrictedSentinel marks buffer zones in some source layers; it is never an area name.
const unrestrictedSentinel = "UNRESTRICTED"

// knownNameKeys lists attribute spellings seen across boundary services, in priority order.
var knownNameKeys = []string{
	"name", "NAME", "Name",
	"district", "DISTRICT", "District",
	"dtname", "DTNAME",
	"dist_name", "DIST_NAME",
	"district_name", "DISTRICT_NAME",
	"stname", "STNAME",
}

// NameMatcher extracts an area name from feature attributes.
type NameMatcher func(props geojson.Properties) (string, bool)

// ExactKeyMatcher returns the first usable value among keys, in order.
func ExactKeyMatcher(keys ...string) NameMatcher {
	return func(props geojson.Properties) (string, bool) {
		for _, k := range keys {
			if v, ok := usableValue(props[k]); ok {
				return v, true
			}
		}
		return "", false
	}
}

// SubstringKeyMatcher returns the first usable value whose lowercase key contains substr.
// Keys are visited in sorted order.
func SubstringKeyMatcher(substr string) NameMatcher {
	return func(props geojson.Properties) (string, bool) {
		for _, k := range sortedKeys(props) {
			if !strings.Contains(strings.ToLower(k), substr) {
				continue
			}
			if v, ok := usableValue(props[k]); ok {
				return v, true
			}
		}
		return "", false
	}
}

// NameNotFoundError reports a feature with no usable name attribute.
// Keys lists the attributes that were present, for extending knownNameKeys.
type NameNotFoundError struct {
	Keys []string
}

func (e *NameNotFoundError) Error() string {
	return fmt.Sprintf("service: no usable name attribute (available keys: %s)", strings.Join(e.Keys, ", "))
}

// Normalizer converts boundary features into area results.
type Normalizer struct {
	matchers []NameMatcher
}

// NewNormalizer creates a normalizer. Without matchers the default chain is used:
// known keys first, then any key containing "name".
func NewNormalizer(matchers ...NameMatcher) *Normalizer {
	if len(matchers) == 0 {
		matchers = []NameMatcher{
			ExactKeyMatcher(knownNameKeys...),
			SubstringKeyMatcher("name"),
		}
	}
	return &Normalizer{matchers: matchers}
}

// ExtractName runs the matchers in sequence.
func (n *Normalizer) ExtractName(props geojson.Properties) (string, bool) {
	for _, m := range n.matchers {
		if name, ok := m(props); ok {
			return name, true
		}
	}
	return "", false
}

// FormatResult converts a feature into an AreaResult. Confidence, source and
// alternatives are left for the caller.
func (n *Normalizer) FormatResult(f *geojson.Feature) (models.AreaResult, error) {
	if f == nil {
		return models.AreaResult{}, &NameNotFoundError{}
	}
	name, ok := n.ExtractName(f.Properties)
	if !ok {
		return models.AreaResult{}, &NameNotFoundError{Keys: sortedKeys(f.Properties)}
	}
	return models.AreaResult{
		AreaName: name,
		AreaType: models.AreaTypeDistrict,
	}, nil
}

func usableValue(v interface{}) (string, bool) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		s = strconv.Itoa(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, unrestrictedSentinel) {
		return "", false
	}
	return s, true
}

func sortedKeys(props geojson.Properties) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package vision

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/vbonduro/mealledger/internal/domain"
)

// Shape tells Normalize which upstream payload to expect.
type Shape int

const (
	// ShapeAuto detects the shape: an array is multi-item, an object with a
	// canEstimate field is a single estimate.
	ShapeAuto Shape = iota
	ShapeMultiItem
	ShapeSingleEstimate
)

type ResultKind string

const (
	KindMultiItem      ResultKind = "multi_item"
	KindSingleEstimate ResultKind = "single_estimate"
	// KindEmpty is a well-formed payload that names no food, e.g. "[]".
	KindEmpty     ResultKind = "empty"
	KindMalformed ResultKind = "malformed"
)

// unknownName labels items the recognizer returned without a name.
const unknownName = "Unknown food"

// Result is the outcome of normalizing one payload. Err is a
// *domain.RecognitionError exactly when Kind is KindMalformed.
type Result struct {
	Kind  ResultKind        `json:"kind"`
	Items []domain.FoodItem `json:"items"`
	// Confident mirrors the single-estimate canEstimate flag; it is forced
	// false when no weight could be read.
	Confident bool  `json:"confident"`
	Err       error `json:"-"`
}

func (r Result) Malformed() bool {
	return r.Kind == KindMalformed
}

func malformed(reason string) Result {
	return Result{
		Kind:  KindMalformed,
		Items: []domain.FoodItem{},
		Err:   &domain.RecognitionError{Reason: reason},
	}
}

// Normalize converts a raw recognizer payload into canonical food items.
// It never fails outright: unusable input yields a KindMalformed result.
// Items are returned without IDs; the collection that takes ownership of
// them assigns one.
func Normalize(raw []byte, hint Shape) Result {
	payload, ok := extractJSON(raw)
	if !ok {
		return malformed("payload is not JSON")
	}

	switch payload[0] {
	case '[':
		if hint == ShapeSingleEstimate {
			return malformed("expected a single estimate object, got an array")
		}
		return normalizeMultiItem(payload)
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(payload, &fields); err != nil {
			return malformed("payload is not a JSON object")
		}
		if items, ok := fields["items"]; ok && hint != ShapeSingleEstimate && isArray(items) {
			return normalizeMultiItem(bytes.TrimSpace(items))
		}
		if hint == ShapeMultiItem {
			return malformed("expected an array of items")
		}
		if hint == ShapeAuto {
			if _, ok := fields["canEstimate"]; !ok {
				return malformed("unrecognized payload shape")
			}
		}
		return normalizeSingleEstimate(fields)
	}
	return malformed("payload is neither an array nor an object")
}

type multiItem struct {
	Count          json.RawMessage `json:"count"`
	Name           json.RawMessage `json:"name"`
	PortionSize    json.RawMessage `json:"portionSize"`
	TotalNutrition json.RawMessage `json:"totalNutrition"`
}

func normalizeMultiItem(payload []byte) Result {
	var elems []json.RawMessage
	if err := json.Unmarshal(payload, &elems); err != nil {
		return malformed("payload is not a JSON array")
	}
	if len(elems) == 0 {
		return Result{Kind: KindEmpty, Items: []domain.FoodItem{}}
	}

	items := make([]domain.FoodItem, 0, len(elems))
	for _, elem := range elems {
		var m multiItem
		if !isObject(elem) || json.Unmarshal(elem, &m) != nil {
			continue
		}
		items = append(items, m.toFoodItem())
	}

	if len(items) == 0 {
		return malformed("no array element is an item object")
	}
	return Result{Kind: KindMultiItem, Items: items}
}

func (m multiItem) toFoodItem() domain.FoodItem {
	name, ok := coerceName(m.Name)
	item := domain.FoodItem{Name: name, Incomplete: !ok}

	// a non-object totalNutrition reads as all fields missing
	var totals map[string]json.RawMessage
	_ = json.Unmarshal(m.TotalNutrition, &totals)

	var complete bool
	item.Nutrition, complete = readNutrition(totals)
	if !complete {
		item.Incomplete = true
	}

	// count scales the weight, so an unreadable one is treated as 1 and flagged.
	count := 1.0
	if c, state := coerceNumber(m.Count); state == fieldOK && c > 0 {
		count = c
	} else {
		item.Incomplete = true
	}

	// portionSize describes one counted item; totalNutrition covers all of them.
	if grams, ok := portionGrams(m.PortionSize); ok {
		item.WeightGrams = grams * count
	} else {
		item.Incomplete = true
	}
	return item
}

func normalizeSingleEstimate(fields map[string]json.RawMessage) Result {
	known := []string{"name", "estimatedSize", "calories", "protein", "carbs", "fat", "canEstimate"}
	present := false
	for _, k := range known {
		if _, ok := fields[k]; ok {
			present = true
			break
		}
	}
	if !present {
		return malformed("estimate object has none of the expected fields")
	}

	name, ok := coerceName(fields["name"])
	item := domain.FoodItem{Name: name, Incomplete: !ok}

	var complete bool
	item.Nutrition, complete = readNutrition(fields)
	if !complete {
		item.Incomplete = true
	}

	confident := coerceBool(fields["canEstimate"])
	grams, state := coerceGrams(fields["estimatedSize"])
	if state == fieldOK && grams > 0 {
		item.WeightGrams = grams
	} else {
		item.Incomplete = true
		confident = false
	}

	return Result{
		Kind:      KindSingleEstimate,
		Items:     []domain.FoodItem{item},
		Confident: confident,
	}
}

// readNutrition reads calories/protein/carbs/fat. Missing or negative
// values become 0 and make the result incomplete.
func readNutrition(fields map[string]json.RawMessage) (domain.Nutrition, bool) {
	complete := true
	read := func(key string) float64 {
		v, state := coerceNumber(fields[key])
		if state != fieldOK {
			complete = false
			return 0
		}
		return v
	}

	n := domain.Nutrition{
		Calories: read("calories"),
		Protein:  read("protein"),
		Carbs:    read("carbs"),
		Fat:      read("fat"),
	}
	return n, complete
}

func coerceName(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
		return unknownName, false
	}
	return strings.TrimSpace(s), true
}

// extractJSON strips markdown code fences and returns the first complete
// JSON value in a model response. Prose before or after the value is ignored.
func extractJSON(raw []byte) ([]byte, bool) {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
	}

	for offset := 0; offset < len(s); {
		i := strings.IndexAny(s[offset:], "[{")
		if i < 0 {
			break
		}
		start := offset + i

		var value json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[start:])).Decode(&value); err == nil {
			return bytes.TrimSpace(value), true
		}
		offset = start + 1
	}
	return nil, false
}

func isArray(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '['
}

func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}

package vision

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/mealledger/internal/domain"
)

const donutsPayload = `[
  {
    "count": 9,
    "name": "Glazed donut",
    "portionSize": "1 donut (about 60 g)",
    "nutritionPerItem": {"calories": 240, "protein": 3, "carbs": 31, "fat": 11},
    "totalNutrition": {"calories": 2160, "protein": 27, "carbs": 279, "fat": 99}
  },
  {
    "count": 1,
    "name": "Coffee",
    "portionSize": "1 cup",
    "nutritionPerItem": {"calories": 5, "protein": 0.3, "carbs": 0, "fat": 0},
    "totalNutrition": {"calories": 5, "protein": 0.3, "carbs": 0, "fat": 0}
  }
]`

func TestNormalizeMultiItem(t *testing.T) {
	res := Normalize([]byte(donutsPayload), ShapeMultiItem)

	require.Equal(t, KindMultiItem, res.Kind)
	require.NoError(t, res.Err)
	require.Len(t, res.Items, 2)

	donuts := res.Items[0]
	assert.Equal(t, "Glazed donut", donuts.Name)
	assert.Equal(t, domain.Nutrition{Calories: 2160, Protein: 27, Carbs: 279, Fat: 99}, donuts.Nutrition)
	assert.InDelta(t, 540, donuts.WeightGrams, 1e-9)
	assert.False(t, donuts.Incomplete)
	assert.Empty(t, donuts.ID)

	coffee := res.Items[1]
	assert.Zero(t, coffee.WeightGrams)
	assert.True(t, coffee.Incomplete, "portion without grams must be flagged")
	assert.True(t, coffee.UnknownPortion())
}

func TestNormalizeAutoDetectsShapes(t *testing.T) {
	multi := Normalize([]byte(donutsPayload), ShapeAuto)
	assert.Equal(t, KindMultiItem, multi.Kind)

	single := Normalize([]byte(`{"name":"Soup","estimatedSize":300,"calories":150,"protein":6,"carbs":20,"fat":4,"canEstimate":true}`), ShapeAuto)
	assert.Equal(t, KindSingleEstimate, single.Kind)
	assert.True(t, single.Confident)

	wrapped := Normalize([]byte(`{"items":[{"name":"Egg","count":2,"portionSize":"50g","totalNutrition":{"calories":140,"protein":12,"carbs":1,"fat":10}}]}`), ShapeAuto)
	require.Equal(t, KindMultiItem, wrapped.Kind)
	assert.InDelta(t, 100, wrapped.Items[0].WeightGrams, 1e-9)
}

func TestNormalizeSingleEstimateSizes(t *testing.T) {
	tests := []struct {
		name           string
		size           string
		wantGrams      float64
		wantIncomplete bool
		wantConfident  bool
	}{
		{"number", `250`, 250, false, true},
		{"grams string", `"250g"`, 250, false, true},
		{"spaced unit", `"200 grams"`, 200, false, true},
		{"kilograms", `"0.5kg"`, 500, false, true},
		{"decimal comma", `"12,5g"`, 12.5, false, true},
		{"thousands separator", `"1,200 g"`, 1200, false, true},
		{"ambiguous comma", `"1,2345 g"`, 0, true, false},
		{"vague", `"a lot"`, 0, true, false},
		{"null", `null`, 0, true, false},
		{"negative", `-40`, 0, true, false},
		{"negative string", `"-40g"`, 0, true, false},
		{"zero", `0`, 0, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := `{"name":"Rice","estimatedSize":` + tt.size + `,"calories":300,"protein":6,"carbs":65,"fat":1,"canEstimate":true}`
			res := Normalize([]byte(payload), ShapeSingleEstimate)

			require.Equal(t, KindSingleEstimate, res.Kind)
			require.Len(t, res.Items, 1)
			assert.InDelta(t, tt.wantGrams, res.Items[0].WeightGrams, 1e-9)
			assert.Equal(t, tt.wantIncomplete, res.Items[0].Incomplete)
			assert.Equal(t, tt.wantConfident, res.Confident)
		})
	}
}

func TestNormalizeThousandsSeparators(t *testing.T) {
	payload := `{"name":"Lasagna tray","estimatedSize":"1,200 g","calories":"1,350 kcal","protein":80,"carbs":120,"fat":60,"canEstimate":true}`
	res := Normalize([]byte(payload), ShapeSingleEstimate)

	require.Equal(t, KindSingleEstimate, res.Kind)
	item := res.Items[0]
	assert.Equal(t, 1200.0, item.WeightGrams)
	assert.Equal(t, 1350.0, item.Nutrition.Calories)
	assert.False(t, item.Incomplete)
}

func TestNormalizeSingleEstimateMissingSize(t *testing.T) {
	res := Normalize([]byte(`{"name":"Mystery","calories":100,"protein":1,"carbs":2,"fat":3,"canEstimate":true}`), ShapeSingleEstimate)

	require.Equal(t, KindSingleEstimate, res.Kind)
	assert.Zero(t, res.Items[0].WeightGrams)
	assert.True(t, res.Items[0].Incomplete)
	assert.False(t, res.Confident, "no weight forces confidence off")
}

func TestNormalizeSingleEstimateRespectsUpstreamFlag(t *testing.T) {
	res := Normalize([]byte(`{"name":"Plate","estimatedSize":"400g","calories":700,"protein":30,"carbs":80,"fat":25,"canEstimate":false}`), ShapeSingleEstimate)
	require.Equal(t, KindSingleEstimate, res.Kind)
	assert.False(t, res.Confident)
	assert.False(t, res.Items[0].Incomplete)

	res = Normalize([]byte(`{"name":"Plate","estimatedSize":"400g","calories":700,"protein":30,"carbs":80,"fat":25,"canEstimate":"true"}`), ShapeSingleEstimate)
	assert.True(t, res.Confident)
}

func TestNormalizeMissingAndNegativeNutrition(t *testing.T) {
	payload := `[{"count":1,"name":"Burger","portionSize":"250 g","totalNutrition":{"calories":"540 kcal","protein":-3,"carbs":40}}]`
	res := Normalize([]byte(payload), ShapeMultiItem)

	require.Equal(t, KindMultiItem, res.Kind)
	item := res.Items[0]
	assert.Equal(t, 540.0, item.Nutrition.Calories)
	assert.Zero(t, item.Nutrition.Protein, "negative clamps to zero")
	assert.Equal(t, 40.0, item.Nutrition.Carbs)
	assert.Zero(t, item.Nutrition.Fat, "missing defaults to zero")
	assert.True(t, item.Incomplete)
	assert.Equal(t, 250.0, item.WeightGrams)
}

func TestNormalizeMissingTotalNutrition(t *testing.T) {
	payload := `[{"count":2,"name":"Taco","portionSize":"90g","nutritionPerItem":{"calories":200,"protein":9,"carbs":20,"fat":9}}]`
	res := Normalize([]byte(payload), ShapeMultiItem)

	require.Equal(t, KindMultiItem, res.Kind)
	assert.Equal(t, domain.Nutrition{}, res.Items[0].Nutrition, "per-item values are not used to invent totals")
	assert.True(t, res.Items[0].Incomplete)
	assert.Equal(t, 180.0, res.Items[0].WeightGrams)
}

func TestNormalizeMissingCount(t *testing.T) {
	tests := []struct {
		name  string
		count string
	}{
		{"absent", ``},
		{"words", `"count":"several",`},
		{"zero", `"count":0,`},
		{"negative", `"count":-2,`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := `[{` + tt.count + `"name":"Donut","portionSize":"60 g","totalNutrition":{"calories":240,"protein":3,"carbs":31,"fat":11}}]`
			res := Normalize([]byte(payload), ShapeMultiItem)

			require.Equal(t, KindMultiItem, res.Kind)
			assert.Equal(t, 60.0, res.Items[0].WeightGrams, "weight assumes a single item")
			assert.True(t, res.Items[0].Incomplete)
		})
	}
}

func TestNormalizeMissingName(t *testing.T) {
	res := Normalize([]byte(`[{"count":1,"portionSize":"100g","totalNutrition":{"calories":1,"protein":1,"carbs":1,"fat":1}}]`), ShapeAuto)
	require.Equal(t, KindMultiItem, res.Kind)
	assert.Equal(t, "Unknown food", res.Items[0].Name)
	assert.True(t, res.Items[0].Incomplete)
}

func TestNormalizeEmptyVersusMalformed(t *testing.T) {
	empty := Normalize([]byte(`[]`), ShapeAuto)
	assert.Equal(t, KindEmpty, empty.Kind)
	assert.NoError(t, empty.Err)
	assert.Empty(t, empty.Items)
	assert.False(t, empty.Malformed())

	obj := Normalize([]byte(`{}`), ShapeAuto)
	assert.Equal(t, KindMalformed, obj.Kind)
	assert.Empty(t, obj.Items)
	assert.True(t, obj.Malformed())
	assert.True(t, errors.Is(obj.Err, domain.ErrMalformedRecognition))

	objSingle := Normalize([]byte(`{}`), ShapeSingleEstimate)
	assert.True(t, objSingle.Malformed())
}

func TestNormalizeMalformedPayloads(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		shape Shape
	}{
		{"not json", "Sorry, I cannot see any food.", ShapeAuto},
		{"truncated", `[{"name":"Egg"`, ShapeMultiItem},
		{"blank", "", ShapeAuto},
		{"scalar", `42`, ShapeAuto},
		{"array for single", `[{"name":"x"}]`, ShapeSingleEstimate},
		{"object for multi", `{"name":"x","canEstimate":true}`, ShapeMultiItem},
		{"array of scalars", `[1, "two", null]`, ShapeMultiItem},
		{"object without marker", `{"food":"pizza"}`, ShapeAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Normalize([]byte(tt.raw), tt.shape)
			assert.Equal(t, KindMalformed, res.Kind)
			assert.Empty(t, res.Items)
			var rerr *domain.RecognitionError
			assert.True(t, errors.As(res.Err, &rerr))
		})
	}
}

func TestNormalizeStripsCodeFences(t *testing.T) {
	raw := "Here is the analysis:\n```json\n[{\"count\":1,\"name\":\"Apple\",\"portionSize\":\"182g\",\"totalNutrition\":{\"calories\":95,\"protein\":0.5,\"carbs\":25,\"fat\":0.3}}]\n```"
	res := Normalize([]byte(raw), ShapeAuto)

	require.Equal(t, KindMultiItem, res.Kind)
	assert.Equal(t, "Apple", res.Items[0].Name)
	assert.Equal(t, 182.0, res.Items[0].WeightGrams)
}

func TestNormalizeIgnoresProseAfterPayload(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"after fence", "```json\n{\"name\":\"Ramen\",\"estimatedSize\":\"550g\",\"calories\":600,\"protein\":25,\"carbs\":80,\"fat\":20,\"canEstimate\":true}\n```\nValues are approximate {per bowl}."},
		{"unfenced", `{"name":"Ramen","estimatedSize":"550g","calories":600,"protein":25,"carbs":80,"fat":20,"canEstimate":true} (broth not counted [see note])`},
		{"bracket in preamble", `Estimate [rough]: {"name":"Ramen","estimatedSize":"550g","calories":600,"protein":25,"carbs":80,"fat":20,"canEstimate":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Normalize([]byte(tt.raw), ShapeSingleEstimate)

			require.Equal(t, KindSingleEstimate, res.Kind, "err: %v", res.Err)
			assert.Equal(t, "Ramen", res.Items[0].Name)
			assert.Equal(t, 550.0, res.Items[0].WeightGrams)
			assert.True(t, res.Confident)
		})
	}
}

func TestNormalizeSkipsNonObjectElements(t *testing.T) {
	raw := `["noise", {"count":1,"name":"Pear","portionSize":"170 g","totalNutrition":{"calories":100,"protein":0.6,"carbs":27,"fat":0.2}}]`
	res := Normalize([]byte(raw), ShapeMultiItem)
	require.Equal(t, KindMultiItem, res.Kind)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Pear", res.Items[0].Name)
}

func TestPortionGrams(t *testing.T) {
	tests := []struct {
		raw    string
		grams  float64
		parsed bool
	}{
		{`"150"`, 150, true},
		{`150`, 150, true},
		{`"1 slice (about 120 g)"`, 120, true},
		{`"2 x 50g"`, 50, true},
		{`"8 oz"`, 8 * 28.349523125, true},
		{`"330 ml can"`, 330, true},
		{`"1,200 g"`, 1200, true},
		{`"1 tray (1,500g)"`, 1500, true},
		{`"1 medium apple"`, 0, false},
		{`"one bowl"`, 0, false},
		{`""`, 0, false},
		{`null`, 0, false},
		{`-20`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			g, ok := portionGrams([]byte(tt.raw))
			assert.Equal(t, tt.parsed, ok)
			assert.InDelta(t, tt.grams, g, 1e-9)
		})
	}
}

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		raw   string
		want  float64
		state fieldState
	}{
		{`12`, 12, fieldOK},
		{`"12g"`, 12, fieldOK},
		{`" 7.5 "`, 7.5, fieldOK},
		{`"1,350 kcal"`, 1350, fieldOK},
		{`"12,345,678"`, 12345678, fieldOK},
		{`"1,200.5"`, 1200.5, fieldOK},
		{`"12,5"`, 12.5, fieldOK},
		{`"1,2345"`, 0, fieldMissing},
		{`"1.2.3"`, 0, fieldMissing},
		{`-1`, 0, fieldNegative},
		{`"-3g"`, 0, fieldNegative},
		{`"n/a"`, 0, fieldMissing},
		{`null`, 0, fieldMissing},
		{`true`, 0, fieldMissing},
		{``, 0, fieldMissing},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v, state := coerceNumber([]byte(tt.raw))
			assert.Equal(t, tt.state, state)
			assert.Equal(t, tt.want, v)
		})
	}
}

package vision

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// gramsPerUnit converts mass units to grams. Millilitres are counted 1:1.
var gramsPerUnit = map[string]float64{
	"mg":        0.001,
	"g":         1,
	"gr":        1,
	"gram":      1,
	"grams":     1,
	"kg":        1000,
	"kilogram":  1000,
	"kilograms": 1000,
	"oz":        28.349523125,
	"ounce":     28.349523125,
	"ounces":    28.349523125,
	"lb":        453.59237,
	"lbs":       453.59237,
	"pound":     453.59237,
	"pounds":    453.59237,
	"ml":        1,
}

var (
	leadingNumber  = regexp.MustCompile(`^\s*(\d+(?:[.,]\d+)*)\s*([a-zA-Z]*)`)
	quantityTokens = regexp.MustCompile(`(\d+(?:[.,]\d+)*)\s*([a-zA-Z]+)?`)
	bareNumber     = regexp.MustCompile(`^\s*\d+(?:[.,]\d+)*\s*$`)
)

type fieldState int

const (
	fieldMissing fieldState = iota
	fieldOK
	fieldNegative
)

// coerceNumber reads a loosely typed JSON value as a number. Strings
// contribute their leading numeric run ("200g" -> 200).
func coerceNumber(raw json.RawMessage) (float64, fieldState) {
	if isNull(raw) {
		return 0, fieldMissing
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return 0, fieldNegative
		}
		return n, fieldOK
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fieldMissing
	}
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "-")
	v, ok := leadingValue(strings.TrimPrefix(s, "-"), false)
	if !ok {
		return 0, fieldMissing
	}
	if negative && v > 0 {
		return 0, fieldNegative
	}
	return v, fieldOK
}

// coerceGrams is coerceNumber with a trailing mass unit honoured ("0.5kg" -> 500).
func coerceGrams(raw json.RawMessage) (float64, fieldState) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "-") {
			if _, ok := leadingValue(s[1:], true); ok {
				return 0, fieldNegative
			}
			return 0, fieldMissing
		}
		v, ok := leadingValue(s, true)
		if !ok {
			return 0, fieldMissing
		}
		return v, fieldOK
	}
	return coerceNumber(raw)
}

func leadingValue(s string, withUnit bool) (float64, bool) {
	m := leadingNumber.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, ok := parseDecimal(m[1])
	if !ok {
		return 0, false
	}
	if withUnit {
		if factor, ok := gramsPerUnit[strings.ToLower(m[2])]; ok {
			v *= factor
		}
	}
	return v, true
}

// portionGrams extracts the weight of one portion from free text such as
// "1 slice (about 120 g)". A number only counts when it carries a mass unit,
// or when the text is nothing but a number. Returns false when no weight can
// be read.
func portionGrams(raw json.RawMessage) (float64, bool) {
	if isNull(raw) {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n <= 0 {
			return 0, false
		}
		return n, true
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, false
	}

	if bareNumber.MatchString(text) {
		v, ok := parseDecimal(strings.TrimSpace(text))
		return v, ok && v > 0
	}

	for _, m := range quantityTokens.FindAllStringSubmatch(text, -1) {
		factor, ok := gramsPerUnit[strings.ToLower(m[2])]
		if !ok {
			continue
		}
		v, ok := parseDecimal(m[1])
		if !ok || v <= 0 {
			continue
		}
		return v * factor, true
	}
	return 0, false
}

// parseDecimal reads a run of digits with "." or "," separators. A comma
// followed by exactly three digits groups thousands ("1,200"); a single comma
// followed by one or two digits is a decimal comma ("12,5"). Any other
// arrangement is ambiguous and reports false.
func parseDecimal(s string) (float64, bool) {
	intPart, frac, hasDot := strings.Cut(s, ".")
	if hasDot && strings.ContainsAny(frac, ".,") {
		return 0, false
	}

	if groups := strings.Split(intPart, ","); len(groups) > 1 {
		thousands := len(groups[0]) <= 3
		for _, g := range groups[1:] {
			if len(g) != 3 {
				thousands = false
				break
			}
		}
		switch {
		case thousands:
			intPart = strings.Join(groups, "")
		case !hasDot && len(groups) == 2 && len(groups[1]) <= 2:
			intPart, frac, hasDot = groups[0], groups[1], true
		default:
			return 0, false
		}
	}

	num := intPart
	if hasDot {
		num += "." + frac
	}
	v, err := strconv.ParseFloat(num, 64)
	return v, err == nil
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// coerceBool accepts JSON booleans and "true"/"false" strings.
func coerceBool(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, err := strconv.ParseBool(strings.TrimSpace(s))
		return err == nil && v
	}
	return false
}

package summary

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/R01085B-Limaylla/webContratos/model"
	"github.com/shopspring/decimal"
)

// Source is a contract as read from storage: the flat top-level columns and
// the nested free-form payload. Either may be nil.
type Source struct {
	Flat    map[string]any
	Payload map[string]any
}

// SourceOf adapts a stored row
func SourceOf(c *model.Contract) Source {
	return Source{Flat: c.Columns(), Payload: c.PayloadMap()}
}

type scope int

const (
	scopeFlat scope = iota
	scopePayload
	// scopeLegacy is the "services" object written by the first drafting
	// page, found either as a column or inside the payload.
	scopeLegacy
)

// key names a field inside one scope
type key struct {
	scope scope
	name  string
}

func flat(name string) key    { return key{scopeFlat, name} }
func payload(name string) key { return key{scopePayload, name} }
func legacy(name string) key  { return key{scopeLegacy, name} }

func (s Source) scopeMap(sc scope) map[string]any {
	switch sc {
	case scopeFlat:
		return s.Flat
	case scopePayload:
		return s.Payload
	case scopeLegacy:
		if m, ok := s.Flat["services"].(map[string]any); ok {
			return m
		}
		if m, ok := s.Payload["services"].(map[string]any); ok {
			return m
		}
	}
	return nil
}

// Value returns the first present value across keys, in order
func (s Source) Value(keys ...key) (any, bool) {
	for _, k := range keys {
		m := s.scopeMap(k.scope)
		if m == nil {
			continue
		}
		if v, ok := m[k.name]; ok && !absent(v) {
			return v, true
		}
	}
	return nil, false
}

// Text returns the first present value rendered as trimmed text
func (s Source) Text(keys ...key) (string, bool) {
	v, ok := s.Value(keys...)
	if !ok {
		return "", false
	}
	return textOf(v), true
}

// Amount returns the first present value that coerces to a number
func (s Source) Amount(keys ...key) (decimal.Decimal, bool) {
	v, ok := s.Value(keys...)
	if !ok {
		return decimal.Zero, false
	}
	return ParseAmount(v)
}

// Flag reports whether the first present value is truthy
func (s Source) Flag(keys ...key) bool {
	v, ok := s.Value(keys...)
	if !ok {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "on", "si", "sí", "yes":
			return true
		}
		return false
	}
	if d, ok := ParseAmount(v); ok {
		return !d.IsZero()
	}
	return false
}

// List returns the first present value as a list of trimmed, non-empty strings
func (s Source) List(keys ...key) ([]string, bool) {
	for _, k := range keys {
		m := s.scopeMap(k.scope)
		if m == nil {
			continue
		}
		items, ok := m[k.name].([]any)
		if !ok {
			continue
		}
		if out := cleanList(items); len(out) > 0 {
			return out, true
		}
	}
	return nil, false
}

// Object returns the first present value that is a nested object
func (s Source) Object(keys ...key) (map[string]any, bool) {
	for _, k := range keys {
		m := s.scopeMap(k.scope)
		if m == nil {
			continue
		}
		if obj, ok := m[k.name].(map[string]any); ok && len(obj) > 0 {
			return obj, true
		}
	}
	return nil, false
}

func cleanList(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if absent(item) {
			continue
		}
		out = append(out, textOf(item))
	}
	return out
}

// absent reports whether v carries no value. Literal "null" and
// "undefined" strings come from records written by older clients.
func absent(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		switch strings.TrimSpace(x) {
		case "", "—", "null", "undefined":
			return true
		}
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	case float64:
		return math.IsNaN(x)
	}
	return false
}

func textOf(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case decimal.Decimal:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Bounds of the stored money column, decimal(10,2), widened to tolerate
// float noise in the fraction.
const (
	maxAmountDigits = 8
	minAmountExp    = -20
)

// InRange reports whether |d| < 1e8 with no more than 20 fractional digits
func InRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp < minAmountExp || exp > maxAmountDigits {
		return false
	}
	return d.IsZero() || int64(d.NumDigits())+int64(exp) <= maxAmountDigits
}

// ParseAmount coerces v to a finite number the money column can hold
func ParseAmount(v any) (decimal.Decimal, bool) {
	d, ok := parseAmount(v)
	switch {
	case !ok:
		return decimal.Zero, false
	case d.IsZero():
		return decimal.Zero, true
	case !InRange(d):
		return decimal.Zero, false
	}
	return d, true
}

func parseAmount(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return x, true
	case decimal.NullDecimal:
		return x.Decimal, x.Valid
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(x), true
	case float32:
		return parseAmount(float64(x))
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case uint:
		return decimal.NewFromInt(int64(x)), true
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case string:
		t := strings.TrimSpace(x)
		if t == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(t)
		return d, err == nil
	}
	return decimal.Zero, false
}

// Legacy service-list patterns
var (
	dishCountPattern = regexp.MustCompile(`(?i)^Cantidad de platos:\s*(\d+)`)
	mealPattern      = regexp.MustCompile(`(?i)^Comida:\s*(.*)$`)
	extrasPattern    = regexp.MustCompile(`(?i)^Extras:\s*(.*)$`)

	detailPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^Platos de sitio`),
		regexp.MustCompile(`(?i)^Servilletas`),
		regexp.MustCompile(`(?i)^Copas$`),
		regexp.MustCompile(`(?i)^Cubiertos dorados$`),
		regexp.MustCompile(`(?i)^Mozos:\s*\d+`),
		regexp.MustCompile(`(?i)^Mesas:\s*\d+`),
	}
	barDetailPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^Ayudante de barra$`),
		regexp.MustCompile(`(?i)^Barra móvil$`),
	}
)

// scrapeFirst captures the trailing text of the first entry matching re.
// Only the first matching entry counts, even when its capture is empty.
func scrapeFirst(services []string, re *regexp.Regexp) (string, bool) {
	for _, s := range services {
		m := re.FindStringSubmatch(strings.TrimSpace(s))
		if m == nil {
			continue
		}
		v := strings.TrimSpace(m[1])
		return v, v != ""
	}
	return "", false
}

// scrapeAll keeps, in order, every entry matching any of patterns
func scrapeAll(services []string, patterns []*regexp.Regexp) []string {
	var out []string
	for _, s := range services {
		t := strings.TrimSpace(s)
		for _, re := range patterns {
			if re.MatchString(t) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

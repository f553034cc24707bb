package coercer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"causelens/domain/dataset"
)

// NumericCoercer turns raw cells into finite float64 values
type NumericCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines how forgiving numeric parsing is
type CoercionConfig struct {
	// Lenient strips currency symbols, percent signs, thousands separators and
	// accounting parentheses before parsing. Strict mode only trims whitespace.
	Lenient bool `json:"lenient"`
}

// DefaultCoercionConfig returns strict parsing
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{Lenient: false}
}

// NewNumericCoercer creates a coercer with the given config
func NewNumericCoercer(config CoercionConfig) *NumericCoercer {
	return &NumericCoercer{config: config}
}

// Float converts a raw cell to a finite number. Empty cells, booleans,
// unparseable strings, NaN and ±Inf all report ok=false.
func (c *NumericCoercer) Float(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		return c.tryParseNumeric(v.String())
	case string:
		return c.tryParseNumeric(v)
	case []byte:
		return c.tryParseNumeric(string(v))
	default:
		return 0, false
	}
}

// Column extracts every finite value of a column, skipping the rest
func (c *NumericCoercer) Column(rows []dataset.Row, column string) []float64 {
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v, ok := c.Float(row[column]); ok {
			values = append(values, v)
		}
	}
	return values
}

// tryParseNumeric parses a string cell
func (c *NumericCoercer) tryParseNumeric(strVal string) (float64, bool) {
	cleanVal := strings.TrimSpace(strVal)
	if cleanVal == "" {
		return 0, false
	}

	if c.config.Lenient {
		cleanVal = c.normalizeNumeric(cleanVal)
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil {
		return 0, false
	}
	return finite(val)
}

// normalizeNumeric handles (123) negatives, currency symbols, percent signs
// and thousands separators, including European 1.234,56
func (c *NumericCoercer) normalizeNumeric(cleanVal string) string {
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "USD", "EUR", "GBP", "JPY", "%"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(cleanVal)

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")
	hasSpace := strings.Contains(cleanVal, " ")

	switch {
	case hasComma && (hasPeriod || hasSpace):
		commaIdx := strings.LastIndex(cleanVal, ",")
		periodIdx := strings.LastIndex(cleanVal, ".")
		if commaIdx > periodIdx {
			// 1.234,56 or 1 234,56
			cleanVal = strings.ReplaceAll(cleanVal, ".", "")
			cleanVal = strings.ReplaceAll(cleanVal, " ", "")
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		} else {
			// 1,234.56
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
			cleanVal = strings.ReplaceAll(cleanVal, " ", "")
		}
	case hasComma:
		// 1,234 groups thousands; 12,5 is a decimal comma
		afterComma := cleanVal[strings.LastIndex(cleanVal, ",")+1:]
		if len(afterComma) == 3 {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		}
	default:
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	}

	if isNegative {
		cleanVal = "-" + cleanVal
	}
	return cleanVal
}

func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

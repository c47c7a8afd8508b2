package pricing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is an optional monetary amount. The zero value is an unknown price, which
// is distinct from a known price of zero.
type Price struct {
	amount decimal.Decimal
	known  bool
}

// UnknownPrice returns a price that could not be determined.
func UnknownPrice() Price {
	return Price{}
}

// PriceOf wraps a known amount.
func PriceOf(amount decimal.Decimal) Price {
	return Price{amount: amount, known: true}
}

// Known reports whether the price was parsed successfully.
func (p Price) Known() bool {
	return p.known
}

// Amount returns the parsed amount, or zero when unknown.
func (p Price) Amount() decimal.Decimal {
	if !p.known {
		return decimal.Zero
	}
	return p.amount
}

// Discountable reports whether quantity discounts may be applied to this price.
func (p Price) Discountable() bool {
	return p.known && p.amount.IsPositive()
}

// Float64 returns the amount as a float, collapsing unknown prices to 0.
func (p Price) Float64() float64 {
	return p.Amount().InexactFloat64()
}

// NormalizePrice parses a heterogeneous price representation into a number.
// Unparseable or empty input yields 0.
func NormalizePrice(raw any) float64 {
	return ParsePrice(raw).Float64()
}

// ParsePrice parses currency-prefixed strings, numbers, decimals and raw JSON values.
// Strings keep only digits and '.', then the longest valid numeric prefix is used.
func ParsePrice(raw any) Price {
	switch v := raw.(type) {
	case nil:
		return UnknownPrice()
	case Price:
		return v
	case RawPrice:
		return v.Parse()
	case decimal.Decimal:
		return PriceOf(v)
	case float64:
		return priceFromFloat(v)
	case float32:
		return priceFromFloat(float64(v))
	case int:
		return PriceOf(decimal.NewFromInt(int64(v)))
	case int32:
		return PriceOf(decimal.NewFromInt(int64(v)))
	case int64:
		return PriceOf(decimal.NewFromInt(v))
	case uint:
		return PriceOf(decimal.NewFromInt(int64(v)))
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return UnknownPrice()
		}
		return PriceOf(d)
	case string:
		return parsePriceText(v)
	default:
		return UnknownPrice()
	}
}

func priceFromFloat(v float64) Price {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return UnknownPrice()
	}
	return PriceOf(decimal.NewFromFloat(v))
}

func parsePriceText(value string) Price {
	var b strings.Builder
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	end, digits, seenDot := 0, 0, false
	for i := 0; i < len(cleaned); i++ {
		if cleaned[i] == '.' {
			if seenDot {
				break
			}
			seenDot = true
			end = i + 1
			continue
		}
		digits++
		end = i + 1
	}
	if digits == 0 {
		return UnknownPrice()
	}

	numeric := strings.TrimSuffix(cleaned[:end], ".")
	if strings.HasPrefix(numeric, ".") {
		numeric = "0" + numeric
	}
	amount, err := decimal.NewFromString(numeric)
	if err != nil {
		return UnknownPrice()
	}
	return PriceOf(amount)
}

// RawPrice keeps a price exactly as the catalog sent it: either a JSON string such as
// "₹1,299.00" or a JSON number.
type RawPrice json.RawMessage

// RawNumber builds a RawPrice holding a JSON number.
func RawNumber(value float64) RawPrice {
	return RawPrice(strconv.FormatFloat(value, 'f', -1, 64))
}

// RawText builds a RawPrice holding a JSON string.
func RawText(value string) RawPrice {
	encoded, _ := json.Marshal(value)
	return RawPrice(encoded)
}

// MarshalJSON implements json.Marshaler.
func (r RawPrice) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return []byte(r), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *RawPrice) UnmarshalJSON(data []byte) error {
	*r = append((*r)[0:0], data...)
	return nil
}

// Parse converts the raw value into a Price.
func (r RawPrice) Parse() Price {
	trimmed := strings.TrimSpace(string(r))
	if trimmed == "" || trimmed == "null" {
		return UnknownPrice()
	}
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal([]byte(trimmed), &text); err != nil {
			return UnknownPrice()
		}
		return parsePriceText(text)
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return UnknownPrice()
	}
	return PriceOf(amount)
}

package llm

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Price is the USD cost per 1K tokens for a model family.
type Price struct {
	Input  decimal.Decimal
	Output decimal.Decimal
}

type priceEntry struct {
	family string
	price  Price
}

// ordered most specific first; the first family contained in the model id wins
var pricing = []priceEntry{
	{"claude-3-5-sonnet", price("0.003", "0.015")},
	{"claude-3-haiku", price("0.00025", "0.00125")},
	{"claude-3-sonnet", price("0.003", "0.015")},
	{"claude-3-opus", price("0.015", "0.075")},
	{"gpt-4o-mini", price("0.00015", "0.0006")},
	{"gpt-4o", price("0.0025", "0.01")},
	{"gpt-4-turbo", price("0.01", "0.03")},
	{"gpt-4", price("0.03", "0.06")},
	{"gpt-3.5-turbo", price("0.0015", "0.002")},
	{"gpt-35-turbo", price("0.0015", "0.002")},
}

var thousand = decimal.NewFromInt(1000)

func price(input, output string) Price {
	return Price{
		Input:  decimal.RequireFromString(input),
		Output: decimal.RequireFromString(output),
	}
}

// LookupPrice returns the pricing for model, if its family is known.
func LookupPrice(model string) (Price, bool) {
	m := strings.ToLower(model)
	for _, e := range pricing {
		if strings.Contains(m, e.family) {
			return e.price, true
		}
	}
	return Price{}, false
}

// EstimateCost returns the USD cost of usage, rounded to six places.
// Unknown models cost zero.
func EstimateCost(model string, usage Usage) decimal.Decimal {
	p, ok := LookupPrice(model)
	if !ok {
		return decimal.Zero
	}

	in := decimal.NewFromInt(int64(usage.InputTokens)).Div(thousand).Mul(p.Input)
	out := decimal.NewFromInt(int64(usage.OutputTokens)).Div(thousand).Mul(p.Output)

	return in.Add(out).Round(6)
}

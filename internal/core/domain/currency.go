package domain

// CurrencyCode identifies one of the closed set of currencies an account can
// be denominated in. Transfers never cross currencies.
type CurrencyCode string

const (
	USD CurrencyCode = "USD"
	EUR CurrencyCode = "EUR"
	GBP CurrencyCode = "GBP"
	INR CurrencyCode = "INR"
	JPY CurrencyCode = "JPY"
)

var supportedCurrencies = map[CurrencyCode]struct{}{
	USD: {},
	EUR: {},
	GBP: {},
	INR: {},
	JPY: {},
}

// IsSupported reports whether the code belongs to the closed currency set.
func (c CurrencyCode) IsSupported() bool {
	_, ok := supportedCurrencies[c]
	return ok
}

// SupportedCurrencies returns the closed set of currency codes.
func SupportedCurrencies() []CurrencyCode {
	codes := make([]CurrencyCode, 0, len(supportedCurrencies))
	for c := range supportedCurrencies {
		codes = append(codes, c)
	}
	return codes
}

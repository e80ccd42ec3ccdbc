package model

type Currency string

const (
	RUB Currency = "RUB"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	CNY Currency = "CNY"
	JPY Currency = "JPY"
	CHF Currency = "CHF"
)

// BaseCurrency is the only supported snapshot base.
const BaseCurrency = RUB

var SupportedCurrencies = []Currency{RUB, USD, EUR, GBP, CNY, JPY, CHF}

// ForeignCurrencies is the supported set minus the base. These are the codes
// that must be present in every upstream feed document.
var ForeignCurrencies = foreignCurrencies()

func foreignCurrencies() []Currency {
	foreign := make([]Currency, 0, len(SupportedCurrencies)-1)
	for _, currency := range SupportedCurrencies {
		if currency != BaseCurrency {
			foreign = append(foreign, currency)
		}
	}
	return foreign
}

func (c Currency) IsSupported() bool {
	for _, supportedCurrency := range SupportedCurrencies {
		if c == supportedCurrency {
			return true
		}
	}
	return false
}

func (c Currency) String() string {
	return string(c)
}

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used whenever a Money value is built without one.
const DefaultCurrency = "BRL"

var (
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrInvalidPercent   = errors.New("money: percent must be within [0, 100]")
	ErrInvalidParts     = errors.New("money: parts must be greater than zero")
	ErrInvalidRate      = errors.New("money: rate must be greater than zero")
	ErrDivideByZero     = errors.New("money: division by zero")
)

var (
	hundred = decimal.NewFromInt(100)

	// minor unit digits per ISO-4217 code; unknown codes use 2
	currencyScale = map[string]int32{
		"BRL": 2, "USD": 2, "EUR": 2, "GBP": 2, "JPY": 0, "CLP": 0, "KWD": 3,
	}

	currencySymbol = map[string]string{
		"BRL": "R$", "USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥",
	}
)

// Money is an immutable amount in a single currency. Arithmetic results are
// rounded half-up to the currency's minor unit.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney builds a Money from a decimal amount. An empty currency means DefaultCurrency.
func NewMoney(amount decimal.Decimal, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{amount: amount, currency: strings.ToUpper(currency)}
}

// MoneyFromInt builds a Money of whole major units.
func MoneyFromInt(units int64, currency string) Money {
	return NewMoney(decimal.NewFromInt(units), currency)
}

// MoneyFromMinor builds a Money from minor units (cents).
func MoneyFromMinor(minor int64, currency string) Money {
	m := NewMoney(decimal.Zero, currency)
	m.amount = decimal.New(minor, -m.scale())
	return m
}

// ParseMoney parses a decimal string such as "30.00".
func ParseMoney(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return NewMoney(d, currency), nil
}

// ZeroMoney returns zero in the given currency.
func ZeroMoney(currency string) Money {
	return NewMoney(decimal.Zero, currency)
}

// Amount returns the raw decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the ISO-4217 code.
func (m Money) Currency() string {
	if m.currency == "" {
		return DefaultCurrency
	}
	return m.currency
}

func (m Money) scale() int32 {
	if s, ok := currencyScale[m.Currency()]; ok {
		return s
	}
	return 2
}

// OfficialAmount returns the amount rounded to the currency's minor unit.
func (m Money) OfficialAmount() decimal.Decimal {
	return m.amount.Round(m.scale())
}

func (m Money) official() Money {
	return Money{amount: m.OfficialAmount(), currency: m.Currency()}
}

// ToMinorUnits returns the amount in minor units (cents), rounded half-up.
func (m Money) ToMinorUnits() int64 {
	return m.OfficialAmount().Shift(m.scale()).IntPart()
}

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

func (m Money) sameCurrency(other Money) error {
	if m.Currency() != other.Currency() {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency(), other.Currency())
	}
	return nil
}

// Plus adds other to m.
func (m Money) Plus(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.Currency()}.official(), nil
}

// Minus subtracts other from m.
func (m Money) Minus(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.Currency()}.official(), nil
}

// Times multiplies m by factor.
func (m Money) Times(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.Currency()}.official()
}

// Divide divides m by divisor.
func (m Money) Divide(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, ErrDivideByZero
	}
	return Money{amount: m.amount.DivRound(divisor, m.scale()), currency: m.Currency()}, nil
}

// Negate flips the sign.
func (m Money) Negate() Money {
	return Money{amount: m.amount.Neg(), currency: m.Currency()}
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs(), currency: m.Currency()}
}

// MaxZero clamps negative values to zero.
func (m Money) MaxZero() Money {
	if m.IsNegative() {
		return ZeroMoney(m.Currency())
	}
	return m
}

// Compare returns -1, 0 or 1. Currencies must match.
func (m Money) Compare(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

// GreaterThan reports m > other. Different currencies never compare greater.
func (m Money) GreaterThan(other Money) bool {
	c, err := m.Compare(other)
	return err == nil && c > 0
}

// Equal reports numeric and currency equality.
func (m Money) Equal(other Money) bool {
	return m.Currency() == other.Currency() && m.amount.Equal(other.amount)
}

func validatePercent(percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return ErrInvalidPercent
	}
	return nil
}

// PercentageOf returns percent% of m (percent=15 yields 15% of m).
func (m Money) PercentageOf(percent decimal.Decimal) (Money, error) {
	if err := validatePercent(percent); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Mul(percent).Div(hundred), currency: m.Currency()}.official(), nil
}

// ApplyDiscount returns m reduced by percent%.
func (m Money) ApplyDiscount(percent decimal.Decimal) (Money, error) {
	if err := validatePercent(percent); err != nil {
		return Money{}, err
	}
	factor := decimal.NewFromInt(1).Sub(percent.Div(hundred))
	return m.Times(factor), nil
}

// Allocate splits m into parts shares that differ by at most one minor unit;
// the remainder goes to the first shares.
func (m Money) Allocate(parts int) ([]Money, error) {
	if parts <= 0 {
		return nil, ErrInvalidParts
	}
	total := m.ToMinorUnits()
	base := total / int64(parts)
	remainder := int(total % int64(parts))

	shares := make([]Money, parts)
	for i := range shares {
		minor := base
		if i < remainder {
			minor++
		}
		shares[i] = MoneyFromMinor(minor, m.Currency())
	}
	return shares, nil
}

// ConvertTo converts m into target using an explicit rate.
func (m Money) ConvertTo(target string, rate decimal.Decimal) (Money, error) {
	if !rate.IsPositive() {
		return Money{}, ErrInvalidRate
	}
	return NewMoney(m.amount.Mul(rate), target).official(), nil
}

// String formats the value in the currency's usual locale with as many
// decimals as its minor unit, e.g. "R$ 1.234,56" or "¥ 1,000".
func (m Money) String() string {
	code := m.Currency()
	symbol, ok := currencySymbol[code]
	if !ok {
		symbol = code
	}
	thousands, decimals := ".", ","
	if code == "USD" || code == "GBP" || code == "JPY" {
		thousands, decimals = ",", "."
	}

	s := m.amount.StringFixed(m.scale())
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(thousands)
		}
		b.WriteRune(r)
	}

	out := symbol + " "
	if neg {
		out += "-"
	}
	if frac == "" {
		return out + b.String()
	}
	return out + b.String() + decimals + frac
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// MarshalJSON renders {"amount":"10.50","currency":"BRL"} at official scale.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}{
		Amount:   m.amount.StringFixed(m.scale()),
		Currency: m.Currency(),
	})
}

// UnmarshalJSON accepts the MarshalJSON shape.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = NewMoney(v.Amount, v.Currency)
	return nil
}

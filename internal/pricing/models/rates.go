package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dErrors "cropchain/pkg/domain-errors"
)

// Asset is a CoinGecko coin id.
type Asset string

const (
	AssetPolygon  Asset = "polygon-pos"
	AssetEthereum Asset = "ethereum"
)

// Assets are the coins the feed asks for, in request order.
var Assets = []Asset{AssetPolygon, AssetEthereum}

// Token is the ticker shown next to crypto amounts.
type Token string

const (
	TokenMATIC Token = "MATIC"
	TokenETH   Token = "ETH"
)

func (t Token) Asset() Asset {
	if t == TokenETH {
		return AssetEthereum
	}
	return AssetPolygon
}

func ParseToken(raw string) (Token, error) {
	switch t := Token(strings.ToUpper(strings.TrimSpace(raw))); t {
	case TokenMATIC, TokenETH:
		return t, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "token must be MATIC or ETH, got %q", raw)
}

// Currency is the display currency picked by the user.
type Currency string

const (
	CurrencyCrypto Currency = "CRYPTO"
	CurrencyINR    Currency = "INR"
	CurrencyUSD    Currency = "USD"
)

func ParseCurrency(raw string) (Currency, error) {
	switch c := Currency(strings.ToUpper(strings.TrimSpace(raw))); c {
	case CurrencyCrypto, CurrencyINR, CurrencyUSD:
		return c, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "currency must be CRYPTO, INR or USD, got %q", raw)
}

// Quote is one coin's price. Either side may be missing in a feed response.
type Quote struct {
	INR decimal.NullDecimal `json:"inr"`
	USD decimal.NullDecimal `json:"usd"`
}

func NewQuote(inr, usd string) Quote {
	return Quote{
		INR: decimal.NewNullDecimal(decimal.RequireFromString(inr)),
		USD: decimal.NewNullDecimal(decimal.RequireFromString(usd)),
	}
}

// Rates maps a coin to its quote, shaped like the CoinGecko simple/price body.
type Rates map[Asset]Quote

// FallbackRates are served whenever the live feed cannot be reached.
func FallbackRates() Rates {
	return Rates{
		AssetPolygon:  NewQuote("85.50", "1.05"),
		AssetEthereum: NewQuote("250450.00", "3050.00"),
	}
}

// Source tells whether a snapshot came from the live feed.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

type Snapshot struct {
	Rates     Rates     `json:"rates"`
	Source    Source    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}

// rate picks the multiplier for token in currency. INR falls back to the USD
// quote when the feed has no INR price. Zero counts as missing.
func (r Rates) rate(token Token, currency Currency) (decimal.Decimal, bool) {
	quote, ok := r[token.Asset()]
	if !ok {
		return decimal.Decimal{}, false
	}
	var picked decimal.NullDecimal
	switch currency {
	case CurrencyINR:
		picked = quote.INR
		if !picked.Valid {
			picked = quote.USD
		}
	case CurrencyUSD:
		picked = quote.USD
	}
	if !picked.Valid || picked.Decimal.IsZero() {
		return decimal.Decimal{}, false
	}
	return picked.Decimal, true
}

// Format renders amount of token in currency: "₹123.45" or "$123.45" with two
// decimals, or "{amount} {TOKEN}" for CRYPTO and when no rate is known. The
// symbol follows the requested currency even when the INR rate fell back to
// USD.
func (r Rates) Format(amount decimal.Decimal, token Token, currency Currency) string {
	if currency == CurrencyCrypto {
		return amount.String() + " " + string(token)
	}
	rate, ok := r.rate(token, currency)
	if !ok {
		return amount.String() + " " + string(token)
	}
	symbol := "$"
	if currency == CurrencyINR {
		symbol = "₹"
	}
	return symbol + amount.Mul(rate).StringFixed(2)
}

// Conversion is the answer to a convert request.
type Conversion struct {
	Amount   decimal.Decimal `json:"amount"`
	Token    Token           `json:"token"`
	Currency Currency        `json:"currency"`
	Display  string          `json:"display"`
	Source   Source          `json:"source,omitempty"`
}

package models

// Market identifies which exchange family an instrument trades on.
type Market string

const (
	MarketDomestic Market = "KR"
	MarketForeign  Market = "US"
)

// Instrument is a resolved, canonical tradable symbol.
type Instrument struct {
	Symbol string `json:"symbol"`
	Market Market `json:"market"`
}

// IsDomestic reports whether the instrument trades on KRX.
func (i Instrument) IsDomestic() bool {
	return i.Market == MarketDomestic
}

func (i Instrument) String() string {
	return i.Symbol + " (" + string(i.Market) + ")"
}

package game

// Paytable maps a symbol to its payout per consecutive match count.
// A missing count means no win at that length; only Seven pays at 2.
// GLI-19 §4.4.1: Paytable information
type Paytable map[Symbol]map[int]int64

// flatPaytable holds fixed credit amounts, quoted at the 100-credit
// display bet. Used by the standard endpoint regardless of bet.
var flatPaytable = Paytable{
	SymbolSeven:      {5: 50000, 4: 2500, 3: 500, 2: 100},
	SymbolWatermelon: {5: 7000, 4: 1200, 3: 400},
	SymbolGrape:      {5: 7000, 4: 1200, 3: 400},
	SymbolBell:       {5: 2000, 4: 400, 3: 200},
	SymbolPlum:       {5: 1500, 4: 300, 3: 100},
	SymbolOrange:     {5: 1500, 4: 300, 3: 100},
	SymbolCherry:     {5: 1500, 4: 300, 3: 100},
	SymbolLemon:      {5: 1500, 4: 300, 3: 100},
	// Star and Crown appear on the reels but carry no line pays.
}

// scaledPaytable holds per-unit-bet multipliers (flat values divided by
// the 100-credit display bet). Line payout = value * bet.
var scaledPaytable = Paytable{
	SymbolSeven:      {5: 500, 4: 25, 3: 5, 2: 1},
	SymbolWatermelon: {5: 70, 4: 12, 3: 4},
	SymbolGrape:      {5: 70, 4: 12, 3: 4},
	SymbolBell:       {5: 20, 4: 4, 3: 2},
	SymbolPlum:       {5: 15, 4: 3, 3: 1},
	SymbolOrange:     {5: 15, 4: 3, 3: 1},
	SymbolCherry:     {5: 15, 4: 3, 3: 1},
	SymbolLemon:      {5: 15, 4: 3, 3: 1},
}

// FlatPaytable returns the fixed-credit paytable variant.
func FlatPaytable() Paytable { return flatPaytable }

// ScaledPaytable returns the per-unit-bet multiplier variant.
func ScaledPaytable() Paytable { return scaledPaytable }

// payout resolves the table value for a symbol at a match length,
// applying bet scaling when the variant calls for it.
func (p Paytable) payout(sym Symbol, count int, bet int64, scaled bool) (int64, bool) {
	counts, ok := p[sym]
	if !ok {
		return 0, false
	}
	value, ok := counts[count]
	if !ok {
		return 0, false
	}
	if scaled {
		return value * bet, true
	}
	return value, true
}

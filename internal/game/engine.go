package game

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fruitcab/cabinet/internal/audit"
	"github.com/fruitcab/cabinet/internal/control"
	"github.com/fruitcab/cabinet/internal/rng"
	"github.com/fruitcab/cabinet/internal/wallet"
)

var (
	ErrVariantNotFound     = errors.New("game variant not found")
	ErrInvalidBet          = errors.New("invalid bet amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// VariantStandard and VariantBoosted name the two shipped configurations:
// the default strips with the fixed-credit paytable, and the higher-RTP
// strips with the bet-scaled paytable.
const (
	VariantStandard = "standard"
	VariantBoosted  = "boosted"
)

// Engine executes spins against immutable reel configurations
// GLI-19 §4.1: Game Requirements
type Engine struct {
	db       *sql.DB
	rng      *rng.Service
	wallet   *wallet.Service
	audit    *audit.Service
	control  *control.Service
	variants map[string]*Variant
	currency string

	minBet            int64
	maxBet            int64
	largeWinThreshold int64
}

// Options carries the engine's bet policy.
type Options struct {
	Currency          string
	MinBet            int64
	MaxBet            int64
	LargeWinThreshold int64
}

// New creates a game engine over pre-loaded variants. Variants are
// treated as immutable from here on; concurrent spins share them
// read-only.
func New(db *sql.DB, rngSvc *rng.Service, walletSvc *wallet.Service, auditSvc *audit.Service, controlSvc *control.Service, variants []*Variant, opts Options) *Engine {
	e := &Engine{
		db:                db,
		rng:               rngSvc,
		wallet:            walletSvc,
		audit:             auditSvc,
		control:           controlSvc,
		variants:          make(map[string]*Variant, len(variants)),
		currency:          opts.Currency,
		minBet:            opts.MinBet,
		maxBet:            opts.MaxBet,
		largeWinThreshold: opts.LargeWinThreshold,
	}
	for _, v := range variants {
		e.variants[v.Name] = v
	}
	return e
}

// Variant returns a registered configuration by name.
func (e *Engine) Variant(name string) (*Variant, error) {
	v, ok := e.variants[name]
	if !ok {
		return nil, ErrVariantNotFound
	}
	return v, nil
}

// ReelStop reports where one reel landed and what it shows,
// pre-expansion. The rendering layer uses the image identifiers to pick
// textures; expansion visuals are driven by Settlement.ExpandedReels.
type ReelStop struct {
	Reel     int      `json:"reel"` // 1-based
	Position int      `json:"position"`
	Symbols  []string `json:"symbols"` // 3 image identifiers, top to bottom
}

// WinLine reports one winning payline.
type WinLine struct {
	Payline int      `json:"payline"` // 1-based
	Symbols []string `json:"symbols"` // matched subsequence, image identifiers
	Count   int      `json:"count"`
	Symbol  Symbol   `json:"symbol"` // catalog name of the base symbol
	Payout  int64    `json:"payout"` // credits (cents)
}

// Settlement is the full outcome of one spin
// GLI-19 §4.14: Game Recall
type Settlement struct {
	Reels         []ReelStop `json:"reels"`
	WinLines      []WinLine  `json:"win_lines"`
	TotalWin      int64      `json:"total_win"`
	ExpandedReels []int      `json:"expanded_reels"` // 0-based
	IsWin         bool       `json:"is_win"`
}

// Spin resolves one spin: sample stop positions, extract windows, expand
// wilds, evaluate paylines. Pure given the RNG draws; it never touches
// the wallet. Each step runs exactly once, in order, with no branching
// back (GLI-19 §4.5.2: outcomes determined by RNG, used as directed by
// game rules).
func (e *Engine) Spin(v *Variant, bet int64) (*Settlement, error) {
	if bet <= 0 {
		return nil, ErrInvalidBet
	}

	var windows [NumReels][WindowRows]string
	stops := make([]ReelStop, NumReels)

	for i, strip := range v.Strips {
		stop, err := e.rng.Sample(0, len(strip)-1)
		if err != nil {
			// Entropy failure is fatal for the spin; no fallback.
			return nil, fmt.Errorf("sampling reel %d: %w", i+1, err)
		}
		windows[i] = extractWindow(strip, stop)
		stops[i] = ReelStop{
			Reel:     i + 1,
			Position: stop,
			Symbols:  append([]string(nil), windows[i][:]...),
		}
	}

	expanded, expandedReels := expandWilds(windows)
	wins, total := evaluate(expanded, v.Paytable, bet, v.Scaled)

	settlement := &Settlement{
		Reels:         stops,
		WinLines:      make([]WinLine, 0, len(wins)),
		TotalWin:      total,
		ExpandedReels: expandedReels,
		IsWin:         total > 0,
	}
	if settlement.ExpandedReels == nil {
		settlement.ExpandedReels = []int{}
	}
	for _, w := range wins {
		settlement.WinLines = append(settlement.WinLines, WinLine{
			Payline: w.payline,
			Symbols: w.images,
			Count:   w.count,
			Symbol:  w.symbol,
			Payout:  w.payout,
		})
	}

	return settlement, nil
}

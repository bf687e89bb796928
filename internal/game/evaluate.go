package game

// extractWindow returns the three consecutive (wrapping) image
// identifiers visible on a strip from a stop position. Pure.
func extractWindow(strip []string, stop int) [WindowRows]string {
	var window [WindowRows]string
	for j := 0; j < WindowRows; j++ {
		window[j] = strip[(stop+j)%len(strip)]
	}
	return window
}

// expandWilds applies the expanding-wild rule to the three middle reels:
// a Wild anywhere in the window turns the whole window Wild. Reels 0 and
// 4 are never eligible. Works on a copy; expansion is independent per
// reel, no cascading.
// GLI-19 §4.4.1.m: Wild/substitute symbols
func expandWilds(windows [NumReels][WindowRows]string) ([NumReels][WindowRows]string, []int) {
	expanded := windows
	var expandedReels []int

	for reel := 1; reel <= 3; reel++ {
		hasWild := false
		for row := 0; row < WindowRows; row++ {
			if expanded[reel][row] == wildImage {
				hasWild = true
				break
			}
		}
		if !hasWild {
			continue
		}
		for row := 0; row < WindowRows; row++ {
			expanded[reel][row] = wildImage
		}
		expandedReels = append(expandedReels, reel)
	}

	return expanded, expandedReels
}

// lineWin is one winning payline found by evaluate.
type lineWin struct {
	payline int // 1-based
	symbol  Symbol
	count   int
	images  []string
	payout  int64
}

// evaluate runs all ten paylines against the expanded windows and sums
// the line wins. Paylines are independent; every line can win at once.
func evaluate(windows [NumReels][WindowRows]string, paytable Paytable, bet int64, scaled bool) ([]lineWin, int64) {
	var wins []lineWin
	var total int64

	for i, line := range paylines {
		var images [NumReels]string
		var names [NumReels]Symbol
		for j, c := range line {
			images[j] = windows[c.Reel][c.Row]
			names[j] = SymbolForImage(images[j])
		}

		if win, ok := evaluateLine(images, names, paytable, bet, scaled); ok {
			win.payline = i + 1
			wins = append(wins, win)
			total += win.payout
		}
	}

	return wins, total
}

// evaluateLine finds the best-paying base symbol for one payline.
//
// Candidates are the distinct non-Wild, non-Unknown symbols on the line;
// a line of nothing but Wilds falls back to Seven, the top-paying symbol.
// Each candidate's match length is the left-to-right run of positions
// equal to it or to Wild; Unknown always breaks the run. The candidate
// with the strictly highest payout wins; equal payouts resolve to the
// lexically smallest symbol name, so the outcome never depends on map
// iteration order.
func evaluateLine(images [NumReels]string, names [NumReels]Symbol, paytable Paytable, bet int64, scaled bool) (lineWin, bool) {
	var candidates []Symbol
	seen := make(map[Symbol]bool, NumReels)
	for _, name := range names {
		if name == SymbolWild || name == SymbolUnknown || seen[name] {
			continue
		}
		seen[name] = true
		candidates = append(candidates, name)
	}

	if len(candidates) == 0 {
		candidates = []Symbol{SymbolSeven}
	}
	sortSymbols(candidates)

	best := lineWin{}
	found := false

	for _, candidate := range candidates {
		count := 0
		for _, name := range names {
			if name != candidate && name != SymbolWild {
				break
			}
			count++
		}

		payout, ok := paytable.payout(candidate, count, bet, scaled)
		if !ok {
			continue
		}
		if !found || payout > best.payout {
			best = lineWin{
				symbol: candidate,
				count:  count,
				images: append([]string(nil), images[:count]...),
				payout: payout,
			}
			found = true
		}
	}

	return best, found
}

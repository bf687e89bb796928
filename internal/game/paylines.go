package game

// NumReels is the number of physical reels.
const NumReels = 5

// WindowRows is the number of visible rows per reel.
const WindowRows = 3

// NumPaylines is the number of fixed paylines.
const NumPaylines = 10

// Coord addresses one window cell on a payline.
type Coord struct {
	Reel int
	Row  int
}

// paylines are the ten fixed line shapes, identical for every spin.
// Rows: 0 top, 1 middle, 2 bottom.
var paylines = [NumPaylines][NumReels]Coord{
	{{0, 1}, {1, 1}, {2, 1}, {3, 1}, {4, 1}}, // 1: middle
	{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}, // 2: top
	{{0, 2}, {1, 2}, {2, 2}, {3, 2}, {4, 2}}, // 3: bottom
	{{0, 0}, {1, 1}, {2, 2}, {3, 1}, {4, 0}}, // 4: V
	{{0, 2}, {1, 1}, {2, 0}, {3, 1}, {4, 2}}, // 5: inverted V
	{{0, 0}, {1, 0}, {2, 1}, {3, 2}, {4, 2}}, // 6
	{{0, 2}, {1, 2}, {2, 1}, {3, 0}, {4, 0}}, // 7
	{{0, 1}, {1, 2}, {2, 2}, {3, 2}, {4, 1}}, // 8
	{{0, 1}, {1, 0}, {2, 0}, {3, 0}, {4, 1}}, // 9
	{{0, 0}, {1, 1}, {2, 1}, {3, 1}, {4, 0}}, // 10
}

// Paylines returns the fixed payline table.
func Paylines() [NumPaylines][NumReels]Coord {
	return paylines
}

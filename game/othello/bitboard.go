package othello

import "math/bits"

const (
	aFile uint64 = 0x0101010101010101
	hFile uint64 = 0x8080808080808080

	notAFile = ^aFile
	notHFile = ^hFile

	initialBlack uint64 = 0x0000000810000000
	initialWhite uint64 = 0x0000001008000000
)

// direction is a bitboard shift. Positive amounts shift towards higher square indices.
// mask removes the bits that wrapped around a board edge after the shift.
type direction struct {
	amount int
	mask   uint64
}

// directions are the eight compass directions with bit i at (row i/8, column i%8)
var directions = [8]direction{
	{1, notAFile},  // east
	{-1, notHFile}, // west
	{8, ^uint64(0)},
	{-8, ^uint64(0)},
	{9, notAFile},  // south east
	{7, notHFile},  // south west
	{-7, notAFile}, // north east
	{-9, notHFile}, // north west
}

func (d direction) shift(bb uint64) uint64 {
	if d.amount > 0 {
		return (bb << uint(d.amount)) & d.mask
	}
	return (bb >> uint(-d.amount)) & d.mask
}

// LegalPlacements returns the bitboard of empty squares where own may place a stone,
// that is, squares that bracket at least one line of opp stones.
func LegalPlacements(own, opp uint64) uint64 {
	empty := ^(own | opp)
	var moves uint64
	for _, d := range directions {
		x := d.shift(own) & opp
		// a line of opponent stones is at most six long
		for i := 0; i < 5; i++ {
			x |= d.shift(x) & opp
		}
		moves |= d.shift(x) & empty
	}
	return moves
}

// Flips returns the opp stones captured by placing own's stone on square.
func Flips(square int, own, opp uint64) uint64 {
	mov := uint64(1) << uint(square)
	var flipped uint64
	for _, d := range directions {
		var line uint64
		x := d.shift(mov)
		for x&opp != 0 {
			line |= x
			x = d.shift(x)
		}
		if x&own != 0 {
			flipped |= line
		}
	}
	return flipped
}

// resolve places own's stone on square, returning the new own and opp bitboards.
func resolve(square int, own, opp uint64) (uint64, uint64) {
	flipped := Flips(square, own, opp)
	mov := uint64(1) << uint(square)
	return own | flipped | mov, opp &^ flipped
}

func popcount(bb uint64) int { return bits.OnesCount64(bb) }

// squares lists the set bits of bb in ascending order.
func squares(bb uint64) []int {
	retVal := make([]int, 0, popcount(bb))
	for bb != 0 {
		sq := bits.TrailingZeros64(bb)
		retVal = append(retVal, sq)
		bb &= bb - 1
	}
	return retVal
}

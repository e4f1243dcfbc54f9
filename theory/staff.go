package theory

import "math"

// Staff positions from high to low; index 11 is the top line of the staff.
var trebleNotes = []string{
	"C7", "B6", "A6", "G6", "F6", "E6", "D6", "C6", "B5", "A5", "G5",
	"F5", "E5", "D5", "C5", "B4", "A4", "G4", "F4", "E4", "D4", "C4",
	"B3", "A3", "G3", "F3", "E3", "D3", "C3",
}

var bassNotes = []string{
	"E5", "D5", "C5", "B4", "A4", "G4", "F4", "E4", "D4", "C4", "B3",
	"A3", "G3", "F3", "E3", "D3", "C3", "B2", "A2", "G2", "F2", "E2",
	"D2", "C2", "B1", "A1", "G1", "F1", "E1",
}

const topLineIdx = 11

// PitchAtY maps a vertical click position to the scientific name of the
// staff position under it. Every half line gap is one diatonic step;
// positions beyond the table stick to its ends.
func PitchAtY(y, topLineY, lineGap float64, clef Clef) string {
	table := trebleNotes
	if clef == Bass {
		table = bassNotes
	}
	if lineGap <= 0 {
		return table[topLineIdx]
	}
	steps := int(math.Round((topLineY - y) / (lineGap / 2)))
	idx := topLineIdx - steps
	idx = max(0, min(idx, len(table)-1))
	return table[idx]
}

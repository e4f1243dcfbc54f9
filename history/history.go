// Package history records text edits as prefix/suffix patches so they can
// be undone and redone.
package history

// Edit replaces Old with Patch between the first P1 bytes and the last P2
// bytes of the text. P2 counts from the end of whatever text the edit is
// applied to.
type Edit struct {
	P1    int
	P2    int
	Patch string
	Old   string
}

// History is a linear undo stack. Cursor is the number of applied edits.
type History struct {
	entries []Edit
	cursor  int
}

func New() *History {
	return &History{}
}

func diff(oldText, newText string) Edit {
	p1 := 0
	for p1 < len(oldText) && p1 < len(newText) && oldText[p1] == newText[p1] {
		p1++
	}
	p2 := 0
	for p2 < len(oldText)-p1 && p2 < len(newText)-p1 &&
		oldText[len(oldText)-1-p2] == newText[len(newText)-1-p2] {
		p2++
	}
	return Edit{
		P1:    p1,
		P2:    p2,
		Patch: newText[p1 : len(newText)-p2],
		Old:   oldText[p1 : len(oldText)-p2],
	}
}

// AddEdit records the change from oldText to newText and drops the redo
// future. Identical texts record nothing.
func (h *History) AddEdit(oldText, newText string) {
	if oldText == newText {
		return
	}
	h.entries = append(h.entries[:h.cursor], diff(oldText, newText))
	h.cursor++
}

func splice(text string, p1, p2 int, middle string) (string, bool) {
	if p1+p2 > len(text) {
		return text, false
	}
	return text[:p1] + middle + text[len(text)-p2:], true
}

// Undo reverts the last applied edit on text.
func (h *History) Undo(text string) (string, bool) {
	if !h.CanUndo() {
		return text, false
	}
	e := h.entries[h.cursor-1]
	r, ok := splice(text, e.P1, e.P2, e.Old)
	if !ok {
		return text, false
	}
	h.cursor--
	return r, true
}

// Redo applies the next undone edit on text.
func (h *History) Redo(text string) (string, bool) {
	if !h.CanRedo() {
		return text, false
	}
	e := h.entries[h.cursor]
	r, ok := splice(text, e.P1, e.P2, e.Patch)
	if !ok {
		return text, false
	}
	h.cursor++
	return r, true
}

func (h *History) CanUndo() bool {
	return h.cursor > 0
}

func (h *History) CanRedo() bool {
	return h.cursor < len(h.entries)
}

// Len is the number of recorded edits, undone ones included.
func (h *History) Len() int {
	return len(h.entries)
}

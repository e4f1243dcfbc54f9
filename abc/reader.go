// reader.go
package abc

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// sReader walks one source line rune by rune while keeping track of the
// absolute byte offset of every rune in the full notation text.
type sReader struct {
	data []rune
	offs []int
	idx  int
}

func sReaderNew(str string, base int) *sReader {
	p := &sReader{
		data: []rune(str),
		idx:  0,
	}
	p.offs = make([]int, 0, len(p.data)+1)
	o := base
	for _, c := range p.data {
		p.offs = append(p.offs, o)
		o += utf8.RuneLen(c)
	}
	p.offs = append(p.offs, o)
	// Strip comment
	escape := false
	for i, c := range p.data {
		if !escape && c == '%' {
			p.data = p.data[:i]
			p.offs = p.offs[:i+1]
			break
		}
		escape = c == '\\'
	}
	return p
}

// Pos returns the absolute byte offset of the next rune.
func (r *sReader) Pos() int {
	if r.idx >= len(r.data) {
		return r.offs[len(r.offs)-1]
	}
	return r.offs[r.idx]
}

func (r *sReader) Next() (c rune) {
	if r.idx >= len(r.data) {
		r.idx++
		return rune(0)
	}
	res := r.data[r.idx]
	r.idx++
	return res
}
func (r *sReader) Peek() rune {
	if r.idx >= len(r.data) {
		return rune(0)
	}
	return r.data[r.idx]
}
func (r *sReader) PeekN(d int) rune {
	if r.idx+d >= len(r.data) {
		return rune(0)
	}
	return r.data[r.idx+d]
}
func (r *sReader) UnRead() {
	if r.idx == 0 {
		return
	}
	r.idx--
}
func (r *sReader) Rest() string {
	if r.idx >= len(r.data) {
		return ""
	}
	return string(r.data[r.idx:])
}

// SkipSpace skips blanks and reports whether anything was skipped.
func (r *sReader) SkipSpace() bool {
	skipped := false
	for {
		c := r.Next()
		if c == 0 || !unicode.IsSpace(c) {
			r.UnRead()
			return skipped
		}
		skipped = true
	}
}
func (r *sReader) String() string {
	i := min(r.idx, len(r.data))
	return fmt.Sprintf("Parser:[%d]%v ... %v", r.idx, string(r.data[:i]), string(r.data[i:]))
}
func (r *sReader) Eat(c rune) int {
	count := 0
	for r.Next() == c {
		count++
	}
	r.UnRead()
	return count
}
func (r *sReader) ReadInt(defaultValue int) int {
	found := false
	val := 0
	for {
		d := r.Next()
		if d != 0 && unicode.IsDigit(d) {
			found = true
			val = val*10 + int(d-'0')
		} else {
			r.UnRead()
			break
		}
	}
	if found {
		return val
	}
	return defaultValue
}

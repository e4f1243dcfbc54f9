// info
package abc

import (
	"strconv"
	"strings"
)

// Unit ************************************************************************
func (pctx *Parser) parseUnit(value string) {
	a, b, ok := parseFract(value)
	if !ok || a != 1 || b == 0 {
		pctx.warn(nil, "Odd Unit")
		return
	}
	pctx.unit = 1 / float64(b)
	pctx.unitSet = true
}

// Meter ***********************************************************************
func (pctx *Parser) parseMeter(value string) {
	switch value {
	case "C":
		pctx.measure = 1
		return
	case "C|":
		pctx.measure = 1
		return
	case "none", "":
		return
	}
	beats := 0
	num, den, found := strings.Cut(value, "/")
	if !found {
		pctx.warn(nil, "Meter syntax error")
		return
	}
	for _, s := range strings.Split(strings.Trim(num, "() "), "+") {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			pctx.warn(nil, "Meter syntax error")
			return
		}
		beats += n
	}
	d, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil || d == 0 {
		pctx.warn(nil, "Meter syntax error")
		return
	}
	pctx.measure = float64(beats) / float64(d)
}

func parseFract(value string) (int, int, bool) {
	num, den, found := strings.Cut(value, "/")
	if !found {
		return 0, 0, false
	}
	a, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}

// Voice ***********************************************************************
func (pctx *Parser) parseVoice(value string) {
	id, _, _ := strings.Cut(value, " ")
	if pctx.voice == "" {
		pctx.voice = id
	}
	if id != pctx.voice && !pctx.skipVoice {
		pctx.warn(nil, "Multiple voices not supported")
	}
	pctx.skipVoice = id != pctx.voice
}

// *****************************************************************************
func (pctx *Parser) processInfo(r *sReader) {
	t := r.Next()
	r.Next() // Skip ':'
	pctx.processField(t, strings.TrimSpace(r.Rest()))
}

func (pctx *Parser) processField(t rune, value string) {
	switch t {
	case 'M':
		if pctx.inBody {
			// Measures are laid out with the header meter only
			pctx.warn(nil, "Meter change ignored")
			return
		}
		pctx.parseMeter(value)
	case 'L':
		pctx.parseUnit(value)
	case 'V':
		pctx.parseVoice(value)
	default:
		// Key, title, lyrics... do not change how the body is read
	}
}

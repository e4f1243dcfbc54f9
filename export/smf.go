package export

import (
	"io"
	"math"
	"sort"

	"github.com/Southclaws/fault"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const ticksPerQuarter = 960

// SMF writes a score as a format 1 Standard MIDI File: a tempo track then a
// single note track.
type SMF struct {
	Tempo    float64
	Channel  uint8
	Velocity uint8
	Program  uint8
}

func SMFNew(tempo float64) *SMF {
	if tempo <= 0 {
		tempo = 120
	}
	return &SMF{Tempo: tempo, Velocity: 90}
}

type sounding struct {
	start, end int64
	key        uint8
}

// soundings lays the notes out in ticks. A tied note extends the previous
// note with the same key.
func soundings(s Score) []sounding {
	var out []sounding
	open := map[int]int{}
	var t int64
	for _, m := range s.Measures {
		for ni, n := range m.Notes {
			d := int64(math.Round(n.Weight() * 4 * ticksPerQuarter))
			if n.Rest {
				t += d
				continue
			}
			next := map[int]int{}
			for _, p := range n.Pitches {
				pt, ok := pitchOf(m, ni, p, s.Header.Key)
				if !ok || pt.midi < 0 || pt.midi > 127 {
					continue
				}
				idx, tied := open[pt.midi]
				if tied && out[idx].end == t {
					out[idx].end = t + d
				} else {
					idx = len(out)
					out = append(out, sounding{start: t, end: t + d, key: uint8(pt.midi)})
				}
				if p.StartTie {
					next[pt.midi] = idx
				}
			}
			open = next
			t += d
		}
	}
	return out
}

// Write encodes s and returns the number of bytes written.
func (w *SMF) Write(out io.Writer, s Score) (int64, error) {
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var meta smf.Track
	if s.Title != "" {
		meta.Add(0, smf.MetaText(s.Title))
	}
	meta.Add(0, smf.MetaMeter(uint8(s.Header.Time.Upper), uint8(s.Header.Time.Lower)))
	meta.Add(0, smf.MetaTempo(w.Tempo))
	meta.Close(0)
	if err := sm.Add(meta); err != nil {
		return 0, fault.Wrap(err)
	}

	type event struct {
		tick int64
		on   bool
		key  uint8
	}
	var events []event
	for _, sn := range soundings(s) {
		events = append(events, event{sn.start, true, sn.key}, event{sn.end, false, sn.key})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return !events[i].on && events[j].on
	})

	var track smf.Track
	track.Add(0, midi.ProgramChange(w.Channel, w.Program))
	var last int64
	for _, ev := range events {
		delta := uint32(ev.tick - last)
		last = ev.tick
		if ev.on {
			track.Add(delta, midi.NoteOn(w.Channel, ev.key, w.Velocity))
		} else {
			track.Add(delta, midi.NoteOff(w.Channel, ev.key))
		}
	}
	track.Close(0)
	if err := sm.Add(track); err != nil {
		return 0, fault.Wrap(err)
	}
	n, err := sm.WriteTo(out)
	if err != nil {
		return n, fault.Wrap(err)
	}
	return n, nil
}

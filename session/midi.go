package session

import (
	"context"
	"log/slog"

	"gitlab.com/gomidi/midi/v2"
)

// MIDIInput returns a listener for midi.ListenTo that enters every note
// start as a note of s. Note ends and zero velocity starts are ignored.
func MIDIInput(ctx context.Context, l *Loop, s *Session) func(msg midi.Message, timestampms int32) {
	return func(msg midi.Message, timestampms int32) {
		var ch, key, vel uint8
		if !msg.GetNoteStart(&ch, &key, &vel) {
			return
		}
		err := l.Do(ctx, func() {
			if _, ok := s.AddMIDI(int(key)); !ok {
				s.logger.Debug("midi note refused", "key", key)
			}
		})
		if err != nil {
			s.logger.Warn("midi input", "error", err)
		}
	}
}

// MIDIFeedback turns pitches into note-on messages for send, as returned
// by midi.SendTo. It fits Session.OnPitch.
func MIDIFeedback(channel, velocity uint8, send func(midi.Message) error) func(int) {
	return func(pitch int) {
		if pitch < 0 || pitch > 127 {
			return
		}
		if err := send(midi.NoteOn(channel, uint8(pitch), velocity)); err != nil {
			slog.Warn("midi feedback", "pitch", pitch, "error", err)
		}
	}
}

package dispatch

import "time"

// KeyEventKind distinguishes a key press from its release.
type KeyEventKind int

const (
	KeyPress KeyEventKind = iota
	KeyRelease
)

// RawKeyEvent is the shape the terminal input reader produces, before
// normalization. Keycode is a terminal-reported identifier (kitty
// keyboard protocol code, or a synthesized one for legacy terminals
// that only ever report presses).
type RawKeyEvent struct {
	Kind    KeyEventKind
	Keycode rune
	Runes   []rune
}

// NormalizedKey is what reaches the rest of the dispatcher: a key that
// is known to be currently held down (Press) or just released
// (Release), with spurious releases for keys never reported as pressed
// filtered out.
type NormalizedKey struct {
	Kind    KeyEventKind
	Keycode rune
	Runes   []rune
}

// KeyNormalizer tracks which keycodes are currently reported as
// pressed so Release events for keys we never saw a Press for (legacy
// terminals, or a dropped event) are discarded rather than forwarded
// as spurious releases. Terminals without the kitty keyboard protocol
// only ever send presses for \r, \n, \t and Esc; those are synthesized
// as an immediate Press+Release pair.
type KeyNormalizer struct {
	pressed map[rune]bool
}

// NewKeyNormalizer returns a normalizer with no keys held.
func NewKeyNormalizer() *KeyNormalizer {
	return &KeyNormalizer{pressed: make(map[rune]bool)}
}

// syntheticReleaseKeys are keycodes legacy terminals report as a bare
// Press with no matching Release; synthesizing the Release immediately
// keeps downstream press/release-driven state machines consistent.
var syntheticReleaseKeys = map[rune]bool{
	'\r': true, '\n': true, '\t': true, 0x1b: true, // Esc
}

// Normalize feeds one raw terminal key event and returns zero, one, or
// two NormalizedKey events in emission order.
func (n *KeyNormalizer) Normalize(raw RawKeyEvent) []NormalizedKey {
	switch raw.Kind {
	case KeyPress:
		n.pressed[raw.Keycode] = true
		out := []NormalizedKey{{Kind: KeyPress, Keycode: raw.Keycode, Runes: raw.Runes}}
		if syntheticReleaseKeys[raw.Keycode] {
			delete(n.pressed, raw.Keycode)
			out = append(out, NormalizedKey{Kind: KeyRelease, Keycode: raw.Keycode, Runes: raw.Runes})
		}
		return out
	case KeyRelease:
		if !n.pressed[raw.Keycode] {
			return nil
		}
		delete(n.pressed, raw.Keycode)
		return []NormalizedKey{{Kind: KeyRelease, Keycode: raw.Keycode, Runes: raw.Runes}}
	default:
		return nil
	}
}

const escKeycode = 0x1b
const ctrlC = 0x03

// escThreshold is the window within which a second Esc press counts as
// a "double Esc", per spec.md §4.7.
const escThreshold = 600 * time.Millisecond

// EscStep enumerates the three-step Esc policy's rungs.
type EscStep int

const (
	EscNone EscStep = iota
	EscClearComposer
	EscCancelRun
	EscJumpBack
)

// EscPolicy implements the three-step escalating Esc behavior: the
// first Esc clears the composer (or, when it is already empty, cancels
// the active run straight away),
// repeating within escThreshold cancels the active run, and a third Esc
// within the window opens jump-back. Any key other than Esc, or a gap
// longer than escThreshold, resets the ladder to the top.
type EscPolicy struct {
	step     EscStep
	lastPress time.Time
	now      func() time.Time
}

// NewEscPolicy returns a fresh policy. now defaults to time.Now when
// nil (tests can inject a fake clock).
func NewEscPolicy(now func() time.Time) *EscPolicy {
	if now == nil {
		now = time.Now
	}
	return &EscPolicy{now: now}
}

// Press advances the ladder and returns the action the caller should
// take for this Esc press. composerEmpty lets the caller skip the
// "clear composer" rung when there is nothing to clear, going straight
// to cancel.
func (p *EscPolicy) Press(composerEmpty bool) EscStep {
	now := p.now()
	if p.step != EscNone && now.Sub(p.lastPress) > escThreshold {
		p.step = EscNone
	}
	p.lastPress = now

	switch p.step {
	case EscNone:
		if composerEmpty {
			p.step = EscCancelRun
			return EscCancelRun
		}
		p.step = EscClearComposer
		return EscClearComposer
	case EscClearComposer:
		p.step = EscCancelRun
		return EscCancelRun
	default:
		p.step = EscJumpBack
		return EscJumpBack
	}
}

// Reset returns the ladder to its initial rung, e.g. after any non-Esc
// key is handled.
func (p *EscPolicy) Reset() { p.step = EscNone }

// CtrlCPolicy implements the cancel-then-exit cycle: the first Ctrl+C
// cancels the active run (or, when none is running, exits at once), and a
// second Ctrl+C with no intervening other key exits the program.
type CtrlCPolicy struct {
	armed bool
}

// CtrlCAction is what the caller should do in response to a Ctrl+C.
type CtrlCAction int

const (
	CtrlCCancel CtrlCAction = iota
	CtrlCExit
)

// Press returns CtrlCCancel the first time (arming the exit), then
// CtrlCExit on an immediate repeat. hasRunning selects whether the
// first press has anything to cancel; when nothing is running the
// first press already returns CtrlCExit.
func (c *CtrlCPolicy) Press(hasRunning bool) CtrlCAction {
	if c.armed {
		return CtrlCExit
	}
	c.armed = true
	if hasRunning {
		return CtrlCCancel
	}
	return CtrlCExit
}

// Disarm clears the exit arm, called whenever any other key is pressed.
func (c *CtrlCPolicy) Disarm() { c.armed = false }

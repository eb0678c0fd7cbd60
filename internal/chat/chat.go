// Package chat moderates and rate-limits client chat messages before they
// are broadcast, spec.md 6's Chat(msg) request and SPEC_FULL.md 4.12.
package chat

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/finnbear/moderation"
)

// maxRecentLengths bounds the rolling window history.update keeps per
// client to flag repetitive, low-variance spam, matching
// mk48/chat_history.go's ChatHistory.recentLengths.
const maxRecentLengths = 7

// history is one client's moderation state, adapted field-for-field from
// mk48/chat_history.go's ChatHistory — total/inappropriate message counts
// that fade out over time, plus a short rolling window of recent message
// lengths used to flag flooding with near-identical messages.
type history struct {
	total         float32
	inappropriate float32

	recentLengths      [maxRecentLengths]uint8
	recentLengthsIndex int8

	updatedMillis int64
}

// Moderator holds one history per connected client, grounded on
// mk48/inbound.go's per-player ChatHistory field — keyed explicitly by
// ClientID here since this repository's Client objects live in
// internal/world, not in a per-connection struct chat can attach to
// directly.
type Moderator struct {
	histories map[int32]*history
}

// NewModerator creates an empty Moderator.
func NewModerator() *Moderator {
	return &Moderator{histories: make(map[int32]*history)}
}

// Forget drops a disconnected client's history, called from RemoveClient
// so a long-departed client's moderation state does not accumulate
// forever.
func (m *Moderator) Forget(client int32) {
	delete(m.histories, client)
}

// Check runs msg through github.com/finnbear/moderation and the rolling
// spam heuristics, returning the (possibly censored) message and whether
// it should be broadcast. A rejected message is a chat-local validation
// failure (spec.md 7): the caller drops it silently, never kicks the
// client over it, per SPEC_FULL.md 4.12.
func (m *Moderator) Check(client int32, msg string) (clean string, ok bool) {
	h, found := m.histories[client]
	if !found {
		h = &history{}
		m.histories[client] = h
	}
	return h.update(msg)
}

// update is mk48/chat_history.go's ChatHistory.Update, translated
// verbatim in structure: scan and censor through moderation, fold the
// result into the fading total/inappropriate counters, then combine
// three independent spam signals (frequency, inappropriate fraction,
// and length-repetition) into a single accept/reject verdict.
func (h *history) update(msg string) (string, bool) {
	h.total++
	result := moderation.Scan(msg)
	inappropriate := result.Is(moderation.Inappropriate)
	severelyInappropriate := result.Is(moderation.Inappropriate & moderation.Severe)

	var censorAmount int
	if inappropriate {
		msg, censorAmount = moderation.Censor(msg, moderation.Inappropriate)
		h.inappropriate++
	}
	inappropriateFraction := h.inappropriate / h.total

	n := uint8(math32.MaxUint8)
	if len(msg) < math32.MaxUint8 {
		n = uint8(len(msg))
	}
	h.recentLengths[h.recentLengthsIndex] = n
	h.recentLengthsIndex = int8(int(h.recentLengthsIndex+1) % len(h.recentLengths))

	var averageLength float32
	for _, length := range h.recentLengths {
		averageLength += float32(length)
	}
	averageLength /= float32(len(h.recentLengths))

	lengthSpecificDeviation := int(n) - int(averageLength)
	if lengthSpecificDeviation < 0 {
		lengthSpecificDeviation = -lengthSpecificDeviation
	}

	var lengthStandardDeviation float32
	for _, length := range h.recentLengths {
		deviation := averageLength - float32(length)
		lengthStandardDeviation += deviation * deviation
	}
	lengthStandardDeviation /= float32(len(h.recentLengths))

	now := time.Now().UnixMilli()
	seconds := (now - h.updatedMillis) / 1000
	if h.updatedMillis == 0 {
		h.updatedMillis = now
	} else if seconds > 0 {
		fadeRate := float32(0.95)
		switch {
		case h.inappropriate > 5 && inappropriateFraction > 0.5:
			fadeRate = 0.999999
		case h.inappropriate > 4 && inappropriateFraction > 0.4:
			fadeRate = 0.99999
		case h.inappropriate > 3 && inappropriateFraction > 0.3:
			fadeRate = 0.9999
		case inappropriateFraction > 0.2:
			fadeRate = 0.999
		case inappropriateFraction > 0.1:
			fadeRate = 0.99
		}
		fade := math32.Pow(fadeRate, float32(seconds))
		h.total *= fade
		h.inappropriate *= fade
		h.updatedMillis = now
	}

	const repetitionThresholdTotal = 3
	frequencySpam := h.total >= 10
	inappropriateSpam := h.inappropriate > 2 && inappropriateFraction > 0.20
	repetitionSpam := int(h.total) > repetitionThresholdTotal && lengthStandardDeviation < 3 && lengthSpecificDeviation < 3

	block := (inappropriate && censorAmount > 4) || severelyInappropriate || frequencySpam || inappropriateSpam || repetitionSpam
	return msg, !block
}

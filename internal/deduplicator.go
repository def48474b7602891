package internal

import (
	"crypto/sha256"
	"encoding/hex"
)

// Deduplicator removes replayed messages. Claude Code copies earlier history
// into a new transcript when a conversation is resumed or forked, so the same
// record can be read several times.
type Deduplicator struct{}

// NewDeduplicator creates a new Deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Deduplicate keeps the first message for every (source, id). Messages
// without an id are always kept.
func (d *Deduplicator) Deduplicate(msgs []RawMessage) []RawMessage {
	seen := make(map[string]bool)
	unique := make([]RawMessage, 0, len(msgs))

	for _, msg := range msgs {
		if msg.ID == "" {
			unique = append(unique, msg)
			continue
		}
		key := d.messageKey(msg)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, msg)
	}

	return unique
}

// messageKey hashes source and id
func (d *Deduplicator) messageKey(msg RawMessage) string {
	h := sha256.New()
	h.Write([]byte(msg.Source))
	h.Write([]byte{0})
	h.Write([]byte(msg.ID))
	return hex.EncodeToString(h.Sum(nil))
}

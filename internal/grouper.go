package internal

import "sort"

// SortSession returns the session's messages ordered by timestamp. Messages
// without a timestamp sort before all others; ties keep their load order.
// The input slice is not modified.
func SortSession(msgs []RawMessage) []RawMessage {
	sorted := make([]RawMessage, len(msgs))
	copy(sorted, msgs)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Timestamp, sorted[j].Timestamp
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	return sorted
}

package events

import "slices"

// Sequence sorts events in place by (BlockNumber, LogIndex) ascending and returns them.
// The sort is stable, so duplicates keep their input order.
func Sequence(evs []*Event) []*Event {
	slices.SortStableFunc(evs, func(a, b *Event) int {
		if a.BlockNumber != b.BlockNumber {
			if a.BlockNumber < b.BlockNumber {
				return -1
			}
			return 1
		}
		switch {
		case a.LogIndex < b.LogIndex:
			return -1
		case a.LogIndex > b.LogIndex:
			return 1
		default:
			return 0
		}
	})
	return evs
}

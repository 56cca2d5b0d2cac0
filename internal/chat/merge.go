package chat

import "sort"

// Merge reconciles one incoming message into a displayed list. A message
// whose id is already present is a duplicate (push replay, double merge)
// and is discarded; otherwise it is appended and the list re-sorted
// ascending by timestamp. The sort is stable so equal timestamps keep
// arrival order.
func Merge(list []Message, msg Message) []Message {
	for i := range list {
		if list[i].ID == msg.ID {
			return list
		}
	}
	list = append(list, msg)
	sortByTimestamp(list)
	return list
}

// Confirm resolves a send confirmation against its optimistic entry. The
// entry carrying pendingID is replaced in place with the server-confirmed
// record; the list is re-sorted since the server timestamp supersedes the
// client clock.
//
// If the backend omits the id on the confirmation the entry cannot be
// superseded by id later, so the confirmed record is appended instead of
// replacing — a duplicate is then possible, but masking a backend contract
// violation here would hide it from everyone downstream.
func Confirm(list []Message, pendingID string, confirmed Message) []Message {
	if confirmed.ID == "" {
		list = append(list, confirmed)
		sortByTimestamp(list)
		return list
	}
	for i := range list {
		if list[i].ID == pendingID {
			list[i] = confirmed
			sortByTimestamp(list)
			return list
		}
	}
	// Pending entry already gone (e.g. superseded by a refresh): fall back
	// to a normal merge so the confirmation is not lost, deduplicated by id.
	return Merge(list, confirmed)
}

// Fail marks the entry carrying pendingID as failed in place. The entry is
// never removed: the user must keep seeing which message failed, with its
// text intact.
func Fail(list []Message, pendingID string) []Message {
	for i := range list {
		if list[i].ID == pendingID {
			list[i].Status = StatusFailed
			break
		}
	}
	return list
}

// sameMessages reports whether two lists have identical length and ids in
// order. Used to skip re-deriving the displayed list after a refresh that
// changed nothing visible.
func sameMessages(a, b []Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

func sortByTimestamp(list []Message) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Timestamp < list[j].Timestamp
	})
}

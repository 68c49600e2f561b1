package outwork

import "time"

// dateOnly truncates a timestamp to its calendar date in UTC. All move and
// receipt dates are civil dates; comparing them at any finer grain invites
// timezone drift between the dispatch desk and the server.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole calendar days from a to b (negative when b
// precedes a).
func daysBetween(a, b time.Time) int {
	return int(dateOnly(b).Sub(dateOnly(a)).Hours() / 24)
}

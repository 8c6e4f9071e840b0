package usage

import "time"

// SamePeriod reports whether two instants fall in the same billing period, which
// is a calendar month compared in the location of now. Both year and month are
// compared so a snapshot from exactly one year ago is treated as stale.
func SamePeriod(saved, now time.Time) bool {
	if saved.IsZero() {
		return false
	}
	saved = saved.In(now.Location())
	return saved.Year() == now.Year() && saved.Month() == now.Month()
}

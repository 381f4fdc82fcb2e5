package models

// LedgerView is the serialized snapshot a verification decision is evaluated
// against: the locked daily summary plus the festival's committed spend.
type LedgerView struct {
	Summary       UserDailySummary
	FestivalSpent int
}

// Verdict is the outcome of a verification decision. A PENDING verdict leaves
// the photo and summary untouched.
type Verdict struct {
	Status PhotoStatus
	Reason string
	Points int
}

// ConsumablePhoto is an ACTIVE photo eligible to back a coupon, ordered by
// submission time when passed to SelectForConsumption.
type ConsumablePhoto struct {
	ID     string
	Points int
}

// SelectForConsumption picks the prefix of photos whose points cover amount.
// Photos must arrive oldest first; the last selected photo may overshoot the
// amount, in which case its full point value is still consumed. Returns the
// selected ids and the total points they carry; covered < amount means the
// balance is insufficient and nothing should be consumed.
func SelectForConsumption(photos []ConsumablePhoto, amount int) (ids []string, covered int) {
	for _, p := range photos {
		if covered >= amount {
			break
		}
		covered += p.Points
		ids = append(ids, p.ID)
	}
	return ids, covered
}

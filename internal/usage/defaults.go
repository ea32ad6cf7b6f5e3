package usage

import "time"

// Image generation credits refill weekly.
const (
	defaultPlan   = "Starter"
	defaultLimit  = 10
	defaultPeriod = 7 * 24 * time.Hour
)

func defaultUsage(now time.Time) Usage {
	return Usage{
		Plan:     defaultPlan,
		Limit:    defaultLimit,
		Used:     0,
		ResetsAt: now.UTC().Add(defaultPeriod),
	}
}

// rollPeriod starts a new window when the current one has ended.
func rollPeriod(u Usage, now time.Time) (Usage, bool) {
	if now.Before(u.ResetsAt) {
		return u, false
	}
	u.Used = 0
	u.ResetsAt = now.UTC().Add(defaultPeriod)
	return u, true
}

/**
 * @description
 * Country payout-delay policy. The payment processor enforces a minimum
 * holding period, varying by jurisdiction, between a payment landing in the
 * platform account and funds being eligible to leave it.
 */
package app

import "strings"

// payoutDelayDays maps an expert's country to the processor's mandatory
// holding period in days between capture and release.
var payoutDelayDays = map[string]int{
	"US": 2,
	"CA": 2,
	"GB": 3,
	"AU": 3,
	"AT": 7,
	"BE": 7,
	"BR": 7,
	"CH": 7,
	"DE": 7,
	"ES": 7,
	"FR": 7,
	"IE": 7,
	"IT": 7,
	"NL": 7,
	"PT": 7,
}

// DelayPolicy resolves the minimum payout delay for a country code. It is a
// total function over all strings: unknown or malformed codes resolve to the
// strictest delay among known countries instead of failing.
type DelayPolicy struct {
	days        map[string]int
	defaultDays int
}

// NewDelayPolicy builds the policy from the static country table. The
// fallback is computed as the largest known delay so an unmapped country can
// never release funds earlier than a mapped one.
func NewDelayPolicy() *DelayPolicy {
	max := 0
	for _, d := range payoutDelayDays {
		if d > max {
			max = d
		}
	}
	return &DelayPolicy{days: payoutDelayDays, defaultDays: max}
}

// MinimumDelayDays returns the holding period for the given country code.
func (p *DelayPolicy) MinimumDelayDays(countryCode string) int {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	if d, ok := p.days[code]; ok {
		return d
	}
	return p.defaultDays
}

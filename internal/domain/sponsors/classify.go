// Package sponsors assigns sponsors to tiers by contribution amount.
package sponsors

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okian/teamsite/internal/domain/model"
)

// Threshold extracts the minimum amount from a free-text price by keeping
// only its digits: "$50,000+" is 50000. A price without digits is 0.
func Threshold(price string) decimal.Decimal {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, price)
	if digits == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Classify returns the id of the first tier whose threshold is at most
// amount, or "" when none qualifies. Tiers are scanned in the given order;
// call SortTiers first.
func Classify(amount decimal.Decimal, tiers []model.SponsorTier) string {
	for _, t := range tiers {
		if Threshold(t.Price).LessThanOrEqual(amount) {
			return t.TierID
		}
	}
	return ""
}

// SortTiers orders tiers by threshold, highest first. Equal thresholds keep
// their relative order.
func SortTiers(tiers []model.SponsorTier) {
	slices.SortStableFunc(tiers, func(a, b model.SponsorTier) int {
		return Threshold(b.Price).Cmp(Threshold(a.Price))
	})
}

// Group buckets sponsors by tier for the sponsors page. Groups follow tier
// order, highest first, and skip tiers with no sponsors. Sponsors below
// every threshold form a final group with a nil Tier. Within a group the
// largest amount comes first, then name.
func Group(list []model.Sponsor, tiers []model.SponsorTier) []model.TierGroup {
	sorted := slices.Clone(tiers)
	SortTiers(sorted)

	byTier := make(map[string][]model.Sponsor, len(sorted))
	var unclassified []model.Sponsor
	for _, s := range list {
		id := Classify(s.Amount, sorted)
		if id == "" {
			unclassified = append(unclassified, s)
			continue
		}
		byTier[id] = append(byTier[id], s)
	}

	groups := make([]model.TierGroup, 0, len(sorted)+1)
	for i := range sorted {
		members, ok := byTier[sorted[i].TierID]
		if !ok {
			continue
		}
		delete(byTier, sorted[i].TierID)
		sortSponsors(members)
		groups = append(groups, model.TierGroup{Tier: &sorted[i], Sponsors: members})
	}
	if len(unclassified) > 0 {
		sortSponsors(unclassified)
		groups = append(groups, model.TierGroup{Sponsors: unclassified})
	}
	return groups
}

// Unclassified counts the sponsors in a grouping that have no tier.
func Unclassified(groups []model.TierGroup) int {
	for _, g := range groups {
		if g.Tier == nil {
			return len(g.Sponsors)
		}
	}
	return 0
}

func sortSponsors(list []model.Sponsor) {
	slices.SortStableFunc(list, func(a, b model.Sponsor) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}

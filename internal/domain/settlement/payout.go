package settlement

import (
	stdmath "math"

	"github.com/pkg/math"
	"github.com/taskex-lab/backend/config"
)

// RankOf returns the highest rank tier whose threshold the lifetime earned
// total has reached. The rank table is ordered by ascending MinTotal, so the
// last matching tier wins.
func RankOf(cfg config.RewardConfigs, totalEarned int64) config.RankConfigs {
	var rank config.RankConfigs
	for _, tier := range cfg.Ranks {
		if totalEarned >= tier.MinTotal {
			rank = tier
		}
	}

	return rank
}

// Payout computes the actual credited amount for a nominal reward. The
// platform fee comes off first, then the rank bonus is added on the net base.
// Both the base and the final payout are clamped to [1, reward], so a
// completed task always pays at least one point and never more than the
// campaign promised.
func Payout(cfg config.RewardConfigs, reward, totalEarned int64) int64 {
	if reward <= 0 {
		return 0
	}

	base := int64(stdmath.Round(float64(reward) * (1 - cfg.PlatformFeeRate)))
	base = math.MaxInt64(1, math.MinInt64(base, reward))

	rank := RankOf(cfg, totalEarned)
	payout := base + int64(stdmath.Round(float64(base)*rank.BonusRate))

	return math.MaxInt64(1, math.MinInt64(payout, reward))
}

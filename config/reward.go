package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/exp/slices"
)

// RewardConfigs is the settlement policy: rank table, referral milestones,
// penalty and bonus knobs. It ships with defaults and can be overridden by a
// TOML policy file.
type RewardConfigs struct {
	// PlatformFeeRate is subtracted from the nominal reward before the rank
	// bonus applies.
	PlatformFeeRate float64 `toml:"platform_fee_rate"`

	// Ranks are kept sorted by ascending MinTotal. The first tier should
	// start at zero.
	Ranks []RankConfigs `toml:"ranks"`

	// ReferralMilestones are kept sorted by ascending Orders. A milestone
	// with zero orders is granted at link time.
	ReferralMilestones []MilestoneConfigs `toml:"referral_milestones"`

	PenaltyMultiplier float64 `toml:"penalty_multiplier"`

	WelcomeBonusPoints   int64 `toml:"welcome_bonus_points"`
	WelcomeBonusMaxUsers int64 `toml:"welcome_bonus_max_users"`

	DailyBonusMinPoints int64 `toml:"daily_bonus_min_points"`
	DailyBonusMaxPoints int64 `toml:"daily_bonus_max_points"`

	// PreferKnownBaseline keeps the reconciler policy of handing reaction
	// slots to known-baseline candidates first. It is a heuristic, not an
	// invariant.
	PreferKnownBaseline bool `toml:"prefer_known_baseline"`

	RecheckCooldown time.Duration `toml:"-"`

	// RecheckCooldownSec is the file-facing form of RecheckCooldown.
	RecheckCooldownSec int64 `toml:"recheck_cooldown_sec"`
}

type RankConfigs struct {
	Name      string  `toml:"name"`
	MinTotal  int64   `toml:"min_total"`
	BonusRate float64 `toml:"bonus_rate"`
}

type MilestoneConfigs struct {
	Key            string `toml:"key"`
	Orders         int64  `toml:"orders"`
	ReferrerPoints int64  `toml:"referrer_points"`
	ReferredPoints int64  `toml:"referred_points"`
}

func DefaultRewardConfigs() RewardConfigs {
	return RewardConfigs{
		PlatformFeeRate: 0.1,
		Ranks: []RankConfigs{
			{Name: "bronze", MinTotal: 0, BonusRate: 0},
			{Name: "silver", MinTotal: 1000, BonusRate: 0.05},
			{Name: "gold", MinTotal: 5000, BonusRate: 0.1},
			{Name: "platinum", MinTotal: 20000, BonusRate: 0.15},
		},
		ReferralMilestones: []MilestoneConfigs{
			{Key: "join", Orders: 0, ReferrerPoints: 50, ReferredPoints: 25},
			{Key: "orders_5", Orders: 5, ReferrerPoints: 100, ReferredPoints: 50},
			{Key: "orders_20", Orders: 20, ReferrerPoints: 300, ReferredPoints: 100},
		},
		PenaltyMultiplier:    1,
		WelcomeBonusPoints:   100,
		WelcomeBonusMaxUsers: 1000,
		DailyBonusMinPoints:  5,
		DailyBonusMaxPoints:  50,
		PreferKnownBaseline:  true,
		RecheckCooldown:      10 * time.Second,
	}
}

// LoadRewardConfigs reads the policy file at path on top of the defaults. A
// missing file is not an error, the defaults apply as-is.
func LoadRewardConfigs(path string) (RewardConfigs, error) {
	configs := DefaultRewardConfigs()
	if path == "" {
		return configs, nil
	}

	if _, err := toml.DecodeFile(path, &configs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return configs, nil
		}

		return RewardConfigs{}, err
	}

	if configs.RecheckCooldownSec > 0 {
		configs.RecheckCooldown = time.Duration(configs.RecheckCooldownSec) * time.Second
	}

	// The file may list tiers in any order.
	slices.SortStableFunc(configs.Ranks, func(a, b RankConfigs) bool {
		return a.MinTotal < b.MinTotal
	})
	slices.SortStableFunc(configs.ReferralMilestones, func(a, b MilestoneConfigs) bool {
		return a.Orders < b.Orders
	})

	return configs, nil
}

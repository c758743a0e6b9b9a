package progression

import "github.com/hearthside/companion/internal/types"

// Tier thresholds on mean(affection, trust, intimacy). The two top tiers
// additionally require a minimum intimacy of their own.
const (
	tierAcquaintanceMin     = 10
	tierFriendMin           = 25
	tierCloseFriendMin      = 40
	tierRomanticInterestMin = 55
	tierLoverMin            = 70
	tierLoverIntimacyMin    = 60
	tierDevotedMin          = 85
	tierDevotedIntimacyMin  = 75
)

// classifyTier is a pure function of (affection, trust, intimacy): the same
// inputs yield the same tier regardless of update ordering.
func classifyTier(p types.Progression) types.Tier {
	mean := p.MeanRelationship()
	switch {
	case mean >= tierDevotedMin && p.Intimacy >= tierDevotedIntimacyMin:
		return types.TierDevoted
	case mean >= tierLoverMin && p.Intimacy >= tierLoverIntimacyMin:
		return types.TierLover
	case mean >= tierRomanticInterestMin:
		return types.TierRomanticInterest
	case mean >= tierCloseFriendMin:
		return types.TierCloseFriend
	case mean >= tierFriendMin:
		return types.TierFriend
	case mean >= tierAcquaintanceMin:
		return types.TierAcquaintance
	default:
		return types.TierStranger
	}
}

// ClassifyTier exposes tier classification for callers outside the engine.
func ClassifyTier(p types.Progression) types.Tier {
	return classifyTier(p)
}

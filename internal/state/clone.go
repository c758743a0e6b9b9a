package state

import (
	"github.com/hearthside/companion/internal/types"
)

func cloneCharacter(c *types.Character) *types.Character {
	out := *c
	out.Memories = append([]types.MemoryNote(nil), c.Memories...)
	out.Progression = cloneProgression(c.Progression)
	return &out
}

func cloneProgression(p types.Progression) types.Progression {
	out := p
	out.UnlockedPositions = append([]string(nil), p.UnlockedPositions...)
	out.UnlockedOutfits = append([]string(nil), p.UnlockedOutfits...)
	out.UnlockedScenarios = append([]string(nil), p.UnlockedScenarios...)
	out.Events = append([]types.Event(nil), p.Events...)
	out.Chronicle = append([]types.ChronicleEntry(nil), p.Chronicle...)
	out.BehaviorHistory = append([]string(nil), p.BehaviorHistory...)
	out.Milestones = make([]types.Milestone, len(p.Milestones))
	for i, m := range p.Milestones {
		out.Milestones[i] = cloneMilestone(m)
	}
	return out
}

func cloneMilestone(m types.Milestone) types.Milestone {
	out := m
	out.RequiredStats = cloneIntMap(m.RequiredStats)
	out.Rewards.Unlocks = append([]string(nil), m.Rewards.Unlocks...)
	out.Rewards.StatBoosts = cloneIntMap(m.Rewards.StatBoosts)
	if m.AchievedAt != nil {
		at := *m.AchievedAt
		out.AchievedAt = &at
	}
	return out
}

func cloneIntMap(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneSession(s *types.ChatSession) *types.ChatSession {
	out := *s
	out.ParticipantIDs = append([]string(nil), s.ParticipantIDs...)
	out.Messages = append([]types.ChatMessage(nil), s.Messages...)
	return &out
}

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hearthside/companion/internal/models"
	"github.com/hearthside/companion/internal/types"
)

// ErrImagesDisabled is returned when no image generator is configured.
var ErrImagesDisabled = errors.New("image generation is disabled")

// SceneSnapshot renders an illustration of the session's current moment and
// returns it as a data URI. Mature framing is only allowed once every
// participant has reached the lover tier.
func (o *Orchestrator) SceneSnapshot(ctx context.Context, sessionID string) (string, error) {
	if o.images == nil {
		return "", ErrImagesDisabled
	}
	sess, ok := o.store.Session(sessionID)
	if !ok {
		return "", ErrSessionNotFound
	}
	characters := o.store.Characters(sess.ParticipantIDs)
	if len(characters) == 0 {
		return "", ErrNoParticipants
	}

	safeMode := false
	var sb strings.Builder
	sb.WriteString("Illustration of a scene with ")
	for i, c := range characters {
		if i > 0 {
			sb.WriteString(" and ")
		}
		sb.WriteString(c.Name)
		if c.Appearance != "" {
			fmt.Fprintf(&sb, " (%s)", c.Appearance)
		}
		if tierRank(c.Progression.Tier) < tierRank(types.TierLover) {
			safeMode = true
		}
	}
	if sess.Context != "" {
		sb.WriteString(". Setting: ")
		sb.WriteString(sess.Context)
	}
	if last := sess.LastMessages(2); len(last) > 0 {
		sb.WriteString(". Current moment: ")
		sb.WriteString(last[len(last)-1].Content)
	}

	return o.images.Generate(ctx, models.ImageRequest{
		Prompt:   sb.String(),
		Width:    768,
		Height:   1344,
		Steps:    models.ClampSteps(models.MaxImageSteps),
		SafeMode: safeMode,
	})
}

func tierRank(t types.Tier) int {
	switch t {
	case types.TierAcquaintance:
		return 1
	case types.TierFriend:
		return 2
	case types.TierCloseFriend:
		return 3
	case types.TierRomanticInterest:
		return 4
	case types.TierLover:
		return 5
	case types.TierDevoted:
		return 6
	default:
		return 0
	}
}

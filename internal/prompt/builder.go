// Package prompt assembles layered reply prompts: character sheet, current
// relationship state, retrieved memories, story chronicle and the recent
// conversation window.
package prompt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/hearthside/companion/internal/types"
)

// chronicleWindow is how many trailing chronicle beats a prompt carries.
const chronicleWindow = 5

// BuildContext contains all inputs for prompt assembly.
type BuildContext struct {
	Character      *types.Character
	Others         []*types.Character
	SessionContext string
	Memories       []types.RetrievedMemory
	History        []types.ChatMessage
	UserMessage    string
}

// Builder assembles reply prompts.
type Builder struct {
	historyLimit int
	nowFunc      func() time.Time
}

// NewBuilder creates a prompt Builder.
func NewBuilder(historyLimit int) *Builder {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &Builder{
		historyLimit: historyLimit,
		nowFunc:      time.Now,
	}
}

type historyLine struct {
	Speaker string
	Content string
}

// Build assembles the full reply prompt for one character.
func (b *Builder) Build(ctx BuildContext) (string, error) {
	if ctx.Character == nil {
		return "", fmt.Errorf("character is required")
	}

	history := ctx.History
	if len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}
	names := map[string]string{ctx.Character.ID: ctx.Character.Name}
	var others []string
	for _, o := range ctx.Others {
		if o == nil || o.ID == ctx.Character.ID {
			continue
		}
		names[o.ID] = o.Name
		others = append(others, o.Name)
	}
	lines := make([]historyLine, 0, len(history))
	for _, m := range history {
		speaker := "user"
		if m.CharacterID != "" {
			if name, ok := names[m.CharacterID]; ok {
				speaker = name
			} else {
				speaker = m.CharacterID
			}
		}
		lines = append(lines, historyLine{Speaker: speaker, Content: m.Content})
	}

	chronicle := ctx.Character.Progression.Chronicle
	if len(chronicle) > chronicleWindow {
		chronicle = chronicle[len(chronicle)-chronicleWindow:]
	}

	data := struct {
		Character      *types.Character
		Others         []string
		SessionContext string
		Memories       []types.RetrievedMemory
		Chronicle      []types.ChronicleEntry
		History        []historyLine
		UserMessage    string
		Now            string
	}{
		Character:      ctx.Character,
		Others:         others,
		SessionContext: ctx.SessionContext,
		Memories:       ctx.Memories,
		Chronicle:      chronicle,
		History:        lines,
		UserMessage:    ctx.UserMessage,
		Now:            b.nowFunc().Format(time.RFC3339),
	}

	var buf bytes.Buffer
	if err := replyTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}
	return buf.String(), nil
}

package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hearthside/companion/internal/models"
	"github.com/hearthside/companion/internal/prompt"
	"github.com/hearthside/companion/internal/types"
)

// SendMessage appends a user message, applies the synchronous stat updates
// for every participant and schedules the staggered in-character replies.
func (o *Orchestrator) SendMessage(ctx context.Context, sessionID, content string, msgType types.MessageType) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}
	if msgType == "" {
		msgType = types.MessageText
	}
	sess, ok := o.store.Session(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	if !sess.Active {
		return ErrSessionClosed
	}

	now := o.now()
	userMessages := 0
	o.store.MutateSession(sessionID, func(s *types.ChatSession) {
		s.Messages = append(s.Messages, types.ChatMessage{
			ID:        uuid.NewString(),
			Content:   content,
			Type:      msgType,
			Timestamp: now,
		})
		s.UpdatedAt = now
		for _, m := range s.Messages {
			if m.CharacterID == "" {
				userMessages++
			}
		}
	})

	analysis := o.analyzer.Analyze(content)
	for _, id := range sess.ParticipantIDs {
		o.store.MutateCharacter(id, func(c *types.Character) {
			o.engine.ApplyTimeDecay(c)
			o.engine.ApplyUserMessage(c, analysis)
		})
		o.persistCharacter(id)
	}
	o.persistSession(sessionID)

	if o.pipeline != nil && userMessages%o.analysisInterval == 0 {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			o.runAnalysis(sessionID)
		}()
	}

	participants := append([]string(nil), sess.ParticipantIDs...)
	for i, id := range participants {
		o.wg.Add(1)
		go o.replyWorker(i, id, sessionID, content)
	}
	return nil
}

// replyWorker waits its stagger slot, then produces one in-character reply.
// If the session disappeared in the meantime the reply is discarded.
func (o *Orchestrator) replyWorker(slot int, characterID, sessionID, userMessage string) {
	defer o.wg.Done()

	timer := time.NewTimer(o.delayFn(slot))
	defer timer.Stop()
	select {
	case <-o.done:
		return
	case <-timer.C:
	}

	sess, ok := o.store.Session(sessionID)
	if !ok {
		return
	}
	c, ok := o.store.Character(characterID)
	if !ok {
		return
	}

	ctx := context.Background()
	reply := o.composeReply(ctx, c, sess, userMessage)
	replyAnalysis := o.analyzer.Analyze(reply)

	appended := o.store.MutateSession(sessionID, func(s *types.ChatSession) {
		s.Messages = append(s.Messages, types.ChatMessage{
			ID:          uuid.NewString(),
			CharacterID: characterID,
			Content:     reply,
			Type:        types.MessageText,
			Timestamp:   o.now(),
		})
		s.UpdatedAt = o.now()
	})
	if !appended {
		// Session was deleted while we were generating.
		return
	}

	o.store.MutateCharacter(characterID, func(c *types.Character) {
		o.engine.ApplyCharacterReply(c, replyAnalysis)
	})
	o.persistCharacter(characterID)
	o.persistSession(sessionID)
}

// composeReply builds the layered prompt and asks the collaborator for a
// reply, falling back to a canned line when generation fails.
func (o *Orchestrator) composeReply(ctx context.Context, c *types.Character, sess *types.ChatSession, userMessage string) string {
	var memories []types.RetrievedMemory
	if o.recaller != nil {
		recalled, err := o.recaller.Recall(ctx, c.ID, userMessage)
		if err != nil {
			slog.Warn("memory recall failed", "character_id", c.ID, "error", err.Error())
		} else {
			memories = recalled
		}
	}

	built, err := o.prompts.Build(prompt.BuildContext{
		Character:      c,
		Others:         o.store.Characters(sess.ParticipantIDs),
		SessionContext: sess.Context,
		Memories:       memories,
		History:        sess.LastMessages(o.historyLimit),
		UserMessage:    userMessage,
	})
	if err != nil {
		slog.Error("failed to build reply prompt", "character_id", c.ID, "error", err.Error())
		return fallbackLine(c.Name)
	}

	if o.replies == nil {
		return fallbackLine(c.Name)
	}
	reply, err := o.replies.Complete(ctx, models.CompletionRequest{
		Prompt:      built,
		Temperature: 0.9,
		MaxTokens:   300,
	})
	if err != nil {
		slog.Warn("reply generation failed", "character_id", c.ID, "error", err.Error())
		return fallbackLine(c.Name)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return fallbackLine(c.Name)
	}
	return reply
}

func fallbackLine(name string) string {
	return fmt.Sprintf("%s pauses, lost in thought for a moment.", name)
}

// runAnalysis performs one behavior analysis pass over the session and
// merges every resulting adjustment.
func (o *Orchestrator) runAnalysis(sessionID string) {
	sess, ok := o.store.Session(sessionID)
	if !ok || o.pipeline == nil {
		return
	}
	characters := o.store.Characters(sess.ParticipantIDs)
	if len(characters) == 0 {
		return
	}
	latest := ""
	for i := len(sess.Messages) - 1; i >= 0; i-- {
		if sess.Messages[i].CharacterID == "" {
			latest = sess.Messages[i].Content
			break
		}
	}

	result := o.pipeline.Analyze(context.Background(), sessionID, sess.Messages, characters, latest)
	for _, adj := range result.Adjustments {
		o.store.MutateCharacter(adj.CharacterID, func(c *types.Character) {
			o.engine.ApplyAdjustment(c, adj)
			c.Progression.LastAnalysisID = result.AnalysisID
		})
		o.persistCharacter(adj.CharacterID)
	}
}

// finishSession runs the closing work: a final behavior analysis pass, then
// transcript compression into chronicle beats.
func (o *Orchestrator) finishSession(sessionID string) {
	o.runAnalysis(sessionID)

	if o.summarizer == nil {
		return
	}
	sess, ok := o.store.Session(sessionID)
	if !ok || len(sess.Messages) == 0 {
		return
	}
	characters := o.store.Characters(sess.ParticipantIDs)
	entries, err := o.summarizer.CompressSession(context.Background(), sess, characters)
	if err != nil {
		slog.Warn("transcript compression failed", "session_id", sessionID, "error", err.Error())
		return
	}
	for i, c := range characters {
		if i >= len(entries) {
			break
		}
		entry := entries[i]
		o.store.MutateCharacter(c.ID, func(ch *types.Character) {
			ch.Progression.AppendChronicle(entry)
		})
		o.persistCharacter(c.ID)
	}
}

// persistCharacter saves one roster entry. Persistence failures are logged
// and swallowed so conversation flow never stalls on the database.
func (o *Orchestrator) persistCharacter(id string) {
	if o.characters == nil {
		return
	}
	c, ok := o.store.Character(id)
	if !ok {
		return
	}
	if err := o.characters.Save(context.Background(), c); err != nil {
		logPersistFailure("character", id, err)
	}
}

func (o *Orchestrator) persistSession(id string) {
	if o.sessions == nil {
		return
	}
	sess, ok := o.store.Session(id)
	if !ok {
		return
	}
	if err := o.sessions.Save(context.Background(), sess); err != nil {
		logPersistFailure("session", id, err)
	}
}

func logPersistFailure(kind, id string, err error) {
	slog.Warn("persistence failed", "kind", kind, "id", id, "error", err.Error())
}

// Package main runs the companion engine as an interactive terminal chat.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hearthside/companion/internal/behavior"
	"github.com/hearthside/companion/internal/config"
	"github.com/hearthside/companion/internal/memory"
	"github.com/hearthside/companion/internal/models"
	"github.com/hearthside/companion/internal/progression"
	"github.com/hearthside/companion/internal/prompt"
	"github.com/hearthside/companion/internal/session"
	"github.com/hearthside/companion/internal/signal"
	"github.com/hearthside/companion/internal/state"
	"github.com/hearthside/companion/internal/storage"
	"github.com/hearthside/companion/internal/types"
)

const grokBaseURL = "https://api.x.ai/v1"

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nshutting down...")
		cancel()
		// The REPL may be blocked on stdin, which cancellation cannot
		// interrupt.
		time.Sleep(500 * time.Millisecond)
		os.Exit(0)
	}()

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	textClient, err := models.NewTextClient(cfg.XAIAPIKey, grokBaseURL, cfg.LLMModel)
	if err != nil {
		log.Fatalf("failed to create text client: %v", err)
	}
	analysisClient, err := models.NewTextClient(cfg.XAIAPIKey, grokBaseURL, cfg.AnalysisModel)
	if err != nil {
		log.Fatalf("failed to create analysis client: %v", err)
	}
	summaryClient, err := models.NewTextClient(cfg.XAIAPIKey, grokBaseURL, cfg.SummaryModel)
	if err != nil {
		log.Fatalf("failed to create summary client: %v", err)
	}

	var embedder memory.Embedder
	var images models.ImageGenerator
	if cfg.GoogleAPIKey != "" {
		genaiEmbedder, err := memory.NewEmbedder(ctx, cfg.GoogleAPIKey, cfg.EmbeddingModel)
		if err != nil {
			log.Fatalf("failed to create embedder: %v", err)
		}
		embedder = genaiEmbedder
		imageGen, err := models.NewGeminiImageGenerator(ctx, cfg.GoogleAPIKey, cfg.ImageModel)
		if err != nil {
			log.Fatalf("failed to create image generator: %v", err)
		}
		images = imageGen
	} else {
		slog.Info("GOOGLE_API_KEY not set: memory recall and scene images disabled")
	}

	analyzer, err := signal.NewAnalyzer()
	if err != nil {
		log.Fatalf("failed to build signal analyzer: %v", err)
	}

	world := state.NewStore()
	if err := loadWorld(ctx, store, world); err != nil {
		log.Fatalf("failed to load world state: %v", err)
	}

	var recaller session.Recaller
	var summarizer *memory.Summarizer
	if embedder != nil {
		recaller = memory.NewRetriever(embedder, store.Memories, cfg.TopK, cfg.SimilarityThreshold)
		summarizer = memory.NewSummarizer(summaryClient, embedder, store.Memories)
	} else {
		summarizer = memory.NewSummarizer(summaryClient, nil, nil)
	}

	engine := progression.NewEngine(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), time.Now)
	orchestrator, err := session.New(session.Config{
		Store:            world,
		Analyzer:         analyzer,
		Engine:           engine,
		Pipeline:         behavior.NewPipeline(analysisClient, cfg.MessageWindow),
		Prompts:          prompt.NewBuilder(cfg.HistoryLimit),
		Replies:          textClient,
		Images:           images,
		Summarizer:       summarizer,
		Recaller:         recaller,
		Characters:       store.Characters,
		Sessions:         store.Sessions,
		HistoryLimit:     cfg.HistoryLimit,
		AnalysisInterval: cfg.AnalysisInterval,
		SessionTTL:       cfg.SessionTTL,
		SweepInterval:    cfg.SweepInterval,
	})
	if err != nil {
		log.Fatalf("failed to create orchestrator: %v", err)
	}
	orchestrator.Start()
	defer orchestrator.Stop()

	runREPL(ctx, orchestrator, world, store)
}

// Pointer document restored across restarts so the REPL resumes the last
// conversation.
const (
	docNamespaceEngine = "engine"
	docKeyActive       = "active_session"
)

// loadWorld hydrates the in-memory state from storage, seeding a default
// companion on first run.
func loadWorld(ctx context.Context, store *storage.Store, world *state.Store) error {
	characters, err := store.Characters.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(characters) == 0 {
		seed := defaultCharacter()
		if err := store.Characters.Save(ctx, seed); err != nil {
			return err
		}
		characters = []*types.Character{seed}
	}
	sessions, err := store.Sessions.GetAll(ctx)
	if err != nil {
		return err
	}
	world.Load(characters, sessions)

	var activeID string
	ok, err := store.Documents.Get(ctx, docNamespaceEngine, docKeyActive, &activeID)
	if err != nil {
		slog.Warn("failed to read active session pointer", "error", err)
	} else if ok {
		// Only restore focus onto a session that can still take messages.
		if sess, exists := world.Session(activeID); exists && sess.Active {
			world.SetActiveSession(activeID)
		}
	}
	return nil
}

// saveActivePointer writes the active session id to the document store, so
// the next run picks up the same conversation.
func saveActivePointer(ctx context.Context, store *storage.Store, world *state.Store) {
	id := world.ActiveSessionID()
	var err error
	if id == "" {
		err = store.Documents.Delete(ctx, docNamespaceEngine, docKeyActive)
	} else {
		err = store.Documents.Put(ctx, docNamespaceEngine, docKeyActive, id)
	}
	if err != nil {
		slog.Warn("failed to save active session pointer", "error", err)
	}
}

func defaultCharacter() *types.Character {
	return &types.Character{
		ID:          "aria",
		Name:        "Aria",
		Role:        "companion",
		Personality: "warm, curious, a little teasing",
		Appearance:  "auburn hair, hazel eyes, freckles",
		Scenario:    "a cozy apartment above a bookshop",
		Stats:       types.Stats{Happiness: 50, SelfEsteem: 50, Stamina: 50, Level: 1},
		Progression: types.Progression{
			Tier:       types.TierStranger,
			Milestones: progression.DefaultMilestones(),
		},
	}
}

func runREPL(ctx context.Context, o *session.Orchestrator, world *state.Store, store *storage.Store) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	fmt.Println("companion engine ready. /new <ids...>, /switch <id>, /close, /delete, /status, /quit")

	for ctx.Err() == nil {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if handleCommand(ctx, o, world, store, line) {
				return
			}
			continue
		}

		sessionID := world.ActiveSessionID()
		if sessionID == "" {
			ids := firstCharacterIDs(world)
			sess, err := o.CreateSession(types.SessionIndividual, ids, "")
			if err != nil {
				fmt.Printf("cannot start session: %v\n", err)
				continue
			}
			sessionID = sess.ID
			saveActivePointer(ctx, store, world)
		}
		if err := o.SendMessage(ctx, sessionID, line, types.MessageText); err != nil {
			fmt.Printf("send failed: %v\n", err)
			continue
		}
		printReplies(o, world, sessionID)
	}
}

// handleCommand reports whether the REPL should exit.
func handleCommand(ctx context.Context, o *session.Orchestrator, world *state.Store, store *storage.Store, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/new":
		ids := fields[1:]
		if len(ids) == 0 {
			ids = firstCharacterIDs(world)
		}
		sessType := types.SessionIndividual
		if len(ids) > 1 {
			sessType = types.SessionGroup
		}
		sess, err := o.CreateSession(sessType, ids, "")
		if err != nil {
			fmt.Printf("cannot create session: %v\n", err)
			return false
		}
		saveActivePointer(ctx, store, world)
		fmt.Printf("session %s started with %v\n", sess.ID, sess.ParticipantIDs)
	case "/switch":
		if len(fields) < 2 {
			fmt.Println("usage: /switch <session-id>")
			return false
		}
		if err := o.SwitchSession(fields[1]); err != nil {
			fmt.Printf("switch failed: %v\n", err)
			return false
		}
		saveActivePointer(ctx, store, world)
	case "/close":
		id := world.ActiveSessionID()
		if id == "" {
			fmt.Println("no active session")
			return false
		}
		if err := o.CloseSession(id); err != nil {
			fmt.Printf("close failed: %v\n", err)
		}
	case "/delete":
		id := world.ActiveSessionID()
		if id == "" {
			fmt.Println("no active session")
			return false
		}
		if err := o.DeleteSession(id); err != nil {
			fmt.Printf("delete failed: %v\n", err)
			return false
		}
		saveActivePointer(ctx, store, world)
	case "/status":
		printStatus(world)
	case "/image":
		id := world.ActiveSessionID()
		if id == "" {
			fmt.Println("no active session")
			return false
		}
		uri, err := o.SceneSnapshot(ctx, id)
		if err != nil {
			fmt.Printf("snapshot failed: %v\n", err)
			return false
		}
		fmt.Printf("scene image: %d bytes encoded\n", len(uri))
	default:
		fmt.Println("commands: /new <ids...>, /switch <id>, /close, /delete, /status, /image, /quit")
	}
	return false
}

// firstCharacterIDs picks a default conversation partner from the roster.
func firstCharacterIDs(world *state.Store) []string {
	roster := world.AllCharacters()
	if len(roster) == 0 {
		return nil
	}
	return []string{roster[0].ID}
}

// printReplies waits briefly for the staggered replies and prints whatever
// arrived.
func printReplies(o *session.Orchestrator, world *state.Store, sessionID string) {
	deadline := time.Now().Add(6 * time.Second)
	printed := 0
	for time.Now().Before(deadline) {
		sess, ok := world.Session(sessionID)
		if !ok {
			return
		}
		names := make(map[string]string)
		for _, c := range world.Characters(sess.ParticipantIDs) {
			names[c.ID] = c.Name
		}
		expected := len(sess.ParticipantIDs)
		replies := collectReplies(sess, names)
		for ; printed < len(replies); printed++ {
			fmt.Println(replies[printed])
		}
		if printed >= expected {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// collectReplies returns the character lines that follow the last user
// message, rendered with speaker names.
func collectReplies(sess *types.ChatSession, names map[string]string) []string {
	lastUser := -1
	for i, m := range sess.Messages {
		if m.CharacterID == "" {
			lastUser = i
		}
	}
	var out []string
	for _, m := range sess.Messages[lastUser+1:] {
		name := names[m.CharacterID]
		if name == "" {
			name = m.CharacterID
		}
		out = append(out, fmt.Sprintf("%s: %s", name, m.Content))
	}
	return out
}

func printStatus(world *state.Store) {
	id := world.ActiveSessionID()
	if id == "" {
		fmt.Println("no active session")
		return
	}
	sess, ok := world.Session(id)
	if !ok {
		return
	}
	for _, c := range world.Characters(sess.ParticipantIDs) {
		p := c.Progression
		fmt.Printf("%s  tier=%s affection=%d trust=%d intimacy=%d happiness=%d level=%d behavior=%s\n",
			c.Name, p.Tier, p.Affection, p.Trust, p.Intimacy, c.Stats.Happiness, c.Stats.Level, p.DominantBehavior)
	}
}

package bot

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// BotState is the single process-wide session registry, keyed by user ID.
// All flows (create wizard, update wizard, /myproducts) share it.
type BotState struct {
	bot      *Bot
	mu       sync.Mutex
	sessions map[int64]*UserSession
}

func (b *Bot) NewBotState() *BotState {
	return &BotState{
		bot:      b,
		sessions: make(map[int64]*UserSession),
	}
}

func (bs *BotState) newUserSession(userID int64) *UserSession {
	ctx, cancel := context.WithCancel(context.Background())
	session := &UserSession{
		userID: userID,
		sender: bs.bot.tg,
		inbox:  make(chan SessionMessage, 10), // Buffered to avoid blocking
		ctx:    ctx,
		cancel: cancel,
	}
	log.Info().Int64("userId", userID).Msg("new user session created")
	return session
}

func (bs *BotState) getUserSession(userID int64) *UserSession {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if session, ok := bs.sessions[userID]; ok {
		return session
	}
	session := bs.newUserSession(userID)
	session.SetHandler(bs.bot)
	session.StartWorker()
	bs.sessions[userID] = session
	return session
}

// Shutdown stops all session workers gracefully.
func (bs *BotState) Shutdown() {
	bs.mu.Lock()
	sessions := make([]*UserSession, 0, len(bs.sessions))
	for _, session := range bs.sessions {
		sessions = append(sessions, session)
	}
	bs.mu.Unlock()

	// Stop all workers (outside the lock to avoid blocking)
	for _, session := range sessions {
		session.Stop()
	}
	log.Info().Int("count", len(sessions)).Msg("stopped all session workers")
}

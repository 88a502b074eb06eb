// Package notify sends line-move alerts via the Telegram Bot API.
package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/XavierBriggs/Janus/pkg/models"
)

// Telegram sends change notifications to a single chat. Display formatting
// (the leading "+" on positive deltas, rounding to two decimals) lives
// here; the reconciler reports raw signed deltas.
type Telegram struct {
	bot        *tgbotapi.BotAPI
	chatID     int64
	maxRetries int
	retryDelay time.Duration
}

// NewTelegram creates a Telegram notifier
func NewTelegram(botToken, chatID string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	return &Telegram{
		bot:        bot,
		chatID:     chatIDInt,
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// NotifyChanges sends one message summarizing a key's change records.
// An empty record list sends nothing.
func (t *Telegram) NotifyChanges(records []models.ChangeRecord) error {
	if len(records) == 0 {
		return nil
	}
	return t.send(FormatChanges(records))
}

// send delivers a message with linear-backoff retry
func (t *Telegram) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		if _, err := t.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(t.retryDelay * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", t.maxRetries, lastErr)
}

// FormatChanges renders change records as a plain-text alert
func FormatChanges(records []models.ChangeRecord) string {
	var b strings.Builder

	for i, rec := range records {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (%s vs %s)\n", rec.Player, rec.Event.HomeTeam, rec.Event.AwayTeam)
		fmt.Fprintf(&b, "%s (%s)\n", rec.Bookmaker, rec.BetType)
		for _, fc := range rec.Changes {
			label := "Odds"
			if fc.Kind == models.FieldLine {
				label = "Line"
			}
			fmt.Fprintf(&b, "%s %v → %v (%s)\n", label, fc.Previous, fc.Current, FormatDelta(fc.Delta))
		}
	}

	return b.String()
}

// FormatDelta renders a signed delta with a forced leading "+" on
// positive moves
func FormatDelta(delta float64) string {
	if delta > 0 {
		return fmt.Sprintf("+%.2f", delta)
	}
	return fmt.Sprintf("%.2f", delta)
}

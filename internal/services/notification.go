package services

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"github.com/pairlens/pairlens-go/internal/models"
)

// NotificationService sends run summaries to a Telegram chat. Without a bot
// token it is a no-op, so the sweep works identically with notifications
// disabled.
type NotificationService struct {
	bot    *bot.Bot
	chatID string
	logger *logrus.Entry
}

// NewNotificationService creates a notifier. An empty token leaves the bot
// nil and disables sending.
func NewNotificationService(botToken, chatID string, logger *logrus.Logger) *NotificationService {
	var telegramBot *bot.Bot
	if botToken != "" {
		var err error
		telegramBot, err = bot.New(botToken)
		if err != nil {
			logger.WithError(err).Warn("Telegram bot initialization failed, notifications disabled")
			telegramBot = nil
		}
	}

	return &NotificationService{
		bot:    telegramBot,
		chatID: chatID,
		logger: logger.WithField("component", "notification"),
	}
}

// NotifyRunComplete sends a compact summary of a finished sweep run.
func (ns *NotificationService) NotifyRunComplete(ctx context.Context, summary *models.RunSummary) error {
	if ns.bot == nil || ns.chatID == "" {
		return nil
	}

	message := fmt.Sprintf(
		"*Sweep run complete*\n"+
			"Run: `%s`\n"+
			"Duration: %s\n"+
			"Trades: %d (%d usable, %d skipped)\n"+
			"Provider calls: %d (cache hits: %d)\n"+
			"Report: `%s`",
		summary.RunID,
		summary.Duration.Round(1e9),
		summary.TotalTrades,
		summary.UsableTrades,
		summary.SkippedTrades,
		summary.ProviderCalls,
		summary.CacheHits,
		summary.ReportPath,
	)

	_, err := ns.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    ns.chatID,
		Text:      message,
		ParseMode: tgmodels.ParseModeMarkdown,
	})
	if err != nil {
		ns.logger.WithError(err).Warn("Failed to send run summary")
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}

	ns.logger.WithField("run_id", summary.RunID).Info("Run summary sent")
	return nil
}

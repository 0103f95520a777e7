package services

import (
	"fmt"
	"html"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"crewdesk/internal/models"
)

// TelegramService pushes short notifications to users who linked the bot.
// A nil service or a user without a chat ID is silently skipped.
type TelegramService struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramService(botToken string) (*TelegramService, error) {
	if botToken == "" {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	log.Printf("[tg] authorized as @%s", bot.Self.UserName)
	return &TelegramService{bot: bot}, nil
}

func (t *TelegramService) SendMessage(chatID int64, text string) error {
	if t == nil || t.bot == nil || chatID == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}
	return nil
}

func (t *TelegramService) NotifyTaskAssigned(user *models.User, task *models.Task) {
	if t == nil || user == nil || user.TelegramChatID == nil {
		return
	}
	text := "📌 Task assigned to you\n" +
		"• <b>" + html.EscapeString(task.Title) + "</b>\n" +
		"• Status: <code>" + string(task.Status) + "</code>\n" +
		"• Priority: <code>" + string(task.Priority) + "</code>"
	if err := t.SendMessage(*user.TelegramChatID, text); err != nil {
		log.Printf("[tg][notify][err] userID=%d: %v", user.ID, err)
	}
}

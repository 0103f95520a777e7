package services

import (
	"log"

	"crewdesk/internal/models"
)

// Notifier fans assignment and approval events out to email and Telegram.
// Everything here is best effort: failures are logged, never returned.
type Notifier struct {
	email EmailService
	tg    *TelegramService
}

func NewNotifier(email EmailService, tg *TelegramService) *Notifier {
	return &Notifier{email: email, tg: tg}
}

func (n *Notifier) NotifyAssigned(user *models.User, task *models.Task) {
	if n == nil || user == nil || task == nil {
		return
	}
	if n.email != nil {
		if err := n.email.SendTaskAssigned(user.Email, user.Name, task.Title); err != nil {
			log.Printf("[notify][email][err] userID=%d: %v", user.ID, err)
		}
	}
	n.tg.NotifyTaskAssigned(user, task)
}

func (n *Notifier) NotifyApprovalDecided(requester *models.User, task *models.Task, approved bool, reason string) {
	if n == nil || requester == nil || task == nil {
		return
	}
	if n.email != nil {
		if err := n.email.SendApprovalDecided(requester.Email, requester.Name, task.Title, approved, reason); err != nil {
			log.Printf("[notify][email][err] userID=%d: %v", requester.ID, err)
		}
	}
}

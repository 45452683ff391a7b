// Package notify tells staff about complaint changes through Telegram.
package notify

import (
	"complaintportal/backend/internal/config"
	"complaintportal/backend/internal/localization"
	"complaintportal/backend/internal/models"
	"log"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier is told about every confirmed complaint change.
type Notifier interface {
	Notify(ev models.ComplaintEvent)
}

// Nop drops every event. It is used when Telegram is not configured.
type Nop struct{}

func (Nop) Notify(models.ComplaintEvent) {}

// Sender is the part of *tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier queues events and sends them to one chat from its own goroutine.
type TelegramNotifier struct {
	BotAPI    Sender
	ChatID    int64
	Localizer *localization.Localizer
	Language  string
	Send      chan models.ComplaintEvent

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewTelegramNotifier builds a notifier; call Run to start delivering.
func NewTelegramNotifier(bot Sender, chatID int64, l *localization.Localizer, lang string) *TelegramNotifier {
	if lang == "" {
		lang = localization.DefaultLanguage
	}
	return &TelegramNotifier{
		BotAPI:    bot,
		ChatID:    chatID,
		Localizer: l,
		Language:  lang,
		Send:      make(chan models.ComplaintEvent, 128),
		done:      make(chan struct{}),
	}
}

// Notify enqueues ev. When the queue is full or the notifier is closed the
// event is dropped and logged.
func (n *TelegramNotifier) Notify(ev models.ComplaintEvent) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		log.Printf("WARN: notifier closed, dropping %s for %s", ev.Type, ev.Complaint.ComplaintNumber)
		return
	}
	select {
	case n.Send <- ev:
	default:
		log.Printf("WARN: notification queue full, dropping %s for %s", ev.Type, ev.Complaint.ComplaintNumber)
	}
}

// Run starts the write pump.
func (n *TelegramNotifier) Run() {
	go n.writePump()
}

// Close stops accepting events and waits for the queue to drain.
func (n *TelegramNotifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.Send)
	}
	n.mu.Unlock()
	<-n.done
}

func (n *TelegramNotifier) writePump() {
	defer close(n.done)
	for ev := range n.Send {
		msg := tgbotapi.NewMessage(n.ChatID, n.Text(ev))
		if _, err := n.BotAPI.Send(msg); err != nil {
			log.Printf("ERROR: Failed to send Telegram notification for %s: %v", ev.Complaint.ComplaintNumber, err)
		}
	}
}

// Text renders the message for ev.
func (n *TelegramNotifier) Text(ev models.ComplaintEvent) string {
	c := ev.Complaint
	if ev.Type == models.EventComplaintFiled {
		return n.Localizer.Format(n.Language, "complaint_filed", c.ComplaintNumber, c.ComplaintType, c.StudentName)
	}

	status := n.Localizer.GetString(n.Language, "status_"+string(c.Status))
	lines := []string{n.Localizer.Format(n.Language, "complaint_status", c.ComplaintNumber, status)}
	if fb := latestFeedback(c); fb != "" {
		lines = append(lines, n.Localizer.Format(n.Language, "complaint_feedback", fb))
	}
	return strings.Join(lines, "\n")
}

// latestFeedback returns the newest entry of the feedback field matching the status.
func latestFeedback(c models.Complaint) string {
	var field string
	switch c.Status {
	case models.StatusProcessing:
		field = c.ProcessingFeedback
	case models.StatusResolved:
		field = c.ResolvingFeedback
	case models.StatusRejected:
		field = c.RejectingFeedback
	case models.StatusOpen:
		field = c.ReopeningFeedback
	}
	entries := strings.Split(field, config.FeedbackSeparator)
	return strings.TrimSpace(entries[len(entries)-1])
}

package engine

import "log/slog"

// Notifier is the notification sink collaborator. Dispatch is
// fire-and-forget and never happens inside a transaction, so a slow or
// failing sink cannot abort an award.
type Notifier interface {
	Notify(recipientUserID int, eventType string, payload any)
}

type NopNotifier struct{}

func (NopNotifier) Notify(int, string, any) {}

// LogNotifier writes notification events to the log instead of delivering
// them anywhere.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Notify(recipientUserID int, eventType string, payload any) {
	n.Log.Info("notify", "recipient", recipientUserID, "event", eventType, "payload", payload)
}

// dispatch sends a notification on its own goroutine, after the enclosing
// transaction has committed.
func (e *Engine) dispatch(recipientUserID int, eventType string, payload any) {
	go e.notify.Notify(recipientUserID, eventType, payload)
}

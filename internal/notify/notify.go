// Package notify tells the user how a run ended when they are not looking
// at the terminal.
package notify

import (
	"errors"
	"fmt"

	"github.com/hochfrequenz/advent-runner/internal/domain"
)

// NotificationType represents the type of notification
type NotificationType int

const (
	NotifyInfo NotificationType = iota
	NotifySuccess
	NotifyWarning
	NotifyError
)

// Notification represents a notification to be sent
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
	RunID   string // Optional run reference
}

// FromReport summarizes a finished run
func FromReport(r *domain.RunReport) Notification {
	passed := r.CountByStatus(domain.CasePassed)
	n := Notification{
		RunID: r.ID,
	}

	switch r.Status {
	case domain.RunPassed:
		n.Type = NotifySuccess
		n.Title = fmt.Sprintf("%s passed", r.Label())
		n.Message = fmt.Sprintf("%d of %d cases passed", passed, len(r.Cases))
		if len(r.Cases) == 0 {
			n.Type = NotifyWarning
			n.Message = "built successfully, no test cases ran"
		}
	case domain.RunFailed:
		n.Type = NotifyError
		n.Title = fmt.Sprintf("%s failed", r.Label())
		n.Message = r.Error
	default:
		n.Type = NotifyInfo
		n.Title = fmt.Sprintf("%s is %s", r.Label(), r.Status)
	}

	return n
}

// Notifier is the interface for sending notifications
type Notifier interface {
	Send(n Notification) error
}

// MultiNotifier sends to multiple notifiers
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that sends to all provided notifiers
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Send sends the notification to all notifiers, even if some of them fail
func (m *MultiNotifier) Send(n Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

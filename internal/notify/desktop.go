package notify

import (
	"os/exec"
	"runtime"
	"strconv"
)

// DesktopNotifier sends desktop notifications
type DesktopNotifier struct {
	enabled bool
}

// NewDesktopNotifier creates a new desktop notifier
func NewDesktopNotifier(enabled bool) *DesktopNotifier {
	return &DesktopNotifier{enabled: enabled}
}

// Send sends a desktop notification. Platforms without a known notification
// command are silently skipped.
func (d *DesktopNotifier) Send(n Notification) error {
	if !d.enabled {
		return nil
	}

	cmd := desktopCommand(runtime.GOOS, n)
	if cmd == nil {
		return nil
	}
	return cmd.Run()
}

func desktopCommand(goos string, n Notification) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("osascript", "-e", appleScript(n))
	case "linux":
		return exec.Command("notify-send", "-i", IconForType(n.Type), n.Title, n.Message)
	default:
		return nil
	}
}

// appleScript builds the display command. AppleScript string literals use
// the same escapes as Go for quotes and backslashes.
func appleScript(n Notification) string {
	return "display notification " + strconv.Quote(n.Message) + " with title " + strconv.Quote(n.Title)
}

// IconForType returns an icon name for the notification type
func IconForType(t NotificationType) string {
	switch t {
	case NotifySuccess:
		return "dialog-positive"
	case NotifyWarning:
		return "dialog-warning"
	case NotifyError:
		return "dialog-error"
	default:
		return "dialog-information"
	}
}

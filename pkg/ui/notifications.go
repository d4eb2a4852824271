package ui

import (
	"fmt"
	"os/exec"
	"runtime"

	"eromedl/pkg/models"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	cmd := exec.Command("notify-send", "--app-name=eromedl", title, message)
	return cmd.Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	cmd := exec.Command("osascript", "-e", script)
	return cmd.Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("eromedl").Show($toast)
	`, title, message)

	cmd := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	return cmd.Run()
}

// Notifier sends desktop notifications for finished and failed albums
type Notifier struct {
	sender     NotificationSender
	onComplete bool
	onError    bool
}

// NewNotifier creates a Notifier for the current platform. A disabled
// notifier drops everything.
func NewNotifier(enabled, onComplete, onError bool) *Notifier {
	if !enabled {
		return &Notifier{}
	}

	var sender NotificationSender
	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	case "windows":
		sender = &WindowsNotificationSender{}
	}

	return NewNotifierWithSender(sender, onComplete, onError)
}

// NewNotifierWithSender creates a Notifier backed by sender
func NewNotifierWithSender(sender NotificationSender, onComplete, onError bool) *Notifier {
	return &Notifier{sender: sender, onComplete: onComplete, onError: onError}
}

// AlbumFinished notifies about an album that reached a final state
func (n *Notifier) AlbumFinished(res *models.AlbumResult) {
	if n == nil || n.sender == nil || res == nil {
		return
	}

	title := res.Album.URL
	if res.Album.Title != "" {
		title = res.Album.Title
	}

	if res.State == models.StateDone {
		if n.onComplete {
			n.send("Album archived", fmt.Sprintf("%s: %d files, %s", title, res.Downloaded+res.Skipped, FormatBytes(res.Bytes)))
		}
		return
	}
	if n.onError {
		n.send("Album failed", fmt.Sprintf("%s: %v", title, res.Error))
	}
}

// RunFinished notifies about the end of a whole run
func (n *Notifier) RunFinished(summary string, err error) {
	if n == nil || n.sender == nil {
		return
	}
	if err != nil {
		if n.onError {
			n.send("eromedl stopped", err.Error())
		}
		return
	}
	if n.onComplete {
		n.send("eromedl finished", summary)
	}
}

// send ignores errors as notifications are not critical
func (n *Notifier) send(title, message string) {
	_ = n.sender.Send(title, message)
}

package infrastructure

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/yourusername/tubescribe/internal/domain"
	"go.uber.org/zap"
)

// NotificationService sends desktop notifications for job outcomes.
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	method := n.config.Method
	if method == "" || method == "auto" {
		if runtime.GOOS == "darwin" {
			method = "osascript"
		} else {
			method = "notify-send"
		}
	}

	switch method {
	case "osascript":
		return n.sendOSAScript(title, message)
	case "notify-send":
		return n.sendNotifySend(title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", method))
		return nil
	}
}

// sendOSAScript sends notification using macOS osascript
func (n *NotificationService) sendOSAScript(title, message string) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, message, title)
	cmd := exec.Command("osascript", "-e", script)

	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", "osascript"),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))

	return nil
}

// sendNotifySend sends notification using Linux notify-send
func (n *NotificationService) sendNotifySend(title, message string) error {
	cmd := exec.Command("notify-send", title, message)

	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", "notify-send"),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))

	return nil
}

// NotifyJobStarted sends a notification when a job starts
func (n *NotificationService) NotifyJobStarted(slot domain.Slot, target string) {
	title := "Job Started"
	message := fmt.Sprintf("%s: %s", slot, truncateString(target, 30))
	n.Send(title, message)
}

// NotifyJobSucceeded sends a notification when a job succeeds
func (n *NotificationService) NotifyJobSucceeded(slot domain.Slot, artifact string) {
	title := "Job Completed"
	message := fmt.Sprintf("%s: %s", slot, truncateString(artifact, 30))
	n.Send(title, message)
}

// NotifyJobFailed sends a notification when a job fails
func (n *NotificationService) NotifyJobFailed(slot domain.Slot, result domain.JobResult) {
	var title string
	switch result.Status {
	case domain.StatusTimedOut:
		title = "Job Timed Out"
	case domain.StatusCancelled:
		title = "Job Cancelled"
	default:
		title = "Job Failed"
	}
	message := fmt.Sprintf("%s: %s", slot, truncateString(result.Message, 40))
	n.Send(title, message)
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

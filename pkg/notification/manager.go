package notification

import (
	"fmt"
)

// NotificationManager routes account notices to a notifier using the
// registered template for each notice type.
type NotificationManager struct {
	notifier  Notifier
	templates map[NoticeType]NoticeTemplate
}

// NewNotificationManager creates a manager with the default account notice
// templates registered.
func NewNotificationManager(notifier Notifier) *NotificationManager {
	nm := &NotificationManager{
		notifier:  notifier,
		templates: make(map[NoticeType]NoticeTemplate),
	}
	nm.RegisterTemplate(NoticeTwoFAEnabled, NoticeTemplate{
		Subject: "Two-factor authentication enabled",
		Text:    "Two-factor authentication was enabled on your clinic portal account ({{.email}}). If this was not you, contact the clinic immediately.",
	})
	nm.RegisterTemplate(NoticeTwoFADisabled, NoticeTemplate{
		Subject: "Two-factor authentication disabled",
		Text:    "Two-factor authentication was disabled on your clinic portal account ({{.email}}). If this was not you, contact the clinic immediately.",
	})
	return nm
}

// RegisterTemplate adds or replaces the template for a notice type.
func (nm *NotificationManager) RegisterTemplate(noticeType NoticeType, template NoticeTemplate) {
	nm.templates[noticeType] = template
}

// Send delivers the notice. Missing templates are an error; a nil notifier
// silently drops notices, which keeps delivery optional in dev setups.
func (nm *NotificationManager) Send(noticeType NoticeType, notification NotificationData) error {
	if nm.notifier == nil {
		return nil
	}
	template, exists := nm.templates[noticeType]
	if !exists {
		return fmt.Errorf("no template registered for notice type: %s", noticeType)
	}
	return nm.notifier.Send(noticeType, notification, template)
}

package notification

// NoticeType identifies an account event that triggers a notification.
type NoticeType string

const (
	NoticeTwoFAEnabled  NoticeType = "twofa_enabled"
	NoticeTwoFADisabled NoticeType = "twofa_disabled"
)

// NoticeTemplate holds the subject and body templates for one notice.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

type NotificationData struct {
	To      string            // Recipient identifier (e.g., email address)
	Subject string            // Optional: overrides the template subject
	Body    string            // The content or message to send
	Data    map[string]string // Template data
}

type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}

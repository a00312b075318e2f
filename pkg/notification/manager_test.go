package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerSend(t *testing.T) {
	mock := &MockNotifier{}
	nm := NewNotificationManager(mock)

	err := nm.Send(NoticeTwoFAEnabled, NotificationData{
		To:   "grace@clinic.example",
		Data: map[string]string{"email": "grace@clinic.example"},
	})
	require.NoError(t, err)
	require.Len(t, mock.SentNotifications, 1)
	assert.Equal(t, NoticeTwoFAEnabled, mock.SentTypes[0])
	assert.Equal(t, "grace@clinic.example", mock.SentNotifications[0].To)
}

func TestManagerSend_UnknownNotice(t *testing.T) {
	nm := NewNotificationManager(&MockNotifier{})
	err := nm.Send(NoticeType("unregistered"), NotificationData{To: "x@clinic.example"})
	assert.Error(t, err)
}

func TestManagerSend_NilNotifier(t *testing.T) {
	nm := NewNotificationManager(nil)
	err := nm.Send(NoticeTwoFAEnabled, NotificationData{To: "x@clinic.example"})
	assert.NoError(t, err)
}

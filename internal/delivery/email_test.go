package delivery_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramiqadoumi/go-earn-flow/internal/delivery"
	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/pkg/retry"
)

func TestEmailChannel_Name(t *testing.T) {
	c := delivery.NewEmailChannel(delivery.EmailConfig{Host: "localhost", Port: 1025, From: "from@test.com"})
	assert.Equal(t, "email", c.Name())
}

func TestEmailChannel_Deliver_MissingRecipient(t *testing.T) {
	c := delivery.NewEmailChannel(delivery.EmailConfig{Host: "localhost", Port: 1025})
	n := sampleNotification()
	n.Email = ""

	err := c.Deliver(context.Background(), n)
	require.Error(t, err)
	assert.True(t, retry.IsPermanent(err), "no recipient will never succeed")
}

func TestEmailChannel_Deliver_CancelledContext(t *testing.T) {
	c := delivery.NewEmailChannel(delivery.EmailConfig{Host: "192.0.2.1", Port: 1025})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Deliver(ctx, sampleNotification())
	require.Error(t, err, "cancelled context should result in an error")
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Task reward credited", delivery.Subject(domain.NotificationTaskCompleted))
	assert.Equal(t, "Withdrawal request received", delivery.Subject(domain.NotificationWithdrawalRequested))
	assert.Equal(t, "KYC verification complete", delivery.Subject(domain.NotificationKycApproved))
	assert.Equal(t, "Account notification", delivery.Subject("other"))
}

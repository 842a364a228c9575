package repositories

import (
	"context"
	"github.com/skif48/speakup-progress/app_config"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestReferralRepository_ConditionalLoopsStopOnCancelledContext(t *testing.T) {
	r := NewReferralRepository(&app_config.AppConfig{ScyllaKeyspace: "speakup"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	confirmed, err := r.ConfirmInvite(ctx, "referrer", "invitee", func(int) int { return 5 })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, confirmed)

	left, err := r.ConsumeSkipPhrase(ctx, "invitee")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, left)
}

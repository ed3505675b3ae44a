package services

import (
	"context"
	"testing"
	"time"

	"passport-portal/internal/adapters/persistence/models"
	"passport-portal/internal/adapters/persistence/repositories/repotest"
	"passport-portal/internal/config"
	"passport-portal/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCron_Jobs(t *testing.T) {
	tokens := repotest.NewTokens()
	renewals, _, _ := newRenewals()
	m := metrics.New(prometheus.NewRegistry())
	ctx := context.Background()

	require.NoError(t, tokens.Create(ctx, &models.RefreshToken{UserID: "u", TokenHash: "a", ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, tokens.Create(ctx, &models.RefreshToken{UserID: "u", TokenHash: "b", ExpiresAt: time.Now().Add(time.Hour)}))
	_, _ = renewals.Submit(ctx, applicant, validSubmission())

	svc, err := NewCronService(config.CronConfig{TokenPurgeSpec: "@daily", PendingBacklogSpec: "@hourly"}, tokens, renewals, m)
	require.NoError(t, err)

	svc.PurgeExpiredTokens()
	assert.Equal(t, 1, tokens.Active())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PurgedTokens))

	svc.ReportPendingBacklog()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PendingBacklog))

	svc.Start()
	svc.Stop()
}

func TestCron_BadSpec(t *testing.T) {
	renewals, _, _ := newRenewals()
	_, err := NewCronService(config.CronConfig{TokenPurgeSpec: "every tuesday", PendingBacklogSpec: "@hourly"}, repotest.NewTokens(), renewals, nil)
	assert.Error(t, err)
}

package tenant_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogniq/billing/pkg/tenant"
)

func TestKeyBillingID(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	orgID := uuid.New()

	t.Run("org preferred over user", func(t *testing.T) {
		t.Parallel()

		key := tenant.OrgKey(orgID, userID)
		assert.Equal(t, orgID, key.BillingID())
		assert.True(t, key.IsOrg())
	})

	t.Run("user fallback without org", func(t *testing.T) {
		t.Parallel()

		key := tenant.UserKey(userID)
		assert.Equal(t, userID, key.BillingID())
		assert.False(t, key.IsOrg())
	})

	t.Run("nil org uuid treated as absent", func(t *testing.T) {
		t.Parallel()

		nilOrg := uuid.Nil
		key := tenant.NewKey(userID, &nilOrg)
		assert.False(t, key.IsOrg())
		assert.Equal(t, userID, key.BillingID())
	})
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	key := tenant.UserKey(uuid.New())
	ctx := tenant.WithContext(context.Background(), key)

	got, ok := tenant.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, key, got)

	_, ok = tenant.FromContext(context.Background())
	assert.False(t, ok)
}

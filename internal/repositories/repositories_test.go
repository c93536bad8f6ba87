package repositories

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// The recipient set of an event is resolved in SQL: a user subscribed
// both directly and via the hosting structure must come back exactly
// once, so the union has to be deduplicating.
func TestRecipientsQueryDeduplicates(t *testing.T) {
	require.Contains(t, recipientsUnionQuery, "UNION")
	require.NotContains(t, recipientsUnionQuery, "UNION ALL")
}

func TestRecipientsQueryCoversBothSubscriptionKinds(t *testing.T) {
	require.Contains(t, recipientsUnionQuery, "JOIN event_subscriptions")
	require.Contains(t, recipientsUnionQuery, "JOIN gov_structure_subscriptions")

	// Soft-deleted accounts are excluded from both branches
	require.Equal(t, 2, strings.Count(recipientsUnionQuery, "users.deleted_at IS NULL"))

	// Batch streaming relies on a stable scan order
	require.Contains(t, recipientsUnionQuery, "ORDER BY id")
}

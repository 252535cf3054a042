// ABOUTME: Tests for the registry event ledger
// ABOUTME: Covers append, defaulting of ID/timestamp, and recency ordering

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/warden/internal/address"
)

func TestSaveEvent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	_, proxy, _ := testAddresses(t)

	rec := address.Record(proxy, "main", "alice")
	event := &Event{
		Type:          EventTypeRecordCreated,
		RecordAddress: rec,
		OwnerID:       "alice",
		DerivedName:   rec.String(),
		DisplayName:   "hello",
		ActorAddress:  proxy,
	}
	require.NoError(t, s.SaveEvent(ctx, event))
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())

	events, err := s.ListEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeRecordCreated, events[0].Type)
	assert.Equal(t, "alice", events[0].OwnerID)
	assert.Equal(t, rec, events[0].RecordAddress)
	assert.Equal(t, proxy, events[0].ActorAddress)
}

func TestListEvents_NewestFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	_, proxy, _ := testAddresses(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i, owner := range []string{"alice", "bob", "carol"} {
		rec := address.Record(proxy, "main", owner)
		require.NoError(t, s.SaveEvent(ctx, &Event{
			Type:          EventTypeRecordCreated,
			RecordAddress: rec,
			OwnerID:       owner,
			DerivedName:   rec.String(),
			DisplayName:   owner,
			ActorAddress:  proxy,
			Timestamp:     base.Add(time.Duration(i) * time.Second),
		}))
	}

	events, err := s.ListEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "carol", events[0].OwnerID)
	assert.Equal(t, "bob", events[1].OwnerID)
}

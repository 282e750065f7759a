package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/zonerun/internal/domain/zone"
)

func testSnapshot() *zone.Snapshot {
	return &zone.Snapshot{
		Timestamp: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Supports: []zone.View{
			{Side: "support", Center: 100, Low: 99.5, High: 100.5, Touches: 3, Strength: 87.5},
		},
	}
}

func TestSnapshotCache_Store(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := New(client, 5*time.Minute)

	snap := testSnapshot()
	payload, err := json.Marshal(snap)
	require.NoError(t, err)

	mock.ExpectSet("zonerun:snapshot:BTCUSDT", payload, 5*time.Minute).SetVal("OK")
	require.NoError(t, c.Store(context.Background(), "BTCUSDT", snap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotCache_Latest(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := New(client, 5*time.Minute)

	snap := testSnapshot()
	payload, err := json.Marshal(snap)
	require.NoError(t, err)

	mock.ExpectGet("zonerun:snapshot:BTCUSDT").SetVal(string(payload))
	got, err := c.Latest(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.Timestamp, got.Timestamp)
	require.Len(t, got.Supports, 1)
	assert.InDelta(t, 100.0, got.Supports[0].Center, 1e-9)
}

func TestSnapshotCache_LatestMissIsNotAnError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := New(client, time.Minute)

	mock.ExpectGet("zonerun:snapshot:ETHUSDT").RedisNil()
	got, err := c.Latest(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.Nil(t, got)
}

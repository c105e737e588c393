package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/mbes-survey/internal/navigation"
	"github.com/roman-kulish/mbes-survey/internal/sonar"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()

	s := NewSqliteStore(filepath.Join(t.TempDir(), "survey.db"))
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func newTestSession(t *testing.T, s *SqliteStore) int64 {
	t.Helper()

	id, err := s.CreateSession(context.Background(), "RV Test", "EM2040", map[string]any{"swath": 140})
	require.NoError(t, err)
	return id
}

func TestSqliteStore_Sessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.CreateSession(ctx, "RV One", "EM710", nil)
	require.NoError(t, err)
	second, err := s.CreateSession(ctx, "RV Two", "EM2040", `{"mode":"deep"}`)
	require.NoError(t, err)
	third, err := s.CreateSession(ctx, "RV Three", "R2Sonic", []byte(`{"mode":"shallow"}`))
	require.NoError(t, err)

	sess, err := s.Session(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, second, sess.ID)
	assert.Equal(t, "RV Two", sess.Vessel)
	assert.Equal(t, "EM2040", sess.Sensor)
	require.NotNil(t, sess.Config)
	assert.JSONEq(t, `{"mode":"deep"}`, *sess.Config)
	assert.False(t, sess.StartTime.IsZero())

	all, err := s.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{first, second, third}, []int64{all[0].ID, all[1].ID, all[2].ID})
	assert.Nil(t, all[0].Config)
	assert.JSONEq(t, `{"mode":"shallow"}`, *all[2].Config)

	_, err = s.Session(ctx, 999)
	require.Error(t, err)
}

func TestSqliteStore_CreateSessionJSONConfig(t *testing.T) {
	s := newTestStore(t)
	id := newTestSession(t, s)

	sess, err := s.Session(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, sess.Config)
	assert.JSONEq(t, `{"swath":140}`, *sess.Config)
}

func TestSqliteStore_Fixes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := newTestSession(t, s)

	// more fixes than fit into one insert statement, stored out of order
	fixes := make([]navigation.Fix, 1234)
	for i := range fixes {
		ts := int64(len(fixes)-1-i) * 100
		fixes[i] = navigation.Fix{
			Timestamp: ts,
			Position:  r3.Vec{X: float64(ts), Y: 2, Z: -1},
			Velocity:  r3.Vec{X: 1.5},
			Attitude:  navigation.Attitude{Roll: 0.01, Pitch: -0.02, Yaw: 1.2},
		}
	}
	require.NoError(t, s.StoreFixes(ctx, id, fixes))
	require.NoError(t, s.StoreFixes(ctx, id, nil))

	got, err := s.ReadFixes(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, len(fixes))
	for i := 1; i < len(got); i++ {
		require.LessOrEqual(t, got[i-1].Timestamp, got[i].Timestamp)
	}
	if diff := cmp.Diff(fixes[len(fixes)-1], got[0]); diff != "" {
		t.Errorf("first fix mismatch (-want +got):\n%s", diff)
	}

	ranged, err := s.ReadFixes(ctx, id, WithTimeRange(1000, 1500))
	require.NoError(t, err)
	require.Len(t, ranged, 6)
	assert.Equal(t, int64(1000), ranged[0].Timestamp)
	assert.Equal(t, int64(1500), ranged[5].Timestamp)

	tail, err := s.ReadFixes(ctx, id, WithStartTime(123000))
	require.NoError(t, err)
	assert.Len(t, tail, 4)

	head, err := s.ReadFixes(ctx, id, WithEndTime(0))
	require.NoError(t, err)
	assert.Len(t, head, 1)

	_, err = s.ReadFixes(ctx, id, WithTimeRange(10, 5))
	require.Error(t, err)
}

func TestSqliteStore_FixesKeepInsertionOrderOnTies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := newTestSession(t, s)

	fixes := []navigation.Fix{
		{Timestamp: 10, Position: r3.Vec{X: 1}},
		{Timestamp: 10, Position: r3.Vec{X: 2}},
		{Timestamp: 5, Position: r3.Vec{X: 3}},
	}
	require.NoError(t, s.StoreFixes(ctx, id, fixes))

	got, err := s.ReadFixes(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, []float64{got[0].Position.X, got[1].Position.X, got[2].Position.X})
}

func TestSqliteStore_Close(t *testing.T) {
	s := NewSqliteStore(filepath.Join(t.TempDir(), "survey.db"))
	_, err := s.CreateSession(context.Background(), "RV", "EM", nil)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestSessionSource(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := newTestSession(t, s)

	require.NoError(t, s.StoreFixes(ctx, id, []navigation.Fix{{Timestamp: 0}, {Timestamp: 100}}))

	att := navigation.Attitude{Yaw: 0.5}
	pings := []sonar.Ping{
		{Timestamp: 10, Beams: []r3.Vec{{Z: -10}, {Y: 1, Z: -10}}, FirstInFile: true},
		{Timestamp: 20, Attitude: &att, Beams: []r3.Vec{{Z: -11}}},
		{Timestamp: 30},
	}
	for i := range pings {
		_, err := s.StorePing(ctx, id, &pings[i])
		require.NoError(t, err)
	}

	src := NewSessionSource(s, id)

	fixes, err := src.Fixes(ctx)
	require.NoError(t, err)
	assert.Len(t, fixes, 2)

	got, err := src.Pings(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(pings, got); diff != "" {
		t.Errorf("pings mismatch (-want +got):\n%s", diff)
	}

	var streamed []sonar.Ping
	for p, err := range src.Stream(ctx) {
		require.NoError(t, err)
		streamed = append(streamed, p)
	}
	if diff := cmp.Diff(pings, streamed); diff != "" {
		t.Errorf("streamed pings mismatch (-want +got):\n%s", diff)
	}
}

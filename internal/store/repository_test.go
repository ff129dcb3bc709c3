package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createSession(t *testing.T, s *Store, id string) *Session {
	t.Helper()
	sess := &Session{ID: id, CameraID: 1, FrontCamera: true}
	require.NoError(t, s.Sessions().Create(sess))
	return sess
}

func TestSessionRepository(t *testing.T) {
	s := newTestStore(t)
	sess := createSession(t, s, "session-1")
	assert.False(t, sess.StartedAt.IsZero(), "StartedAt should be set on create")

	got, err := s.Sessions().GetByID("session-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.CameraID)
	assert.True(t, got.FrontCamera)
	assert.Nil(t, got.EndedAt)

	end := time.Now()
	require.NoError(t, s.Sessions().End("session-1", end))

	got, err = s.Sessions().GetByID("session-1")
	require.NoError(t, err)
	require.NotNil(t, got.EndedAt)
	assert.WithinDuration(t, end, *got.EndedAt, time.Second)

	assert.ErrorIs(t, s.Sessions().End("missing", end), ErrNotFound)
	_, err = s.Sessions().GetByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConfirmationRepository(t *testing.T) {
	s := newTestStore(t)
	createSession(t, s, "session-1")
	createSession(t, s, "session-2")

	base := time.Now().Add(-time.Hour)
	confirmations := []*Confirmation{
		{ID: "c1", SessionID: "session-1", ConfirmedAt: base, Frames: 3, Snapshot: json.RawMessage(`{"head":{"x":1,"y":2}}`)},
		{ID: "c2", SessionID: "session-1", ConfirmedAt: base.Add(time.Minute), Frames: 40},
		{ID: "c3", SessionID: "session-2", ConfirmedAt: base.Add(2 * time.Minute), Frames: 7},
	}
	for _, c := range confirmations {
		require.NoError(t, s.Confirmations().Create(c))
	}

	t.Run("get by id", func(t *testing.T) {
		got, err := s.Confirmations().GetByID("c1")
		require.NoError(t, err)
		assert.Equal(t, "session-1", got.SessionID)
		assert.Equal(t, 3, got.Frames)
		assert.JSONEq(t, `{"head":{"x":1,"y":2}}`, string(got.Snapshot))

		got, err = s.Confirmations().GetByID("c2")
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(got.Snapshot), "empty snapshot defaults to {}")

		_, err = s.Confirmations().GetByID("nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		got, err := s.Confirmations().List(0)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"c3", "c2", "c1"}, ids(got))

		limited, err := s.Confirmations().List(2)
		require.NoError(t, err)
		assert.Equal(t, []string{"c3", "c2"}, ids(limited))
	})

	t.Run("list by session", func(t *testing.T) {
		got, err := s.Confirmations().ListBySession("session-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"c1", "c2"}, ids(got))
	})

	t.Run("unknown session is rejected", func(t *testing.T) {
		err := s.Confirmations().Create(&Confirmation{ID: "c4", SessionID: "ghost", Frames: 3})
		assert.Error(t, err)
	})

	t.Run("cascade on session delete", func(t *testing.T) {
		_, err := s.DB().Exec(`DELETE FROM sessions WHERE id = ?`, "session-2")
		require.NoError(t, err)

		_, err = s.Confirmations().GetByID("c3")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSettingRepository(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()

	_, err := settings.Get(SettingFrontCamera)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, settings.GetBool(SettingFrontCamera, true), "missing key returns default")

	require.NoError(t, settings.SetBool(SettingFrontCamera, false))
	assert.False(t, settings.GetBool(SettingFrontCamera, true))

	require.NoError(t, settings.SetBool(SettingFrontCamera, true))
	assert.True(t, settings.GetBool(SettingFrontCamera, false), "Set overwrites")

	require.NoError(t, settings.SetInt(SettingCameraID, 2))
	assert.Equal(t, 2, settings.GetInt(SettingCameraID, 0))

	require.NoError(t, settings.Set(SettingCameraID, "not-a-number"))
	assert.Equal(t, 7, settings.GetInt(SettingCameraID, 7))
}

func ids(cs []*Confirmation) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

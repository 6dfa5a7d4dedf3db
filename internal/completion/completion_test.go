package completion

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/petewarden/open-speech-recording/internal/cookies"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	values map[string]string
	err    error
}

func (m *mapStore) Get(name string) (string, bool) {
	v, ok := m.values[name]
	return v, ok
}

func (m *mapStore) Set(name string, value string) error {
	if m.err != nil {
		return m.err
	}
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[name] = value
	return nil
}

func TestMarkDonePersistsThenReloads(t *testing.T) {
	store := &mapStore{}
	var reloadSawFlag bool
	signal := NewSignal(store, func() {
		reloadSawFlag = Done(store)
	})

	require.False(t, signal.Done())
	require.NoError(t, signal.MarkDone(context.Background()))
	require.True(t, reloadSawFlag)
	require.True(t, signal.Done())
}

func TestMarkDoneSkipsReloadOnPersistFailure(t *testing.T) {
	store := &mapStore{err: errors.New("disk full")}
	reloaded := false
	signal := NewSignal(store, func() { reloaded = true })

	err := signal.MarkDone(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
	require.False(t, reloaded)
}

func TestDoneRequiresTrueValue(t *testing.T) {
	require.False(t, Done(&mapStore{values: map[string]string{CookieName: "false"}}))
	require.True(t, Done(&mapStore{values: map[string]string{CookieName: "true"}}))
}

func TestMarkDoneSurvivesJarReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	jar, err := cookies.Open(path, "http://127.0.0.1:8080", nil)
	require.NoError(t, err)

	require.NoError(t, NewSignal(jar, nil).MarkDone(context.Background()))

	reopened, err := cookies.Open(path, "http://127.0.0.1:8080", nil)
	require.NoError(t, err)
	require.True(t, Done(reopened))
}

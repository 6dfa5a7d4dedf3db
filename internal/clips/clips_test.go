package clips

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	var l List
	a := l.Append("Yes", []byte{1}, "audio/wav", time.Unix(1, 0))
	b := l.Append("No", []byte{2}, "audio/wav", time.Unix(2, 0))

	require.Equal(t, 1, a.ID)
	require.Equal(t, 2, b.ID)
	require.Equal(t, []string{"Yes", "No"}, l.Labels())
	require.Equal(t, 2, l.Len())
}

func TestDeleteKeepsOrder(t *testing.T) {
	var l List
	l.Append("One", nil, "", time.Time{})
	l.Append("Two", nil, "", time.Time{})
	l.Append("Three", nil, "", time.Time{})

	snapshot := l.Snapshot()

	removed, err := l.Delete(2)
	require.NoError(t, err)
	require.Equal(t, "Two", removed.Word)
	require.Equal(t, []string{"One", "Three"}, l.Labels())

	// Earlier snapshots are unaffected by deletion.
	require.Len(t, snapshot, 3)
	require.Equal(t, "Two", snapshot[1].Word)

	_, err = l.Delete(2)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestResetKeepsIDsMonotonic(t *testing.T) {
	var l List
	l.Append("Go", nil, "", time.Time{})
	l.Reset()
	require.Zero(t, l.Len())

	c := l.Append("Up", nil, "", time.Time{})
	require.Equal(t, 2, c.ID)
}

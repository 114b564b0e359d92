package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/tally/core/execution"
)

func TestSchedule_IsTriggered(t *testing.T) {
	deadline := AtHeight(123)

	require.False(t, deadline.IsTriggered(execution.Block{Height: 122}))
	require.True(t, deadline.IsTriggered(execution.Block{Height: 123}))
	require.True(t, deadline.IsTriggered(execution.Block{Height: 124}))

	now := time.Date(2020, 10, 1, 12, 0, 0, 0, time.UTC)
	deadline = AtTime(now)

	require.False(t, deadline.IsTriggered(execution.Block{Time: now.Add(-time.Nanosecond)}))
	require.True(t, deadline.IsTriggered(execution.Block{Time: now}))
	require.True(t, deadline.IsTriggered(execution.Block{Time: now.Add(time.Hour)}))

	require.False(t, Schedule{}.IsTriggered(execution.Block{Height: 1 << 62, Time: now}))
}

func TestParseSchedule(t *testing.T) {
	deadline, err := ParseSchedule("height:123111")
	require.NoError(t, err)
	require.Equal(t, AtHeightKind, deadline.GetKind())
	require.Equal(t, uint64(123111), deadline.GetHeight())

	deadline, err = ParseSchedule("time:2020-10-01T12:00:00Z")
	require.NoError(t, err)
	require.Equal(t, AtTimeKind, deadline.GetKind())
	require.True(t, deadline.GetTime().Equal(time.Date(2020, 10, 1, 12, 0, 0, 0, time.UTC)))

	_, err = ParseSchedule("height:abc")
	require.Error(t, err)
	require.Regexp(t, "^invalid height: ", err.Error())

	_, err = ParseSchedule("time:yesterday")
	require.Regexp(t, "^invalid time: ", err.Error())

	_, err = ParseSchedule("tomorrow")
	require.EqualError(t, err, "invalid schedule 'tomorrow'")
}

func TestSchedule_String(t *testing.T) {
	require.Equal(t, "height:5", AtHeight(5).String())
	require.Equal(t, "time:2020-10-01T12:00:00Z",
		AtTime(time.Date(2020, 10, 1, 12, 0, 0, 0, time.UTC)).String())
	require.Equal(t, "never", Schedule{}.String())

	deadline, err := ParseSchedule(AtHeight(42).String())
	require.NoError(t, err)
	require.True(t, deadline.Equal(AtHeight(42)))
}

func TestSchedule_Equal(t *testing.T) {
	now := time.Now()

	require.True(t, AtHeight(1).Equal(AtHeight(1)))
	require.False(t, AtHeight(1).Equal(AtHeight(2)))
	require.True(t, AtTime(now).Equal(AtTime(now.In(time.Local))))
	require.False(t, AtTime(now).Equal(AtHeight(1)))
}

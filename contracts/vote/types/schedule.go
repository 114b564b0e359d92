package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.dedis.ch/tally/core/execution"
	"golang.org/x/xerrors"
)

// ScheduleKind is the kind of threshold of a schedule.
type ScheduleKind uint8

const (
	// AtHeightKind is a schedule triggered by a block height.
	AtHeightKind ScheduleKind = iota + 1

	// AtTimeKind is a schedule triggered by a block time.
	AtTimeKind
)

const (
	heightPrefix = "height:"
	timePrefix   = "time:"
)

// Schedule is a deadline evaluated against the block of the execution. The
// zero value is never triggered.
type Schedule struct {
	kind   ScheduleKind
	height uint64
	time   time.Time
}

// AtHeight returns a schedule triggered once the block height reaches the
// given height.
func AtHeight(height uint64) Schedule {
	return Schedule{
		kind:   AtHeightKind,
		height: height,
	}
}

// AtTime returns a schedule triggered once the block time reaches the given
// time.
func AtTime(t time.Time) Schedule {
	return Schedule{
		kind: AtTimeKind,
		time: t.UTC(),
	}
}

// ParseSchedule parses the text form of a schedule, which is either
// "height:<n>" or "time:<RFC3339>".
func ParseSchedule(text string) (Schedule, error) {
	switch {
	case strings.HasPrefix(text, heightPrefix):
		height, err := strconv.ParseUint(strings.TrimPrefix(text, heightPrefix), 10, 64)
		if err != nil {
			return Schedule{}, xerrors.Errorf("invalid height: %v", err)
		}

		return AtHeight(height), nil
	case strings.HasPrefix(text, timePrefix):
		t, err := time.Parse(time.RFC3339Nano, strings.TrimPrefix(text, timePrefix))
		if err != nil {
			return Schedule{}, xerrors.Errorf("invalid time: %v", err)
		}

		return AtTime(t), nil
	default:
		return Schedule{}, xerrors.Errorf("invalid schedule '%s'", text)
	}
}

// GetKind returns the kind of the schedule, or zero if the schedule is not
// set.
func (s Schedule) GetKind() ScheduleKind {
	return s.kind
}

// GetHeight returns the height of the schedule.
func (s Schedule) GetHeight() uint64 {
	return s.height
}

// GetTime returns the time of the schedule.
func (s Schedule) GetTime() time.Time {
	return s.time
}

// IsTriggered returns true when the block has reached the threshold of the
// schedule.
func (s Schedule) IsTriggered(block execution.Block) bool {
	switch s.kind {
	case AtHeightKind:
		return block.Height >= s.height
	case AtTimeKind:
		return !block.Time.Before(s.time)
	default:
		return false
	}
}

// Equal returns true when both schedules have the same threshold.
func (s Schedule) Equal(other Schedule) bool {
	return s.kind == other.kind && s.height == other.height && s.time.Equal(other.time)
}

// String implements fmt.Stringer. It returns the text form of the schedule.
func (s Schedule) String() string {
	switch s.kind {
	case AtHeightKind:
		return fmt.Sprintf("%s%d", heightPrefix, s.height)
	case AtTimeKind:
		return timePrefix + s.time.Format(time.RFC3339Nano)
	default:
		return "never"
	}
}

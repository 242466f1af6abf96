package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordingSink(t *testing.T) {
	sink := &RecordingSink{}

	sink.Status("working")
	sink.Progress("download", 50, 100, "fw.enc4")
	sink.Message("done", SeveritySuccess)

	assert.Equal(t, []string{"working"}, sink.Statuses)
	assert.Equal(t, []ProgressEvent{{Stage: "download", Done: 50, Total: 100, Label: "fw.enc4"}}, sink.Progresses)

	msg, ok := sink.LastMessage()
	assert.True(t, ok)
	assert.Equal(t, MessageEvent{Text: "done", Severity: SeveritySuccess}, msg)

	_, ok = (&RecordingSink{}).LastMessage()
	assert.False(t, ok)
}

func TestThrottledSinkSuppressesNoise(t *testing.T) {
	rec := &RecordingSink{}
	sink := &ThrottledSink{Next: rec, HoldOff: time.Hour}

	// sub-percent ticks inside the hold-off window are dropped
	sink.Progress("download", 1, 1000, "fw")
	sink.Progress("download", 2, 1000, "fw")
	sink.Progress("download", 3, 1000, "fw")
	assert.Len(t, rec.Progresses, 1)

	// a >=1% jump goes through regardless of the window
	sink.Progress("download", 500, 1000, "fw")
	assert.Len(t, rec.Progresses, 2)

	// the final tick always goes through
	sink.Progress("download", 1000, 1000, "fw")
	assert.Len(t, rec.Progresses, 3)

	// status and messages are never throttled
	sink.Status("s")
	sink.Message("m", SeverityInfo)
	assert.Len(t, rec.Statuses, 1)
	assert.Len(t, rec.Messages, 1)
}

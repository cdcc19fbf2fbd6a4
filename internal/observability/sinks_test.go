package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valter-silva-au/jobwatch/pkg/models"
)

func TestMultiSink_ForwardsInOrderAndSkipsNil(t *testing.T) {
	first := NewCollector(models.LevelInfo)
	second := NewTally()

	sink := NewMultiSink(first, nil, second)
	require.Len(t, sink, 2)

	msgs := []models.Message{
		{Level: models.LevelInfo, Text: "one", Kind: models.KindUnmatchedEnd},
		{Level: models.LevelError, Text: "two", Kind: models.KindSlowJob, DurationMinutes: 12},
	}
	for _, m := range msgs {
		sink.Record(m)
	}

	assert.Equal(t, msgs, first.Messages)
	assert.Equal(t, 2, second.Total)
}

func TestTally_CountsAndSlowest(t *testing.T) {
	tally := NewTally()

	tally.Record(models.Message{Level: models.LevelWarning, Kind: models.KindSlowJob, PID: "1", DurationMinutes: 6})
	tally.Record(models.Message{Level: models.LevelError, Kind: models.KindSlowJob, PID: "2", DurationMinutes: 20})
	tally.Record(models.Message{Level: models.LevelError, Kind: models.KindSlowJob, PID: "3", DurationMinutes: 11})
	tally.Record(models.Message{Level: models.LevelInfo, Kind: models.KindUnknownStatus, PID: "4"})
	tally.Record(models.Message{Level: models.LevelWarning, Kind: models.KindInvalidTimestamp, PID: "5"})

	assert.Equal(t, 5, tally.Total)
	assert.Equal(t, 2, tally.Count(models.LevelError))
	assert.Equal(t, 2, tally.Count(models.LevelWarning))
	assert.Equal(t, 1, tally.Count(models.LevelInfo))
	assert.Equal(t, 3, tally.ByKind[models.KindSlowJob])
	require.NotNil(t, tally.Slowest)
	assert.Equal(t, "2", tally.Slowest.PID)
}

func TestTally_IgnoresNonSlowForSlowest(t *testing.T) {
	tally := NewTally()
	tally.Record(models.Message{Level: models.LevelInfo, Kind: models.KindUnmatchedEnd, PID: "9"})
	assert.Nil(t, tally.Slowest)
}

func TestCollector_MinLevel(t *testing.T) {
	tests := []struct {
		name string
		min  models.Level
		want int
	}{
		{"info keeps everything", models.LevelInfo, 3},
		{"warning drops info", models.LevelWarning, 2},
		{"error keeps only errors", models.LevelError, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollector(tt.min)
			c.Record(models.Message{Level: models.LevelInfo})
			c.Record(models.Message{Level: models.LevelWarning})
			c.Record(models.Message{Level: models.LevelError})
			assert.Len(t, c.Messages, tt.want)
		})
	}
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventAcceptsSubmissionsOn(t *testing.T) {
	now := time.Date(2026, 10, 15, 23, 30, 0, 0, time.UTC)
	today := &Event{EndDate: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)}
	yesterday := &Event{EndDate: time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)}
	tomorrow := &Event{EndDate: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)}

	assert.True(t, today.AcceptsSubmissionsOn(now))
	assert.True(t, tomorrow.AcceptsSubmissionsOn(now))
	assert.False(t, yesterday.AcceptsSubmissionsOn(now))
}

func TestDateOfNormalisesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	local := time.Date(2026, 10, 15, 22, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), DateOf(local))
}

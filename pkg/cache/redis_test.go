package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "timetable:proposal:abc", Key("proposal", "abc"))
	assert.Equal(t, "timetable:", Key())
	assert.Equal(t, "timetable:proposal:*", Key("proposal", "*"))
}

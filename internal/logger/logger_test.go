package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateIDs(t *testing.T) {
	ids := []string{"J1", "J2", "J3", "J4"}

	assert.Equal(t, []string{"J1", "J2", "..."}, TruncateIDs(ids, 2))
	assert.Equal(t, ids, TruncateIDs(ids, 4))
	assert.Equal(t, ids, TruncateIDs(ids, 0))
	assert.Empty(t, TruncateIDs(nil, 3))
}

func TestTruncateForLog(t *testing.T) {
	assert.Equal(t, "abc...", TruncateForLog("abcdef", 3))
	assert.Equal(t, "abc", TruncateForLog("  abc  ", 10))
	assert.Equal(t, "", TruncateForLog("abc", 0))
}

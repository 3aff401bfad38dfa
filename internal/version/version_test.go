package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFull(t *testing.T) {
	oldVersion, oldCommit, oldDate := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = oldVersion, oldCommit, oldDate })

	Version, Commit, Date = "v1.2.3", "abc1234", "2024-08-01"
	assert.Equal(t, "v1.2.3", Get())
	assert.Equal(t, "kitlend version v1.2.3 (commit: abc1234, built: 2024-08-01)", GetFull())
}

package publish

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessage(t *testing.T) {
	when := time.Date(2024, time.March, 5, 7, 8, 9, 0, time.UTC)

	tests := []struct {
		action Action
		want   string
	}{
		{ActionUpdate, "[05/03/2024, 07:08:09] Automatic update :: abc"},
		{ActionMerge, "[05/03/2024, 07:08:09] Automatic merge :: abc"},
		{ActionRebase, "[05/03/2024, 07:08:09] Automatic rebase :: abc"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, Message(when, tt.action, "abc"))
		})
	}
}

func TestMessagePattern(t *testing.T) {
	pattern := regexp.MustCompile(`^\[\d{2}/\d{2}/\d{4}, \d{2}:\d{2}:\d{2}\] Automatic (update|merge|rebase) :: [a-p]{32}$`)

	c := Commit{ExtensionID: "aapocclcgogkmnckokdopfmhonfmgoek", When: time.Now()}
	for _, action := range []Action{ActionUpdate, ActionMerge, ActionRebase} {
		assert.Regexp(t, pattern, c.Message(action))
	}
}

func TestStrategyValid(t *testing.T) {
	assert.True(t, StrategyTreeAPI.Valid())
	assert.True(t, StrategyClonePush.Valid())
	assert.False(t, Strategy("rsync").Valid())
	assert.False(t, Strategy("").Valid())
}

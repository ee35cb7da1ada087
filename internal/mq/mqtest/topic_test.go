package mqtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"#", "", true},
		{"#", "abc123", true},
		{"#", "job.42.frame", true},
		{"*", "abc", true},
		{"*", "a.b", false},
		{"*", "", true},
		{"job.*", "job.42", true},
		{"job.*", "job.42.frame", false},
		{"job.#", "job", true},
		{"job.#", "job.42.frame", true},
		{"job.#", "task.42", false},
		{"*.frame", "42.frame", true},
		{"#.frame", "job.42.frame", true},
		{"#.frame", "job.42.done", false},
		{"abc", "abc", true},
		{"abc", "abd", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchTopic(tt.pattern, tt.key))
		})
	}
}

package domain

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRange_Frames(t *testing.T) {
	tests := []struct {
		name string
		r    FrameRange
		want []int
	}{
		{"single", FrameRange{Start: 1, End: 1}, []int{1}},
		{"default step", FrameRange{Start: 1, End: 4}, []int{1, 2, 3, 4}},
		{"step 2", FrameRange{Start: 0, End: 5, Step: 2}, []int{0, 2, 4}},
		{"negative step", FrameRange{Start: 3, End: 4, Step: -1}, []int{3, 4}},
		{"empty", FrameRange{Start: 5, End: 1}, nil},
		{"last int", FrameRange{Start: math.MaxInt, End: math.MaxInt}, []int{math.MaxInt}},
		{"step past last int", FrameRange{Start: math.MaxInt - 3, End: math.MaxInt, Step: 2}, []int{math.MaxInt - 3, math.MaxInt - 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Frames())
		})
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob("/shared/scene.blend", FrameRange{Start: 1, End: 10})

	assert.NotEmpty(t, job.ID())
	assert.Equal(t, job.JobID, job.ID())
	assert.Equal(t, JobStatusPending, job.Status)
	assert.False(t, job.CreatedAt.IsZero())
	assert.Nil(t, job.PostedAt)
}

func TestJob_SerializeParse(t *testing.T) {
	job := NewJob("/shared/scene.blend", FrameRange{Start: 1, End: 3})
	job.Email = "render@example.com"
	job.Data = map[string]any{"engine": "CYCLES"}

	text, err := job.Serialize()
	require.NoError(t, err)
	assert.Contains(t, text, `"id":"`+job.ID()+`"`)
	assert.Contains(t, text, `"blend_file":"/shared/scene.blend"`)

	parsed, err := ParseJob(text)
	require.NoError(t, err)
	assert.Equal(t, job.ID(), parsed.ID())
	assert.Equal(t, job.Frames, parsed.Frames)
	assert.Equal(t, "CYCLES", parsed.Data["engine"])
	assert.True(t, job.CreatedAt.Equal(parsed.CreatedAt))
}

func TestJob_SerializeIsStable(t *testing.T) {
	job := NewJob("/shared/scene.blend", FrameRange{Start: 1, End: 3})

	first, err := job.Serialize()
	require.NoError(t, err)
	second, err := job.Serialize()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestJob_SerializeError(t *testing.T) {
	job := NewJob("/shared/scene.blend", FrameRange{Start: 1, End: 1})
	job.Data = map[string]any{"callback": func() {}}

	text, err := job.Serialize()
	require.ErrorIs(t, err, ErrSerialize)
	assert.Empty(t, text)
}

func TestParseJob_Invalid(t *testing.T) {
	_, err := ParseJob("{not json")
	require.ErrorIs(t, err, ErrParse)
}

func TestJob_MarkPosted(t *testing.T) {
	job := NewJob("/shared/scene.blend", FrameRange{Start: 1, End: 1})
	job.MarkPosted()

	assert.Equal(t, JobStatusPosted, job.Status)
	require.NotNil(t, job.PostedAt)
}

func TestJob_Tasks(t *testing.T) {
	job := NewJob("/shared/scene.blend", FrameRange{Start: 10, End: 14, Step: 2})

	tasks := job.Tasks()
	require.Len(t, tasks, 3)

	for i, frame := range []int{10, 12, 14} {
		task := tasks[i]
		assert.Equal(t, job.ID(), task.JobID)
		assert.Equal(t, frame, task.Frame)
		assert.Equal(t, TaskStatusQueued, task.Status)
		assert.True(t, strings.HasSuffix(task.Command, "-f "+strconv.Itoa(frame)), task.Command)
	}
	assert.NotEqual(t, tasks[0].ID, tasks[1].ID)
}

func TestParseFrameRange(t *testing.T) {
	tests := []struct {
		in   string
		want FrameRange
	}{
		{"7", FrameRange{Start: 7, End: 7}},
		{"1-250", FrameRange{Start: 1, End: 250}},
		{"1-250:5", FrameRange{Start: 1, End: 250, Step: 5}},
		{"0-0", FrameRange{Start: 0, End: 0}},
	}
	for _, tt := range tests {
		got, err := ParseFrameRange(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "a-b", "10-1", "1-5:0", "1-5:x", "1-", "-5", "1-2000000000"} {
		_, err := ParseFrameRange(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseFrameRange_MaxFrames(t *testing.T) {
	r, err := ParseFrameRange("1-" + strconv.Itoa(MaxFrames))
	require.NoError(t, err)
	assert.Equal(t, MaxFrames, r.Len())

	_, err = ParseFrameRange("0-" + strconv.Itoa(MaxFrames))
	require.Error(t, err)

	r, err = ParseFrameRange("1-" + strconv.Itoa(MaxFrames*10) + ":10")
	require.NoError(t, err)
	assert.Equal(t, MaxFrames, r.Len())
}

func TestParseFrameRange_LastInt(t *testing.T) {
	r, err := ParseFrameRange(strconv.Itoa(math.MaxInt))
	require.NoError(t, err)
	assert.Equal(t, []int{math.MaxInt}, r.Frames())
}

func TestFrameRange_String(t *testing.T) {
	for _, in := range []string{"7", "1-250", "1-250:5"} {
		r, err := ParseFrameRange(in)
		require.NoError(t, err)
		assert.Equal(t, in, r.String())
	}
	assert.Equal(t, "3-9", FrameRange{Start: 3, End: 9, Step: 1}.String())
}

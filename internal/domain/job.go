package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxFrames — наибольшее число кадров в одном диапазоне.
const MaxFrames = 100000

// FrameRange — диапазон кадров для рендера, границы включительно.
type FrameRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Step  int `json:"step,omitempty"`
}

// Len возвращает число кадров диапазона.
func (r FrameRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return int(uint(r.End-r.Start)/uint(r.step())) + 1
}

// Frames возвращает номера кадров диапазона. Step <= 0 считается за 1.
func (r FrameRange) Frames() []int {
	n := r.Len()
	if n <= 0 {
		return nil
	}

	frames := make([]int, n)
	step := r.step()
	for i := range frames {
		frames[i] = r.Start + i*step
	}
	return frames
}

// String возвращает диапазон в формате ParseFrameRange.
func (r FrameRange) String() string {
	s := strconv.Itoa(r.Start)
	if r.End != r.Start {
		s += "-" + strconv.Itoa(r.End)
	}
	if r.Step > 1 {
		s += ":" + strconv.Itoa(r.Step)
	}
	return s
}

func (r FrameRange) step() int {
	if r.Step <= 0 {
		return 1
	}
	return r.Step
}

// ParseFrameRange разбирает диапазон кадров: "7", "1-250" или "1-250:5".
func ParseFrameRange(s string) (FrameRange, error) {
	var r FrameRange

	rng, step, hasStep := strings.Cut(s, ":")
	if hasStep {
		n, err := strconv.Atoi(step)
		if err != nil || n <= 0 {
			return r, fmt.Errorf("invalid frame step %q", step)
		}
		r.Step = n
	}

	start, end, isRange := strings.Cut(rng, "-")
	first, err := strconv.Atoi(start)
	if err != nil {
		return r, fmt.Errorf("invalid frame %q", start)
	}
	r.Start, r.End = first, first

	if isRange {
		last, err := strconv.Atoi(end)
		if err != nil {
			return r, fmt.Errorf("invalid frame %q", end)
		}
		r.End = last
	}

	if r.End < r.Start {
		return r, fmt.Errorf("frame range %q ends before it starts", s)
	}
	if r.Start < 0 {
		return r, fmt.Errorf("frame range %q starts below zero", s)
	}
	if n := r.Len(); n > MaxFrames {
		return r, fmt.Errorf("frame range %q has %d frames, max %d", s, n, MaxFrames)
	}
	return r, nil
}

// Job — задание на рендер, которое разбивается на tasks.
//
// Job публикуется в exchange job целиком, а его состояние — в info-topic
// с routing key, равным ID.
type Job struct {
	// JobID — уникальный идентификатор job. Отдаётся методом ID().
	JobID string `json:"id"`

	// BlendFile — путь к .blend файлу на общем хранилище.
	BlendFile string `json:"blend_file"`

	// Frames — какие кадры рендерить.
	Frames FrameRange `json:"frames"`

	// Status — текущий статус job.
	Status JobStatus `json:"status"`

	// Email — куда сообщить о завершении.
	Email string `json:"email,omitempty"`

	// Data — произвольные параметры рендера.
	Data map[string]any `json:"data,omitempty"`

	// CreatedAt — время создания job.
	CreatedAt time.Time `json:"created_at"`

	// PostedAt — время публикации в брокер.
	PostedAt *time.Time `json:"posted_at,omitempty"`
}

// NewJob создаёт job в статусе PENDING.
func NewJob(blendFile string, frames FrameRange) *Job {
	return &Job{
		JobID:     uuid.NewString(),
		BlendFile: blendFile,
		Frames:    frames,
		Status:    JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// ID возвращает идентификатор job.
func (j *Job) ID() string {
	return j.JobID
}

// Serialize кодирует job в JSON текст для публикации.
func (j *Job) Serialize() (string, error) {
	return serialize(j)
}

// ParseJob декодирует job из JSON текста.
func ParseJob(text string) (*Job, error) {
	var j Job
	if err := parse(text, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// MarkPosted переводит job в статус POSTED.
func (j *Job) MarkPosted() {
	now := time.Now().UTC()
	j.Status = JobStatusPosted
	j.PostedAt = &now
}

// Tasks разбивает job на tasks: по одному на кадр.
func (j *Job) Tasks() []Task {
	frames := j.Frames.Frames()
	tasks := make([]Task, 0, len(frames))
	for _, f := range frames {
		tasks = append(tasks, *NewTask(j, f))
	}
	return tasks
}

package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/atoav/bender-mq/internal/domain"
)

// JobStore — outbox jobs и tasks. repo.Outbox удовлетворяет интерфейсу.
type JobStore interface {
	CreateWithTasks(ctx context.Context, job *domain.Job, tasks []domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	ListByJobID(ctx context.Context, jobID string) ([]domain.Task, error)
}

// JobStoreFunc открывает outbox. Возвращённая функция освобождает ресурсы.
type JobStoreFunc func(ctx context.Context) (JobStore, func(), error)

// jobView — вывод созданного job.
type jobView struct {
	ID        string `json:"id"`
	BlendFile string `json:"blend_file"`
	Frames    string `json:"frames"`
	Tasks     int    `json:"tasks"`
	Status    string `json:"status"`
}

// jobDetail — вывод job show.
type jobDetail struct {
	ID        string     `json:"id"`
	BlendFile string     `json:"blend_file"`
	Frames    string     `json:"frames"`
	Status    string     `json:"status"`
	PostedAt  string     `json:"posted_at,omitempty"`
	Done      int        `json:"done"`
	Tasks     []taskView `json:"tasks"`
}

type taskView struct {
	ID      string `json:"id"`
	Frame   int    `json:"frame"`
	Status  string `json:"status"`
	Attempt int    `json:"attempt"`
}

// NewJobCmd создаёт группу команд для jobs.
func NewJobCmd(storeFn JobStoreFunc, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage render jobs in the outbox",
	}

	cmd.AddCommand(
		newJobSubmitCmd(storeFn, outputFn),
		newJobShowCmd(storeFn, outputFn),
	)

	return cmd
}

func newJobSubmitCmd(storeFn JobStoreFunc, outputFn func() *Output) *cobra.Command {
	var frames string
	var email string
	var data map[string]string

	cmd := &cobra.Command{
		Use:   "submit BLEND_FILE",
		Short: "Store a job and its tasks; the relay posts them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			rng, err := domain.ParseFrameRange(frames)
			if err != nil {
				return fmt.Errorf("invalid value for --frames: %w", err)
			}

			job := domain.NewJob(args[0], rng)
			job.Email = email
			if len(data) > 0 {
				job.Data = make(map[string]any, len(data))
				for k, v := range data {
					job.Data[k] = v
				}
			}
			tasks := job.Tasks()

			store, closeFn, err := storeFn(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := store.CreateWithTasks(cmd.Context(), job, tasks); err != nil {
				return fmt.Errorf("create job: %w", err)
			}

			view := jobView{
				ID:        job.JobID,
				BlendFile: job.BlendFile,
				Frames:    frames,
				Tasks:     len(tasks),
				Status:    string(job.Status),
			}

			out.Notef("Job submitted: %s", job.JobID)
			out.Print(
				[]string{"ID", "BLEND_FILE", "FRAMES", "TASKS", "STATUS"},
				[][]string{{view.ID, view.BlendFile, view.Frames, strconv.Itoa(view.Tasks), view.Status}},
				view,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&frames, "frames", "1", `Frames to render: "7", "1-250" or "1-250:5"`)
	cmd.Flags().StringVar(&email, "email", "", "Notify this address when the job finishes")
	cmd.Flags().StringToStringVar(&data, "set", nil, "Render parameter key=value (repeatable)")

	return cmd
}

func newJobShowCmd(storeFn JobStoreFunc, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show JOB_ID",
		Short: "Show a job and the state of its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			ctx := cmd.Context()

			store, closeFn, err := storeFn(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			job, err := store.GetByID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("get job %s: %w", args[0], err)
			}
			tasks, err := store.ListByJobID(ctx, job.JobID)
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}

			detail := jobDetail{
				ID:        job.JobID,
				BlendFile: job.BlendFile,
				Frames:    job.Frames.String(),
				Status:    string(job.Status),
				Tasks:     make([]taskView, 0, len(tasks)),
			}
			if job.PostedAt != nil {
				detail.PostedAt = job.PostedAt.Format(time.RFC3339)
			}

			taskRows := make([][]string, 0, len(tasks))
			for i := range tasks {
				t := &tasks[i]
				if t.IsFinished() {
					detail.Done++
				}
				detail.Tasks = append(detail.Tasks, taskView{
					ID:      t.ID.String(),
					Frame:   t.Frame,
					Status:  string(t.Status),
					Attempt: t.Attempt,
				})
				taskRows = append(taskRows, []string{t.ID.String(), strconv.Itoa(t.Frame), string(t.Status), strconv.Itoa(t.Attempt)})
			}

			if out.JSONMode() {
				out.JSON(detail)
				return nil
			}

			out.Table(
				[]string{"ID", "BLEND_FILE", "FRAMES", "TASKS", "DONE", "STATUS"},
				[][]string{{detail.ID, detail.BlendFile, detail.Frames, strconv.Itoa(len(detail.Tasks)), strconv.Itoa(detail.Done), detail.Status}},
			)
			if len(taskRows) > 0 {
				out.Text("\n")
				out.Table([]string{"TASK", "FRAME", "STATUS", "ATTEMPT"}, taskRows)
			}
			return nil
		},
	}
}

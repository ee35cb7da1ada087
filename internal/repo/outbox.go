package repo

// Outbox — jobs и tasks над одним пулом.
type Outbox struct {
	*JobRepo
	*TaskRepo
}

// NewOutbox создаёт Outbox.
func NewOutbox(db DB) *Outbox {
	return &Outbox{
		JobRepo:  NewJobRepo(db),
		TaskRepo: NewTaskRepo(db),
	}
}

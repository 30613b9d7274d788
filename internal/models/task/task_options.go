package task

type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

func WithColumn(column Column) TaskOption {
	return func(task *Task) {
		task.Column = column
	}
}

func WithOrder(order int) TaskOption {
	return func(task *Task) {
		task.Order = order
	}
}

// Apply применяет опции к задаче, пропуская nil.
func (t *Task) Apply(options ...TaskOption) {
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
}

package reorder

import (
	"context"
	"fmt"
	"kanbanBoard/internal/models/task"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"
)

// Applier применяет одно изменение. Реализации: сервис поверх хранилища
// и HTTP-клиент, отправляющий PATCH.
type Applier func(ctx context.Context, u Update) error

type Outcome struct {
	Applied  []string      `json:"applied"`
	Failed   []string      `json:"failed"`
	Affected []task.Column `json:"affectedColumns"`
	Err      error         `json:"-"`
}

func (o *Outcome) Complete() bool {
	return o.Err == nil
}

type result struct {
	idx int
	err error
}

// Dispatch запускает изменения плана параллельно и ждёт все.
// Уже применённые изменения не откатываются.
func Dispatch(ctx context.Context, plan *Plan, apply Applier, maxGoroutines int) *Outcome {
	out := &Outcome{
		Applied:  []string{},
		Failed:   []string{},
		Affected: plan.Affected,
	}
	if plan.Empty() {
		return out
	}

	p := pool.NewWithResults[result]()
	if maxGoroutines > 0 {
		p = p.WithMaxGoroutines(maxGoroutines)
	}
	for i, u := range plan.Updates {
		p.Go(func() result {
			return result{idx: i, err: apply(ctx, u)}
		})
	}

	errs := make([]error, len(plan.Updates))
	for _, r := range p.Wait() {
		errs[r.idx] = r.err
	}

	for i, u := range plan.Updates {
		if errs[i] != nil {
			out.Failed = append(out.Failed, u.ID)
			out.Err = multierr.Append(out.Err, fmt.Errorf("задача %s: %w", u.ID, errs[i]))
			continue
		}
		out.Applied = append(out.Applied, u.ID)
	}
	return out
}

package listing_test

import (
	"fmt"
	"kanbanBoard/internal/listing"
	"kanbanBoard/internal/models/task"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(tasks []*task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func board() []*task.Task {
	return []*task.Task{
		{ID: "c", Title: "Deploy", Description: "prod rollout", Column: task.ColumnBacklog, Order: 2},
		{ID: "a", Title: "Write docs", Description: "", Column: task.ColumnBacklog, Order: 0},
		{ID: "b", Title: "Fix login", Description: "OAuth callback", Column: task.ColumnBacklog, Order: 1},
		{ID: "e", Title: "Tie late", Column: task.ColumnBacklog, Order: 1},
		{ID: "d", Title: "Review PR", Description: "", Column: task.ColumnReview, Order: 0},
	}
}

func TestMatches(t *testing.T) {
	tk := &task.Task{Title: "Fix Login", Description: "OAuth Callback"}

	assert.True(t, listing.Matches(tk, ""))
	assert.True(t, listing.Matches(tk, "login"))
	assert.True(t, listing.Matches(tk, "CALLBACK"))
	assert.False(t, listing.Matches(tk, "logout"))
}

func TestPaginate_OrderAndTieBreak(t *testing.T) {
	page, err := listing.Paginate(board(), listing.PageQuery{Column: task.ColumnBacklog, Page: 1, PageSize: 10})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "e", "c"}, ids(page.Tasks))
	assert.Equal(t, 4, page.Total)
	assert.False(t, page.HasMore)
}

func TestPaginate_DescriptionOnlyMatch(t *testing.T) {
	page, err := listing.Paginate(board(), listing.PageQuery{Column: task.ColumnBacklog, Page: 1, PageSize: 5, Search: "oauth"})
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, ids(page.Tasks))
	assert.Equal(t, 1, page.Total)
}

func TestPaginate_ConcatenationReproducesSequence(t *testing.T) {
	var tasks []*task.Task
	for i := 0; i < 23; i++ {
		tasks = append(tasks, &task.Task{ID: fmt.Sprintf("id-%02d", i), Column: task.ColumnInProgress, Order: i % 7})
	}

	full, err := listing.Paginate(tasks, listing.PageQuery{Column: task.ColumnInProgress, Page: 1, PageSize: 100})
	require.NoError(t, err)

	var collected []*task.Task
	for p := 1; ; p++ {
		page, err := listing.Paginate(tasks, listing.PageQuery{Column: task.ColumnInProgress, Page: p, PageSize: 5})
		require.NoError(t, err)
		collected = append(collected, page.Tasks...)
		assert.Equal(t, len(page.Tasks) == 5, page.HasMore)
		if !page.HasMore {
			break
		}
	}

	assert.Equal(t, ids(full.Tasks), ids(collected))
}

func TestPaginate_ExactMultipleNeedsExtraFetch(t *testing.T) {
	tasks := []*task.Task{
		{ID: "1", Column: task.ColumnDone},
		{ID: "2", Column: task.ColumnDone},
	}

	first, err := listing.Paginate(tasks, listing.PageQuery{Column: task.ColumnDone, Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.True(t, first.HasMore)

	second, err := listing.Paginate(tasks, listing.PageQuery{Column: task.ColumnDone, Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, second.Tasks)
	assert.NotNil(t, second.Tasks)
	assert.False(t, second.HasMore)
	assert.Equal(t, 2, second.Total)
}

func TestPaginate_EmptyColumn(t *testing.T) {
	page, err := listing.Paginate(board(), listing.PageQuery{Column: task.ColumnDone, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Tasks)
	assert.Equal(t, 0, page.Total)
	assert.False(t, page.HasMore)
}

func TestPaginate_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		query listing.PageQuery
	}{
		{"page zero", listing.PageQuery{Column: task.ColumnBacklog, Page: 0, PageSize: 10}},
		{"negative page", listing.PageQuery{Column: task.ColumnBacklog, Page: -1, PageSize: 10}},
		{"zero page size", listing.PageQuery{Column: task.ColumnBacklog, Page: 1, PageSize: 0}},
		{"unknown column", listing.PageQuery{Column: "archive", Page: 1, PageSize: 10}},
		{"offset overflows int", listing.PageQuery{Column: task.ColumnBacklog, Page: 1<<62 + 1, PageSize: 2}},
		{"max page", listing.PageQuery{Column: task.ColumnBacklog, Page: math.MaxInt, PageSize: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := listing.Paginate(board(), tt.query)
			assert.ErrorIs(t, err, listing.ErrInvalidQuery)
		})
	}
}

func TestPaginate_LargestValidPage(t *testing.T) {
	page, err := listing.Paginate(board(), listing.PageQuery{Column: task.ColumnBacklog, Page: math.MaxInt, PageSize: 1})
	require.NoError(t, err)
	assert.Empty(t, page.Tasks)
	assert.False(t, page.HasMore)
}

func TestApply_HugeLimitDoesNotOverflow(t *testing.T) {
	q := listing.NewQuery()
	q.Start = 1
	q.Limit = math.MaxInt

	res, err := listing.Apply(board(), q)
	require.NoError(t, err)
	assert.Len(t, res.Tasks, res.Total-1)
}

func TestPageQuery_Offset(t *testing.T) {
	assert.Equal(t, 0, listing.PageQuery{Page: 1, PageSize: 10}.Offset())
	assert.Equal(t, 20, listing.PageQuery{Page: 3, PageSize: 10}.Offset())
}

func TestApply_Defaults(t *testing.T) {
	res, err := listing.Apply(board(), listing.NewQuery())
	require.NoError(t, err)

	assert.Equal(t, 5, res.Total)
	assert.Equal(t, []string{"a", "d", "b", "e", "c"}, ids(res.Tasks))
}

func TestApply_DescendingKeepsIDAscending(t *testing.T) {
	q := listing.NewQuery()
	q.Column = task.ColumnBacklog
	q.Direction = listing.Desc

	res, err := listing.Apply(board(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "e", "a"}, ids(res.Tasks))
}

func TestApply_SortByTitleAndWindow(t *testing.T) {
	q := listing.NewQuery()
	q.Sort = listing.SortTitle
	q.Start = 1
	q.Limit = 2

	res, err := listing.Apply(board(), q)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, []string{"b", "d"}, ids(res.Tasks))
}

func TestApply_StartPastEnd(t *testing.T) {
	q := listing.NewQuery()
	q.Start = 50

	res, err := listing.Apply(board(), q)
	require.NoError(t, err)
	assert.Empty(t, res.Tasks)
	assert.Equal(t, 5, res.Total)
}

func TestApply_DoesNotReorderInput(t *testing.T) {
	input := board()
	q := listing.NewQuery()
	q.Sort = listing.SortID

	_, err := listing.Apply(input, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b", "e", "d"}, ids(input))
}

func TestApply_Rejects(t *testing.T) {
	base := listing.NewQuery()

	badSort := base
	badSort.Sort = "priority"
	badDir := base
	badDir.Direction = "sideways"
	badStart := base
	badStart.Start = -1
	badLimit := base
	badLimit.Limit = 0

	for name, q := range map[string]listing.Query{
		"sort": badSort, "direction": badDir, "start": badStart, "limit": badLimit,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := listing.Apply(board(), q)
			assert.ErrorIs(t, err, listing.ErrInvalidQuery)
		})
	}
}

func TestParseSortAndDirection(t *testing.T) {
	s, err := listing.ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, listing.SortOrder, s)

	s, err = listing.ParseSort("Title")
	require.NoError(t, err)
	assert.Equal(t, listing.SortTitle, s)

	d, err := listing.ParseDirection("DESC")
	require.NoError(t, err)
	assert.Equal(t, listing.Desc, d)

	_, err = listing.ParseDirection("up")
	assert.ErrorIs(t, err, listing.ErrInvalidQuery)
}

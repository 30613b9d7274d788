package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"kanbanBoard/internal/listing"
	"kanbanBoard/internal/models/task"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printColumns(w io.Writer, columns []task.ColumnInfo) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tНАЗВАНИЕ\tЦВЕТ")
	for _, c := range columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Title, c.Color)
	}
	return tw.Flush()
}

func printTasks(tw *tabwriter.Writer, tasks []*task.Task) {
	fmt.Fprintln(tw, "ORDER\tID\tНАЗВАНИЕ\tОПИСАНИЕ")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.Order, t.ID, t.Title, t.Description)
	}
}

func printPage(w io.Writer, p *listing.Page, page int) error {
	if len(p.Tasks) == 0 {
		fmt.Fprintln(w, "Задач не найдено")
		return nil
	}

	tw := newTable(w)
	printTasks(tw, p.Tasks)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "Страница %d, всего %d", page, p.Total)
	if p.HasMore {
		fmt.Fprintf(w, ", дальше --page %d", page+1)
	}
	fmt.Fprintln(w)
	return nil
}

func printBoard(w io.Writer, tasks []*task.Task) error {
	for _, c := range task.Columns() {
		inColumn := task.FilterColumn(tasks, c.ID)
		fmt.Fprintf(w, "== %s (%d) ==\n", c.Title, len(inColumn))
		if len(inColumn) == 0 {
			fmt.Fprintln(w)
			continue
		}

		tw := newTable(w)
		printTasks(tw, inColumn)
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}

func printTask(w io.Writer, t *task.Task) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID\t%s\n", t.ID)
	fmt.Fprintf(tw, "Название\t%s\n", t.Title)
	fmt.Fprintf(tw, "Описание\t%s\n", t.Description)
	fmt.Fprintf(tw, "Колонка\t%s\n", t.Column)
	fmt.Fprintf(tw, "Порядок\t%d\n", t.Order)
	return tw.Flush()
}

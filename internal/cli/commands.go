package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"kanbanBoard/internal/handlers/dto"
	"kanbanBoard/internal/listing"
	"kanbanBoard/internal/models/task"
	"kanbanBoard/internal/reorder"
)

func (r *RootCommand) listCommand() *cobra.Command {
	var (
		page     int
		pageSize int
		search   string
	)

	cmd := &cobra.Command{
		Use:   "list <column>",
		Short: "Страница задач колонки",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.context()
			defer cancel()

			p, err := r.client().ListColumn(ctx, listing.PageQuery{
				Column:   task.Column(args[0]),
				Page:     page,
				PageSize: pageSize,
				Search:   search,
			})
			if err != nil {
				return fmt.Errorf("получение страницы: %w", err)
			}
			return printPage(cmd.OutOrStdout(), p, page)
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "номер страницы, с 1")
	cmd.Flags().IntVar(&pageSize, "page-size", listing.DefaultLimit, "размер страницы")
	cmd.Flags().StringVarP(&search, "search", "q", "", "поиск по названию и описанию")
	return cmd
}

func (r *RootCommand) boardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Вся доска по колонкам",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.context()
			defer cancel()

			tasks, err := r.client().FetchAll(ctx)
			if err != nil {
				return fmt.Errorf("получение доски: %w", err)
			}
			return printBoard(cmd.OutOrStdout(), tasks)
		},
	}
}

func (r *RootCommand) createCommand() *cobra.Command {
	var req dto.CreateTaskRequest
	var column string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Создать задачу",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.context()
			defer cancel()

			req.Title = args[0]
			req.Column = task.Column(column)
			created, err := r.client().Create(ctx, req)
			if err != nil {
				return fmt.Errorf("создание задачи: %w", err)
			}
			return printTask(cmd.OutOrStdout(), created)
		},
	}

	cmd.Flags().StringVarP(&req.Description, "description", "d", "", "описание")
	cmd.Flags().StringVarP(&column, "column", "c", string(task.ColumnBacklog), "колонка")
	cmd.Flags().IntVarP(&req.Order, "order", "o", 0, "порядок в колонке")
	return cmd
}

func (r *RootCommand) updateCommand() *cobra.Command {
	var (
		title       string
		description string
		column      string
		order       int
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Изменить поля задачи",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req dto.UpdateTaskRequest
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("description") {
				req.Description = &description
			}
			if flags.Changed("column") {
				c := task.Column(column)
				req.Column = &c
			}
			if flags.Changed("order") {
				req.Order = &order
			}
			if req.Empty() {
				return errors.New("не передано ни одного поля для обновления")
			}

			ctx, cancel := r.context()
			defer cancel()

			updated, err := r.client().Update(ctx, args[0], req)
			if err != nil {
				return fmt.Errorf("обновление задачи: %w", err)
			}
			return printTask(cmd.OutOrStdout(), updated)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "новое название")
	cmd.Flags().StringVarP(&description, "description", "d", "", "новое описание")
	cmd.Flags().StringVarP(&column, "column", "c", "", "новая колонка")
	cmd.Flags().IntVarP(&order, "order", "o", 0, "новый порядок")
	return cmd
}

func (r *RootCommand) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Удалить задачу",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.context()
			defer cancel()

			if err := r.client().Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("удаление задачи: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Задача %s удалена\n", args[0])
			return nil
		},
	}
}

func (r *RootCommand) moveCommand() *cobra.Command {
	var (
		to         string
		index      int
		serverSide bool
	)

	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Перетащить задачу в колонку на позицию",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.context()
			defer cancel()

			c := r.client()
			snapshot, err := c.FetchAll(ctx)
			if err != nil {
				return fmt.Errorf("получение доски: %w", err)
			}

			m, err := locate(snapshot, args[0])
			if err != nil {
				return err
			}
			m.DestColumn = m.SourceColumn
			if to != "" {
				m.DestColumn = task.Column(to)
			}
			m.DestIndex = index

			var affected []task.Column
			if serverSide {
				resp, err := c.MoveOnServer(ctx, m)
				if err != nil {
					return fmt.Errorf("перемещение задачи: %w", err)
				}
				affected = resp.AffectedColumns
			} else {
				outcome, err := c.Move(ctx, m)
				if err != nil {
					return fmt.Errorf("перемещение задачи: %w", err)
				}
				affected = outcome.Affected
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Задача %s перемещена, обновлены колонки: %v\n", args[0], affected)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "колонка назначения (по умолчанию текущая)")
	cmd.Flags().IntVarP(&index, "index", "i", 0, "позиция в колонке назначения, с 0")
	cmd.Flags().BoolVar(&serverSide, "server-side", false, "считать перестановку на сервере")
	return cmd
}

// locate находит колонку и позицию задачи в отсортированном снимке доски.
func locate(snapshot []*task.Task, id string) (reorder.Move, error) {
	idx := slices.IndexFunc(snapshot, func(t *task.Task) bool { return t.ID == id })
	if idx < 0 {
		return reorder.Move{}, fmt.Errorf("задача %s не найдена", id)
	}

	column := snapshot[idx].Column
	inColumn := task.FilterColumn(snapshot, column)
	pos := slices.IndexFunc(inColumn, func(t *task.Task) bool { return t.ID == id })

	return reorder.Move{
		TaskID:       id,
		SourceColumn: column,
		SourceIndex:  pos,
	}, nil
}

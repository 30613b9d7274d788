package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"kanbanBoard/internal/client"
)

const defaultServer = "http://localhost:4000"

// RootCommand - корневая команда kanbanctl.
type RootCommand struct {
	cmd     *cobra.Command
	server  string
	timeout time.Duration
}

func NewRootCommand() *RootCommand {
	root := &RootCommand{}

	root.cmd = &cobra.Command{
		Use:   "kanbanctl",
		Short: "Консольный клиент канбан-доски",
		Long: `kanbanctl работает с сервером доски по REST.

ПРИМЕРЫ:
  kanbanctl columns                          # колонки доски
  kanbanctl list backlog --page 2            # вторая страница backlog
  kanbanctl board                            # вся доска по колонкам
  kanbanctl create "Починить логин" -c review
  kanbanctl move <id> --to done --index 0    # перетащить задачу

АДРЕС СЕРВЕРА:
  --server или KANBAN_SERVER_URL (по умолчанию http://localhost:4000)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("KANBAN_SERVER_URL")
	if server == "" {
		server = defaultServer
	}

	flags := root.cmd.PersistentFlags()
	flags.StringVarP(&root.server, "server", "s", server, "адрес сервера доски")
	flags.DurationVar(&root.timeout, "timeout", 30*time.Second, "таймаут команды")

	root.addSubcommands()
	return root
}

func (r *RootCommand) Execute() error {
	return r.cmd.Execute()
}

// Command нужен тестам, чтобы подменить аргументы и вывод.
func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

func (r *RootCommand) client() *client.Client {
	return client.New(r.server)
}

func (r *RootCommand) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *RootCommand) addSubcommands() {
	r.cmd.AddCommand(
		r.columnsCommand(),
		r.listCommand(),
		r.boardCommand(),
		r.createCommand(),
		r.updateCommand(),
		r.deleteCommand(),
		r.moveCommand(),
	)
}

func (r *RootCommand) columnsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "Показать колонки доски",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.context()
			defer cancel()

			columns, err := r.client().Columns(ctx)
			if err != nil {
				return fmt.Errorf("получение колонок: %w", err)
			}
			return printColumns(cmd.OutOrStdout(), columns)
		},
	}
}

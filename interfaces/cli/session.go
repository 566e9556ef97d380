package cli

import (
	"fmt"
	"io"
	"strings"

	"taxonomy/application/commands"
	"taxonomy/application/queries"
	querybus "taxonomy/application/queries/bus"
	"taxonomy/application/services"
	"taxonomy/domain/core/aggregates"
	"taxonomy/domain/core/entities"

	"github.com/spf13/cobra"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Create and inspect sessions",
	}
	cmd.AddCommand(newSessionInitCmd(app))
	cmd.AddCommand(newSessionShowCmd(app))
	cmd.AddCommand(newSessionReloadCmd(app))
	return cmd
}

func newSessionInitCmd(app *App) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Start a new session and print its summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container, err := app.ensureContainer(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}

			result, err := container.CommandBus.Send(ctx, commands.CreateSessionCommand{Mode: mode})
			if err != nil {
				return writeErr(cmd, err)
			}
			session, ok := result.Data.(*services.Session)
			if !ok {
				return writeErr(cmd, fmt.Errorf("unexpected create result %T", result.Data))
			}

			view, err := container.QueryBus.Ask(ctx, queries.GetSessionQuery{SessionID: session.ID()})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, view)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(services.ModeRemote), "Session mode (remote|memory)")
	return cmd
}

func newSessionShowCmd(app *App) *cobra.Command {
	var withItems bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the session tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container, session, err := app.attach(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}

			view, err := querybus.AskFor[*queries.SessionView](ctx, container.QueryBus,
				queries.GetSessionQuery{SessionID: session.ID()})
			if err != nil {
				return writeErr(cmd, err)
			}
			if asJSON {
				return writeOut(cmd, app, view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session %s (%s) version %d, %d nodes, %d items\n",
				view.ID, view.Mode, view.Version, view.NodeCount, view.ItemCount)
			printTree(out, session.Current(), withItems)
			for _, warning := range view.Warnings {
				fmt.Fprintf(out, "warning: %s\n", warning)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withItems, "items", false, "List the items under each node")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the session summary as JSON")
	return cmd
}

func newSessionReloadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Replace the session tree with the stored one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container, session, err := app.attach(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}

			before := session.Current()
			result, err := container.CommandBus.Send(ctx, commands.ReloadSessionCommand{SessionID: session.ID()})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeMutation(cmd, app, before, result, nil)
		},
	}
}

func printTree(w io.Writer, tree *aggregates.Tree, withItems bool) {
	strategy := tree.KeyStrategy()
	tree.Walk(func(node, _ *entities.TreeNode, depth int) {
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(w, "%s%s [%s] (%d items)\n", indent, node.Value().Name, node.Key(strategy), node.ItemCount())
		if !withItems {
			return
		}
		for _, item := range node.Items() {
			fmt.Fprintf(w, "%s  - %s\n", indent, item.Label())
		}
	})
}

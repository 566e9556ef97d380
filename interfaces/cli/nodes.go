package cli

import (
	"fmt"
	"io"

	"taxonomy/application/commands"
	"taxonomy/application/commands/bus"
	cmdhandlers "taxonomy/application/commands/handlers"
	"taxonomy/application/queries"
	querybus "taxonomy/application/queries/bus"
	"taxonomy/application/services"
	"taxonomy/domain/core/aggregates"
	"taxonomy/domain/core/entities"
	"taxonomy/domain/versioning"
	pkgerrors "taxonomy/pkg/errors"

	"github.com/spf13/cobra"
)

// mutationOutput is what every tree-changing command prints
type mutationOutput struct {
	Version  int      `json:"version"`
	Nodes    int      `json:"nodes"`
	Items    int      `json:"items"`
	Updated  *bool    `json:"updated,omitempty"`
	Partial  bool     `json:"partial,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	Changes []versioning.Change `json:"changes,omitempty"`
}

func summarize(tree *aggregates.Tree, warnings []string) mutationOutput {
	return mutationOutput{
		Version:  tree.Version(),
		Nodes:    tree.Size(),
		Items:    tree.ItemCount(),
		Warnings: warnings,
	}
}

// writeMutation prints the committed tree of a command result and the nodes
// that differ from before. When sendErr is set the change stands locally and
// the error is still returned.
func writeMutation(cmd *cobra.Command, app *App, before *aggregates.Tree, result *bus.CommandResult, sendErr error) error {
	if result == nil || result.Data == nil {
		if sendErr != nil {
			return writeErr(cmd, sendErr)
		}
		return nil
	}

	var out mutationOutput
	var after *aggregates.Tree
	switch data := result.Data.(type) {
	case *services.MutationResult:
		after = data.Tree
		out = summarize(after, data.Warnings)
	case *cmdhandlers.MoveResult:
		after = data.Tree
		out = summarize(after, nil)
		updated := data.Updated
		out.Updated = &updated
	default:
		return writeErr(cmd, fmt.Errorf("unexpected command result %T", result.Data))
	}
	out.Partial = sendErr != nil
	if before != nil {
		diff, err := versioning.Diff(before, after)
		if err != nil {
			return writeErr(cmd, err)
		}
		out.Changes = diff.Changes
	}

	if err := writeOut(cmd, app, out); err != nil {
		return err
	}
	if sendErr != nil {
		return writeErr(cmd, sendErr)
	}
	return nil
}

// sendTreeCommand attaches the session, lets build fill in its id and
// dispatches the command
func sendTreeCommand(cmd *cobra.Command, app *App, build func(sessionID string) bus.Command) error {
	ctx := cmd.Context()
	container, session, err := app.attach(ctx)
	if err != nil {
		return writeErr(cmd, err)
	}

	before := session.Current()
	result, err := container.CommandBus.Send(ctx, build(session.ID()))
	return writeMutation(cmd, app, before, result, err)
}

func newGraphCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the node/edge projection of the session tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container, session, err := app.attach(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}

			view, err := container.QueryBus.Ask(ctx, queries.GetGraphQuery{SessionID: session.ID(), APIKey: app.APIKey})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, view)
		},
	}
}

func newGenerateCmd(app *App) *cobra.Command {
	var num int
	var method string

	cmd := &cobra.Command{
		Use:   "generate <node-key>",
		Short: "Ask the classifier for subcategories of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendTreeCommand(cmd, app, func(sessionID string) bus.Command {
				return commands.GenerateChildrenCommand{
					SessionID:        sessionID,
					NodeKey:          args[0],
					NumCategories:    num,
					GenerationMethod: method,
					APIKey:           app.APIKey,
				}
			})
		},
	}

	cmd.Flags().IntVar(&num, "num", 0, "Number of categories to request (0 lets the classifier decide)")
	cmd.Flags().StringVar(&method, "method", "", "Generation method passed through to the classifier")
	return cmd
}

func newClassifyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <node-key>",
		Short: "Push a node's items down into its children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendTreeCommand(cmd, app, func(sessionID string) bus.Command {
				return commands.ClassifyItemsCommand{SessionID: sessionID, NodeKey: args[0], APIKey: app.APIKey}
			})
		},
	}
}

func newEditCmd(app *App) *cobra.Command {
	var name, description, items string

	cmd := &cobra.Command{
		Use:   "edit <node-key>",
		Short: "Change a node's category or items",
		Long:  "Flags that are not given keep the node's current value. --items takes a JSON array, or - to read it from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container, session, err := app.attach(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}

			node, err := querybus.AskFor[*queries.NodeView](ctx, container.QueryBus,
				queries.GetNodeQuery{SessionID: session.ID(), NodeKey: args[0]})
			if err != nil {
				return writeErr(cmd, err)
			}

			category := node.Category
			if cmd.Flags().Changed("name") {
				category.Name = name
			}
			if cmd.Flags().Changed("description") {
				category.Description = description
			}
			nodeItems := node.Items
			if cmd.Flags().Changed("items") {
				nodeItems, err = readItems(cmd.InOrStdin(), items)
				if err != nil {
					return writeErr(cmd, err)
				}
			}

			before := session.Current()
			result, err := container.CommandBus.Send(ctx, commands.EditNodeCommand{
				SessionID: session.ID(),
				NodeKey:   args[0],
				Category:  category,
				Items:     nodeItems,
			})
			return writeMutation(cmd, app, before, result, err)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New category name")
	cmd.Flags().StringVar(&description, "description", "", "New category description")
	cmd.Flags().StringVar(&items, "items", "", "Replacement items as a JSON array")
	return cmd
}

func readItems(stdin io.Reader, arg string) ([]entities.Item, error) {
	data := []byte(arg)
	if arg == "-" {
		var err error
		if data, err = io.ReadAll(stdin); err != nil {
			return nil, fmt.Errorf("read items: %w", err)
		}
	}
	items, err := entities.ParseItems(data)
	if err != nil {
		return nil, pkgerrors.NewInvalidItems(err.Error())
	}
	return items, nil
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <node-key>",
		Short: "Remove a node and its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendTreeCommand(cmd, app, func(sessionID string) bus.Command {
				return commands.DeleteNodeCommand{SessionID: sessionID, NodeKey: args[0]}
			})
		},
	}
}

func newMoveCmd(app *App) *cobra.Command {
	var x, y float64

	cmd := &cobra.Command{
		Use:   "move <node-key>",
		Short: "Set a node's layout position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendTreeCommand(cmd, app, func(sessionID string) bus.Command {
				return commands.MoveNodeCommand{SessionID: sessionID, NodeKey: args[0], X: x, Y: y}
			})
		},
	}

	cmd.Flags().Float64Var(&x, "x", 0, "X coordinate")
	cmd.Flags().Float64Var(&y, "y", 0, "Y coordinate")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arcsuite/arcflow/pkg/client"
	"github.com/arcsuite/arcflow/pkg/editor"
	"github.com/arcsuite/arcflow/pkg/log"
	"github.com/arcsuite/arcflow/pkg/models"
	cli "github.com/urfave/cli/v3"
)

const defaultAPIURL = "http://localhost:9091"

var ErrMissingArgument = errors.New("missing argument")

func newApp(clientOpts ...client.Option) *cli.Command {
	return &cli.Command{
		Name:                  "arcflow",
		Usage:                 "Edit automation workflows stored by the Arcflow API",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Base URL of the Arcflow API",
				Value:   defaultAPIURL,
				Sources: cli.EnvVars("ARCFLOW_API_URL"),
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Request timeout",
				Value:   client.DefaultTimeout,
				Sources: cli.EnvVars("ARCFLOW_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"), log.FormatTint)

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "palette",
				Usage: "List the node templates",
				Flags: []cli.Flag{outputFlag()},
				Action: func(ctx context.Context, command *cli.Command) error {
					templates, err := newClient(command, clientOpts).Palette(ctx)
					if err != nil {
						return err
					}

					return withPrinter(command, func(p *printer) error { return p.palette(templates) })
				},
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List workflows, newest first",
				Flags:   []cli.Flag{outputFlag()},
				Action: func(ctx context.Context, command *cli.Command) error {
					session := newSession(command, clientOpts)

					return withPrinter(command, func(p *printer) error { return p.workflows(session.editor.Workflows(ctx)) })
				},
			},
			{
				Name:  "create",
				Usage: "Create an empty draft workflow",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Workflow name", Required: true},
					&cli.StringFlag{Name: "description", Usage: "Workflow description"},
					outputFlag(),
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					session := newSession(command, clientOpts)

					wf, err := session.editor.CreateWorkflow(ctx, command.String("name"), command.String("description"))
					if err != nil {
						return err
					}

					return withPrinter(command, func(p *printer) error { return p.workflow(wf) })
				},
			},
			{
				Name:      "show",
				Usage:     "Show a workflow and its nodes",
				ArgsUsage: "<workflow-id>",
				Flags:     []cli.Flag{outputFlag()},
				Action: func(ctx context.Context, command *cli.Command) error {
					session := newSession(command, clientOpts)
					if err := session.open(ctx, command.Args().Get(0)); err != nil {
						return err
					}

					wf, _ := session.editor.Active()

					return withPrinter(command, func(p *printer) error { return p.workflow(wf) })
				},
			},
			{
				Name:      "add-node",
				Usage:     "Drop a palette template onto the canvas and save",
				ArgsUsage: "<workflow-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "subtype", Usage: "Node subtype, e.g. send_email", Required: true},
					&cli.FloatFlag{Name: "x", Usage: "Canvas x coordinate"},
					&cli.FloatFlag{Name: "y", Usage: "Canvas y coordinate"},
					outputFlag(),
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					session := newSession(command, clientOpts)
					if err := session.open(ctx, command.Args().Get(0)); err != nil {
						return err
					}

					node, err := session.editor.AddNode(
						models.Subtype(command.String("subtype")),
						models.Position{X: command.Float("x"), Y: command.Float("y")},
					)
					if err != nil {
						return err
					}

					if err := session.editor.Save(ctx); err != nil {
						return err
					}

					return withPrinter(command, func(p *printer) error { return p.node(node) })
				},
			},
			{
				Name:      "move-node",
				Usage:     "Move a node and save",
				ArgsUsage: "<workflow-id> <node-id>",
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "x", Usage: "Canvas x coordinate"},
					&cli.FloatFlag{Name: "y", Usage: "Canvas y coordinate"},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					return editNode(ctx, command, clientOpts, func(e *editor.Editor, nodeID string) error {
						return e.MoveNode(nodeID, models.Position{X: command.Float("x"), Y: command.Float("y")})
					})
				},
			},
			{
				Name:      "delete-node",
				Usage:     "Remove a node and save",
				ArgsUsage: "<workflow-id> <node-id>",
				Action: func(ctx context.Context, command *cli.Command) error {
					return editNode(ctx, command, clientOpts, func(e *editor.Editor, nodeID string) error {
						return e.DeleteNode(nodeID)
					})
				},
			},
			{
				Name:      "inspect",
				Usage:     "Show the inspector form of a node",
				ArgsUsage: "<workflow-id> <node-id>",
				Flags:     []cli.Flag{outputFlag()},
				Action: func(ctx context.Context, command *cli.Command) error {
					session := newSession(command, clientOpts)
					if err := session.open(ctx, command.Args().Get(0)); err != nil {
						return err
					}

					nodeID := command.Args().Get(1)
					if nodeID == "" {
						return fmt.Errorf("%w: node id", ErrMissingArgument)
					}

					if err := session.editor.Select(nodeID); err != nil {
						return err
					}

					form, err := session.editor.Inspector()
					if err != nil {
						return err
					}

					defer session.editor.Apply(form)

					return withPrinter(command, func(p *printer) error { return p.form(form) })
				},
			},
			{
				Name:      "activate",
				Usage:     "Activate a draft workflow",
				ArgsUsage: "<workflow-id>",
				Action: func(ctx context.Context, command *cli.Command) error {
					session := newSession(command, clientOpts)
					if err := session.open(ctx, command.Args().Get(0)); err != nil {
						return err
					}

					if err := session.editor.Activate(ctx); err != nil {
						return err
					}

					fmt.Fprintf(command.Root().Writer, "workflow %s activated\n", command.Args().Get(0))

					return nil
				},
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a workflow",
				ArgsUsage: "<workflow-id>",
				Action: func(ctx context.Context, command *cli.Command) error {
					id := command.Args().Get(0)
					if id == "" {
						return fmt.Errorf("%w: workflow id", ErrMissingArgument)
					}

					if err := newClient(command, clientOpts).DeleteWorkflow(ctx, id); err != nil {
						return err
					}

					fmt.Fprintf(command.Root().Writer, "workflow %s deleted\n", id)

					return nil
				},
			},
		},
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output format (table, json, yaml)",
		Value:   outputTable,
	}
}

func newClient(command *cli.Command, opts []client.Option) *client.Client {
	all := append([]client.Option{
		client.WithTimeout(command.Duration("timeout")),
		client.WithLogger(slog.Default()),
	}, opts...)

	return client.New(command.String("api-url"), all...)
}

func withPrinter(command *cli.Command, fn func(p *printer) error) error {
	format := command.String("output")
	if format == "" {
		format = outputTable
	}

	p, err := newPrinter(command.Root().Writer, format)
	if err != nil {
		return err
	}

	return fn(p)
}

// session is an editor bound to the API client for the duration of one command.
type session struct {
	client *client.Client
	editor *editor.Editor
}

func newSession(command *cli.Command, opts []client.Option) *session {
	c := newClient(command, opts)
	logger := slog.Default()

	notifier := editor.NotifierFunc(func(ctx context.Context, notice editor.Notice) {
		logger.DebugContext(ctx, "editor notice", "notice", notice)
	})

	return &session{
		client: c,
		editor: editor.New(c, notifier, editor.WithLogger(logger)),
	}
}

func (s *session) open(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: workflow id", ErrMissingArgument)
	}

	wf, err := s.client.GetWorkflow(ctx, id)
	if err != nil {
		return err
	}

	s.editor.Open(wf)

	return nil
}

func editNode(
	ctx context.Context,
	command *cli.Command,
	opts []client.Option,
	edit func(e *editor.Editor, nodeID string) error,
) error {
	session := newSession(command, opts)
	if err := session.open(ctx, command.Args().Get(0)); err != nil {
		return err
	}

	nodeID := command.Args().Get(1)
	if nodeID == "" {
		return fmt.Errorf("%w: node id", ErrMissingArgument)
	}

	if err := edit(session.editor, nodeID); err != nil {
		return err
	}

	if err := session.editor.Save(ctx); err != nil {
		return err
	}

	fmt.Fprintf(command.Root().Writer, "workflow %s saved with %d nodes\n", command.Args().Get(0), session.editor.Store().Len())

	return nil
}

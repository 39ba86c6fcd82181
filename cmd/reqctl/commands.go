package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/intelliment/puppet-integration/internal/domain"
	"github.com/intelliment/puppet-integration/internal/inventory"
	"github.com/intelliment/puppet-integration/internal/session"
)

const (
	flagInventoryURL = "inventory-url"
	flagEndpointURL  = "endpoint-url"
	flagFileShim     = "file-shim"
	flagTimeout      = "timeout"
	flagOutput       = "output"
	flagVerbose      = "verbose"
	flagScenario     = "scenario"
	flagID           = "id"
	flagAll          = "all"
)

type options struct {
	inventoryURL string
	endpointURL  string
	fileShim     string
	timeout      time.Duration
	output       string
	verbose      bool

	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger
	inv    inventory.Service
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	o := &options{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:           "reqctl",
		Short:         "Inspect and change the requirements of an endpoint.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || (cmd.HasParent() && cmd.Parent().Name() == "completion") {
				return nil
			}
			return o.complete()
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.inventoryURL, flagInventoryURL, os.Getenv("INVENTORY_URL"), "base URL of the inventory service")
	flags.StringVar(&o.endpointURL, flagEndpointURL, os.Getenv("INVENTORY_ENDPOINT_URL"), "endpoint whose requirements are managed")
	flags.StringVar(&o.fileShim, flagFileShim, os.Getenv("INVENTORY_FILE_SHIM"), "read and write a local JSON file instead of calling the inventory service")
	flags.DurationVar(&o.timeout, flagTimeout, 30*time.Second, "timeout of each inventory call")
	flags.StringVarP(&o.output, flagOutput, "o", outputTable, "output format: table, json or yaml")
	flags.BoolVarP(&o.verbose, flagVerbose, "v", false, "log inventory calls to stderr")

	cmd.AddCommand(
		newScenariosCommand(o),
		newRequirementsCommand(o),
		newChangeCommand(o, "apply", "Apply new requirements to the endpoint.", session.ListNew),
		newChangeCommand(o, "remove", "Remove existing requirements from the endpoint.", session.ListExisting),
	)
	return cmd
}

func (o *options) complete() error {
	if !validOutput(o.output) {
		return fmt.Errorf("unknown output format %q", o.output)
	}
	if o.endpointURL == "" {
		return fmt.Errorf("--%s is required", flagEndpointURL)
	}

	o.logger = zap.NewNop()
	if o.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		o.logger = logger
	}

	if o.inv != nil {
		return nil
	}
	if o.fileShim != "" {
		o.inv = inventory.NewFileShim(o.fileShim, o.logger)
		return nil
	}
	if o.inventoryURL == "" {
		return fmt.Errorf("one of --%s or --%s is required", flagInventoryURL, flagFileShim)
	}
	client, err := inventory.New(o.inventoryURL, &http.Client{Timeout: o.timeout}, o.logger)
	if err != nil {
		return err
	}
	o.inv = client
	return nil
}

// newSession builds an initialized session whose notifications go to stderr.
func (o *options) newSession(cmd *cobra.Command) (*session.Session, error) {
	sess, err := session.New(session.Config{
		Inventory:   o.inv,
		EndpointURL: o.endpointURL,
		Notifier:    session.WriterNotifier{W: o.stderr},
		Operator:    os.Getenv("USER"),
		Logger:      o.logger,
	})
	if err != nil {
		return nil, err
	}
	if err := sess.Initialize(cmd.Context()); err != nil {
		return nil, err
	}
	return sess, nil
}

// openScenario builds a session and loads the requirements of a scenario.
func (o *options) openScenario(cmd *cobra.Command, scenario string) (*session.Session, error) {
	sess, err := o.newSession(cmd)
	if err != nil {
		return nil, err
	}
	if err := sess.SelectScenario(resolveScenario(sess.Snapshot().Scenarios, scenario)); err != nil {
		return nil, err
	}
	if err := sess.FetchRequirements(cmd.Context()); err != nil {
		return nil, err
	}
	return sess, nil
}

func newScenariosCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the scenario catalog.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := o.newSession(cmd)
			if err != nil {
				return err
			}
			return writeScenarios(o.stdout, o.output, sess.Snapshot().Scenarios)
		},
	}
}

func newRequirementsCommand(o *options) *cobra.Command {
	var scenario string
	cmd := &cobra.Command{
		Use:   "requirements",
		Short: "Show the existing and new requirements of a scenario.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := o.openScenario(cmd, scenario)
			if err != nil {
				return err
			}
			return writeRequirements(o.stdout, o.output, sess.Snapshot().RequirementSet())
		},
	}
	cmd.Flags().StringVar(&scenario, flagScenario, "", "scenario id")
	_ = cmd.MarkFlagRequired(flagScenario)
	return cmd
}

// newChangeCommand builds apply or remove. Both select items of one list by
// id, or all of them, and print the resulting requirement set.
func newChangeCommand(o *options, use, short string, list session.List) *cobra.Command {
	var (
		scenario string
		ids      []string
		all      bool
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		Example: fmt.Sprintf(`  reqctl %[1]s --scenario 1 --id 20 --id 21
  reqctl %[1]s --scenario 1 --all`, use),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if all == (len(ids) > 0) {
				return errors.New("exactly one of --id or --all is required")
			}
			sess, err := o.openScenario(cmd, scenario)
			if err != nil {
				return err
			}

			if all {
				if err = sess.SetSelectAll(list, true); err == nil {
					err = sess.ToggleSelectAll(list)
				}
			} else {
				var n int
				n, err = sess.SetSelection(list, resolveIDs(sess.Snapshot().Requirements(list), ids))
				if err == nil && n < len(ids) {
					fmt.Fprintf(o.stderr, "%d of %d ids are not %s requirements\n", len(ids)-n, len(ids), list)
				}
			}
			if err != nil {
				return err
			}

			if list == session.ListNew {
				err = sess.ApplyRequirements(cmd.Context())
			} else {
				err = sess.RemoveRequirements(cmd.Context())
			}
			if err != nil {
				return err
			}
			return writeRequirements(o.stdout, o.output, sess.Snapshot().RequirementSet())
		},
	}
	cmd.Flags().StringVar(&scenario, flagScenario, "", "scenario id")
	cmd.Flags().StringSliceVar(&ids, flagID, nil, "requirement id, repeatable")
	cmd.Flags().BoolVar(&all, flagAll, false, "select every requirement of the list")
	_ = cmd.MarkFlagRequired(flagScenario)
	return cmd
}

// resolveScenario maps operator input to a catalog id. Input may be the id
// as displayed or its JSON token.
func resolveScenario(scenarios []domain.Scenario, text string) domain.Identifier {
	for _, s := range scenarios {
		if s.ID.Matches(text) {
			return s.ID
		}
	}
	return domain.ParseIdentifier(text)
}

// resolveIDs maps operator input to requirement ids of a list. Input that
// names no requirement is kept as parsed and matches nothing.
func resolveIDs(reqs []domain.Requirement, texts []string) []domain.Identifier {
	out := make([]domain.Identifier, 0, len(texts))
	for _, text := range texts {
		id := domain.ParseIdentifier(text)
		for _, r := range reqs {
			if r.ID.Matches(text) {
				id = r.ID
				break
			}
		}
		out = append(out, id)
	}
	return out
}

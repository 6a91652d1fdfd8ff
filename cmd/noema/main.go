// Command noema runs the reasoning and constraint-compilation pipeline over
// ontology and constraint documents (JSON or YAML) and prints result JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/noema/pkg/noema"
	"github.com/cognicore/noema/pkg/noema/config"
	"github.com/cognicore/noema/pkg/noema/ontology"
)

var (
	configPath      string
	constraintsPath string
	debug           bool
)

func main() {
	root := &cobra.Command{
		Use:           "noema",
		Short:         "Ontology reasoning and constraint compilation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVarP(&constraintsPath, "constraints", "c", "", "path to constraint document")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(reasonCmd(), validateCmd(), compileCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "noema:", err)
		os.Exit(1)
	}
}

func newInstance() (*noema.Noema, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	}

	var logger *zap.Logger
	if debug {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
	}
	return noema.New(noema.Options{Config: cfg, Logger: logger}), nil
}

func loadConstraints(required bool) (*ontology.Constraints, error) {
	if constraintsPath == "" {
		if required {
			return nil, fmt.Errorf("--constraints is required")
		}
		return &ontology.Constraints{}, nil
	}
	return ontology.LoadConstraints(constraintsPath)
}

func reasonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reason <ontology-file>",
		Short: "Run eightfold reasoning cycles over an ontology",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := newInstance()
			if err != nil {
				return err
			}
			ont, err := ontology.LoadOntology(args[0])
			if err != nil {
				return err
			}
			cons, err := loadConstraints(false)
			if err != nil {
				return err
			}
			result, err := n.Reason(context.Background(), ont, cons)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <ontology-file>",
		Short: "Validate an ontology against a constraint document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := newInstance()
			if err != nil {
				return err
			}
			ont, err := ontology.LoadOntology(args[0])
			if err != nil {
				return err
			}
			cons, err := loadConstraints(true)
			if err != nil {
				return err
			}
			report, err := n.Validate(context.Background(), ont, cons)
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
}

func compileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile",
		Short: "Compile a constraint document into native validation code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := newInstance()
			if err != nil {
				return err
			}
			cons, err := loadConstraints(true)
			if err != nil {
				return err
			}
			source, _, err := n.CompileConstraints(cons)
			if err != nil {
				return err
			}
			fmt.Println(source)
			return nil
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

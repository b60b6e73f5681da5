package cmd

import (
	"fmt"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func run(name string, fn func() error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(); err != nil {
			return fmt.Errorf("%s failed: %w", name, err)
		}
		return nil
	}
}

func TestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run unit tests",
		RunE:  run("tests", func() error { return test.Test() }),
	}
}

func LintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Run linters",
		RunE:  run("linting", func() error { return test.Lint() }),
	}
}

// IntegrationTestCmd runs tests that need a sensor attached to the host bus.
func IntegrationTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "integration-test",
		Short: "Run integration tests against real hardware",
		RunE:  run("integration tests", func() error { return test.Integ() }),
	}
}

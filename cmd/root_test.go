package cmd

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestCommandTree(t *testing.T) {
	wantCommands := map[string][]string{
		"audit":     {"list-entries", "list-logs"},
		"warehouse": {"list-datasets", "list-tables"},
	}

	for name, subs := range wantCommands {
		parent := findCommand(t, name)
		for _, sub := range subs {
			found := false
			for _, c := range parent.Commands() {
				if c.Name() == sub {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("command %q is missing subcommand %q", name, sub)
			}
		}
	}
}

func TestRootPersistentFlags(t *testing.T) {
	for _, flag := range []string{"log", "json-logs", "client-id", "client-secret", "token-url", "insecure"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag %q", flag)
		}
	}
}

func findCommand(t *testing.T, name string) *cobra.Command {
	t.Helper()

	for _, c := range rootCmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	t.Fatalf("command %q not registered", name)
	return nil
}

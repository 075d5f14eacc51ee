package cmd

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meridianhq/meridian-go/auditlog"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Interact with the Meridian audit-log service",
}

var auditListEntriesCmd = &cobra.Command{
	Use:   "list-entries",
	Short: "List audit log entries in a project",
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			log.WithError(err).Fatal("could not bind `audit list-entries` flags")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool := newPool(ctx, auditlog.DefaultScopes())
		defer shutdownPool(pool)

		client, err := auditlog.NewClient(ctx, pool)
		if err != nil {
			return err
		}

		it := client.ListEntries(&auditlog.ListEntriesRequest{
			Parent:   auditlog.ProjectPath(viper.GetString("project")),
			Filter:   viper.GetString("filter"),
			PageSize: viper.GetInt32("page-size"),
		})

		maxEntries := viper.GetInt("max-entries")
		printed := 0
		for entry, err := range it.All(ctx) {
			if err != nil {
				return err
			}

			line, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(line))

			printed++
			if maxEntries > 0 && printed >= maxEntries {
				break
			}
		}

		return nil
	},
}

var auditListLogsCmd = &cobra.Command{
	Use:   "list-logs",
	Short: "List the logs in a project",
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			log.WithError(err).Fatal("could not bind `audit list-logs` flags")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool := newPool(ctx, auditlog.DefaultScopes())
		defer shutdownPool(pool)

		client, err := auditlog.NewClient(ctx, pool)
		if err != nil {
			return err
		}

		it := client.ListLogs(&auditlog.ListLogsRequest{
			Parent: auditlog.ProjectPath(viper.GetString("project")),
		})
		for name, err := range it.All(ctx) {
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}

		return nil
	},
}

func init() {
	auditListEntriesCmd.Flags().String("project", "", "The project to list entries from")
	auditListEntriesCmd.Flags().String("filter", "", "Optional server-side filter expression")
	auditListEntriesCmd.Flags().Int32("page-size", 0, "Entries per page. 0 lets the server choose")
	auditListEntriesCmd.Flags().Int("max-entries", 0, "Stop after this many entries. 0 means no limit")

	auditListLogsCmd.Flags().String("project", "", "The project to list logs from")

	auditCmd.AddCommand(auditListEntriesCmd)
	auditCmd.AddCommand(auditListLogsCmd)
	rootCmd.AddCommand(auditCmd)
}

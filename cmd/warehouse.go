package cmd

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meridianhq/meridian-go/warehouse"
)

var warehouseCmd = &cobra.Command{
	Use:   "warehouse",
	Short: "Interact with the Meridian warehouse service",
}

var warehouseListDatasetsCmd = &cobra.Command{
	Use:   "list-datasets",
	Short: "List the datasets in a project",
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			log.WithError(err).Fatal("could not bind `warehouse list-datasets` flags")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool := newPool(ctx, warehouse.DefaultScopes())
		defer shutdownPool(pool)

		client, err := warehouse.NewClient(ctx, pool)
		if err != nil {
			return err
		}

		it := client.ListDatasets(&warehouse.ListDatasetsRequest{
			Parent:   warehouse.ProjectPath(viper.GetString("project")),
			PageSize: viper.GetInt32("page-size"),
		})
		for dataset, err := range it.All(ctx) {
			if err != nil {
				return err
			}

			line, err := json.Marshal(dataset)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(line))
		}

		return nil
	},
}

var warehouseListTablesCmd = &cobra.Command{
	Use:   "list-tables",
	Short: "List every table in every dataset of a project",
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			log.WithError(err).Fatal("could not bind `warehouse list-tables` flags")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool := newPool(ctx, warehouse.DefaultScopes())
		defer shutdownPool(pool)

		client, err := warehouse.NewClient(ctx, pool)
		if err != nil {
			return err
		}

		byDataset, err := client.ListAllTables(ctx, viper.GetString("project"), viper.GetInt("parallel"))
		if err != nil {
			return err
		}

		for dataset, tables := range byDataset {
			for _, table := range tables {
				fmt.Fprintf(cmd.OutOrStdout(), "%v\t%v\n", dataset, table.Name)
			}
		}

		return nil
	},
}

func init() {
	warehouseListDatasetsCmd.Flags().String("project", "", "The project to list datasets from")
	warehouseListDatasetsCmd.Flags().Int32("page-size", 0, "Datasets per page. 0 lets the server choose")

	warehouseListTablesCmd.Flags().String("project", "", "The project to list tables from")
	warehouseListTablesCmd.Flags().Int("parallel", warehouse.DefaultListParallelism, "Max concurrent dataset listings")

	warehouseCmd.AddCommand(warehouseListDatasetsCmd)
	warehouseCmd.AddCommand(warehouseListTablesCmd)
	rootCmd.AddCommand(warehouseCmd)
}

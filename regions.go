package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"droneanalytics/packages/mongodb"
	"droneanalytics/packages/parsing/geoIndex"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Manage region boundaries",
}

var regionsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load GeoJSON boundaries from regions.dir into MongoDB",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := geoIndex.LoadDir(cfg.Regions.Dir, log)
		if err != nil {
			return err
		}

		client, err := mongodb.Connect(cmd.Context(), cfg.Mongo, log)
		if err != nil {
			return err
		}
		defer client.Disconnect(cmd.Context())

		collection := mongodb.GetCollection(client, cfg.Mongo.Database, cfg.Mongo.RegionsCollection)
		if err := geoIndex.Sync(cmd.Context(), collection, set, log); err != nil {
			return err
		}

		log.Info("Regions synced", zap.Int("regions", set.Len()))
		fmt.Fprintf(cmd.OutOrStdout(), "synced %d regions\n", set.Len())
		return nil
	},
}

var regionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List regions found in regions.dir in load order",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := geoIndex.LoadDir(cfg.Regions.Dir, log)
		if err != nil {
			return err
		}
		for _, region := range set.Regions() {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", region.Order, region.Name)
		}
		return nil
	},
}

func init() {
	regionsCmd.AddCommand(regionsSyncCmd)
	regionsCmd.AddCommand(regionsListCmd)
}

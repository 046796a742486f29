package main

import (
	"geonames-sync/internal/logger"
	"geonames-sync/internal/migrate"
	"geonames-sync/internal/utils"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "创建导入所需的表与索引（IF NOT EXISTS）",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Setup()
		db, driver, err := utils.OpenFromEnv()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := migrate.EnsureSchema(db, driver); err != nil {
			return err
		}
		logger.L().Info("schema_ready", "driver", driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

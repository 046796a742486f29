package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "geonames-import",
	Short: "GeoNames 数据导入工具",
	Long:  `geonames-import 将 countryInfo / admin1Codes / cities / alternateNames 转储合并进本地库，只填补空字段，不覆盖人工维护的数据。`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "conf", "c", "", "YAML overrides file")
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/noah-isme/proasset-api/api/swagger"
)

// @title ProAsset API
// @version 1.0.0
// @description Asset tracking, stock opname and role-based access control
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var envFile string

func main() {
	rootCmd := &cobra.Command{
		Use:          "proasset",
		Short:        "ProAsset asset tracking API",
		Long:         `ProAsset serves the asset register, stock opname audits and the deletion approval workflow over HTTP.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to the env file to load")

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

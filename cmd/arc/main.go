package main

import (
	"fmt"
	"os"

	"github.com/franz/archivist/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "arc",
		Short: "Personal media archive manager - organize, validate, and deduplicate",
		Long: `arc manages a personal archive of media metadata: photographs, audio,
and video records stored as a JSON document collection. It organizes
items into named collections, centralizes the people referenced across
records, validates referential integrity, and maintains the face
descriptor index used to tag people across media.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/archivist.yaml)")
	rootCmd.PersistentFlags().String("archive", "archive.json", "archive document file")
	rootCmd.PersistentFlags().String("collections", "collections", "collections directory")
	rootCmd.PersistentFlags().String("media", "", "media files directory")
	rootCmd.PersistentFlags().String("artifacts", "artifacts", "event log output directory")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	viper.BindPFlag("archive", rootCmd.PersistentFlags().Lookup("archive"))
	viper.BindPFlag("collections", rootCmd.PersistentFlags().Lookup("collections"))
	viper.BindPFlag("media", rootCmd.PersistentFlags().Lookup("media"))
	viper.BindPFlag("artifacts", rootCmd.PersistentFlags().Lookup("artifacts"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	util.SetColors(util.IsTerminal(os.Stderr.Fd()))

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in common locations
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("archivist")
		viper.SetConfigType("yaml")
	}

	// Read in environment variables that match
	viper.SetEnvPrefix("ARC")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

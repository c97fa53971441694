package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "md5dir [flags] [directories]",
		Short: "Detect added, deleted, and changed files via checksum manifests",
		Long: `md5dir computes a checksum manifest for each directory, compares it with
the manifest from the previous run, and reports the differences.

By default it writes an 'md5sum' file in each directory given and prints one
line per added, deleted, or changed file. MP3 mode computes tag-agnostic
checksums so re-tagging an audio file does not register as a change.

Examples:
  md5dir ~/music                     # Snapshot and compare one directory
  md5dir -3 ~/music                  # MP3 mode: skip ID3 tags when hashing
  md5dir -t old/ new/                # Compare two directories
  md5dir -c old.md5sum new.md5sum    # Compare two manifest files
  md5dir -q ~/archive                # Initialize quietly (no report)
  md5dir -i ignore.yaml ~/projects   # Skip paths matching ignore patterns`,
		Args: cobra.ArbitraryArgs,
		RunE: runRoot,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/md5dir/config.yaml)")
	rootCmd.Flags().BoolP("mp3", "3", false, "skip ID3v1/ID3v2 tags when hashing .mp3 files")
	rootCmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	rootCmd.Flags().BoolP("comparefiles", "c", false, "compare the two manifest files given as arguments")
	rootCmd.Flags().BoolP("twodir", "t", false, "snapshot and compare the two directories given as arguments")
	rootCmd.Flags().BoolP("quiet", "q", false, "suppress the report (suitable for initializing a directory)")
	rootCmd.Flags().StringP("ignore", "i", "", "YAML file listing glob patterns to ignore")
	rootCmd.Flags().Bool("time", false, "print the total runtime when done")
	rootCmd.Flags().String("hashfile", "", "manifest location, or a comma-separated list (one per directory)")
	rootCmd.Flags().IntP("workers", "w", 0, "checksum worker count (0 = number of CPUs)")
	rootCmd.Flags().Bool("cache", false, "reuse checksums of unchanged files across runs")
	rootCmd.Flags().String("cache-dir", "", "hash cache location (default: $XDG_CACHE_HOME/md5dir)")
	rootCmd.Flags().String("link-identity", "link", "manifest identity for file symlinks: link or target")
	rootCmd.Flags().BoolP("verbose", "v", false, "debug logging")

	_ = viper.BindPFlag("mp3", rootCmd.Flags().Lookup("mp3"))
	_ = viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("comparefiles", rootCmd.Flags().Lookup("comparefiles"))
	_ = viper.BindPFlag("twodir", rootCmd.Flags().Lookup("twodir"))
	_ = viper.BindPFlag("quiet", rootCmd.Flags().Lookup("quiet"))
	_ = viper.BindPFlag("ignore", rootCmd.Flags().Lookup("ignore"))
	_ = viper.BindPFlag("time", rootCmd.Flags().Lookup("time"))
	_ = viper.BindPFlag("hashfile", rootCmd.Flags().Lookup("hashfile"))
	_ = viper.BindPFlag("workers", rootCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("cache", rootCmd.Flags().Lookup("cache"))
	_ = viper.BindPFlag("cache_dir", rootCmd.Flags().Lookup("cache-dir"))
	_ = viper.BindPFlag("link_identity", rootCmd.Flags().Lookup("link-identity"))
	_ = viper.BindPFlag("verbose", rootCmd.Flags().Lookup("verbose"))
}

// initConfig reads in the config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "md5dir"))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "md5dir"))
		}
	}

	viper.SetEnvPrefix("MD5DIR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Config file is optional.
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

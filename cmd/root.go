package cmd

import "github.com/spf13/cobra"

var (
	cfgFile   string
	verbose   bool
	userFlag  string
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "zoomdeck",
	Short: "Zooming-canvas presentations with live presenter sync",
	Long: `zoomdeck presents slides laid out on an infinite canvas. The presenter's
navigation is published to a shared presentation store and every viewer
polls it and follows along.

Run "zoomdeck server" to host the store, "zoomdeck import" to load decks,
"zoomdeck present" to drive a talk and "zoomdeck follow" to watch one.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "zoomdeck.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "user id (overrides user_id in config)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "presentation server URL (overrides sync.base_url)")
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/zoomdeck/internal/db"
	"github.com/ziadkadry99/zoomdeck/internal/importer"
	"github.com/ziadkadry99/zoomdeck/internal/log"
	"github.com/ziadkadry99/zoomdeck/internal/presentation"
	"github.com/ziadkadry99/zoomdeck/internal/progress"
)

var importOwner string

var importCmd = &cobra.Command{
	Use:   "import <file|dir|glob>...",
	Short: "Import YAML deck files into the presentation store",
	Long: `Imports deck files into the server's database. Arguments may be files,
directories (searched for *.yml and *.yaml) or doublestar globs such as
'decks/**/*.yml'. Re-importing a deck replaces its slides.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		owner := importOwner
		if owner == "" {
			owner = cfg.UserID
		}

		paths, err := importer.Discover(args)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no deck files found")
		}

		database, err := db.Open(filepath.Join(cfg.Server.DataDir, "zoomdeck.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		im := importer.New(presentation.NewStore(database), owner,
			progress.NewReporter("Importing decks"), log.WithComponent("import"))
		res, err := im.Import(cmd.Context(), paths)
		if err != nil {
			return err
		}

		for _, p := range res.Imported {
			fmt.Printf("  %s  %s (%d slides)\n", p.ID, p.Title, len(p.Slides))
		}
		for path, ferr := range res.Failed {
			fmt.Fprintf(os.Stderr, "  failed %s: %v\n", path, ferr)
		}
		fmt.Printf("Imported %d of %d decks\n", len(res.Imported), len(paths))
		if len(res.Failed) > 0 {
			return fmt.Errorf("%d decks failed to import", len(res.Failed))
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importOwner, "owner", "", "owner of the imported decks (defaults to user_id)")
	rootCmd.AddCommand(importCmd)
}

package main

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"arbor/internal/database"
	"arbor/internal/page"
)

const treeTitleWidth = 40

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the page tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.New(cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		pages, err := page.NewRepository(db).All()
		if err != nil {
			return err
		}

		for _, p := range pages {
			title := strings.Repeat("  ", p.Level) + p.Title
			title = runewidth.Truncate(title, treeTitleWidth, "…")
			title = runewidth.FillRight(title, treeTitleWidth)

			flags := p.Language
			if !p.Active {
				flags += " inactive"
			}
			if !p.InNavigation {
				flags += " hidden"
			}
			fmt.Printf("%4d  %s %-24s %s\n", p.ID, title, p.URL, flags)
		}
		return nil
	},
}

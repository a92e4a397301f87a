package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"

	"arbor/internal/content"
	"arbor/internal/database"
	"arbor/internal/models"
	"arbor/internal/page"
)

var (
	seedSections int
	seedChildren int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with demo pages",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedSections, "sections", 4, "number of top-level sections")
	seedCmd.Flags().IntVar(&seedChildren, "children", 3, "number of pages per section")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := database.New(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}

	// Seeding needs an author for content revisions.
	if _, err := db.Exec("INSERT OR IGNORE INTO users (id, username, display_name) VALUES (1, 'seed', 'Seed')"); err != nil {
		return err
	}

	pages := page.NewRepository(db)
	contents := content.NewRepository(db)
	ctx := context.Background()
	lang := cfg.PrimaryLanguage()

	home := &models.Page{
		Slug: "home", Title: "Home", Language: lang,
		TemplateKey: "base", Active: true, InNavigation: true,
	}
	if err := pages.Create(ctx, home); err != nil {
		return err
	}

	for i := 0; i < seedSections; i++ {
		title := gofakeit.ProductName()
		section := &models.Page{
			Slug: slugify(title), Title: title, Language: lang,
			TemplateKey: "sidebar", Active: true, InNavigation: true, Position: i + 1,
		}
		if err := pages.Create(ctx, section); err != nil {
			return err
		}

		for j := 0; j < seedChildren; j++ {
			childTitle := gofakeit.BookTitle()
			child := &models.Page{
				ParentID: &section.ID, Slug: slugify(childTitle), Title: childTitle,
				Language: lang, TemplateKey: "sidebar", Active: true, InNavigation: true, Position: j,
			}
			if err := pages.Create(ctx, child); err != nil {
				return err
			}

			block := &models.Content{
				PageID: child.ID, Region: "main", Kind: models.ContentRichText,
				Text: "<p>" + gofakeit.Paragraph(2, 4, 12, " ") + "</p>",
			}
			if err := contents.Create(ctx, block, 1, nil); err != nil {
				return err
			}
		}
	}

	fmt.Printf("seeded %d sections with %d pages each\n", seedSections, seedChildren)
	return nil
}

func slugify(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

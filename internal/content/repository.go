package content

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"arbor/internal/models"
)

const contentColumns = "id, page_id, region, ordering, kind, text, media_file_id, app_name"

// Repository provides access to the content block storage.
type Repository struct {
	DB *sql.DB
}

// NewRepository creates a new content repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

func scanContent(row interface{ Scan(...any) error }) (*models.Content, error) {
	var c models.Content
	err := row.Scan(&c.ID, &c.PageID, &c.Region, &c.Ordering, &c.Kind, &c.Text, &c.MediaFileID, &c.AppName)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) queryContents(query string, args ...any) ([]*models.Content, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contents []*models.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}

// ByID returns a single content block.
func (r *Repository) ByID(id int) (*models.Content, error) {
	row := r.DB.QueryRow("SELECT "+contentColumns+" FROM contents WHERE id = ?", id)
	return scanContent(row)
}

// ListByPage returns all blocks of a page ordered by region and ordering.
func (r *Repository) ListByPage(pageID int) ([]*models.Content, error) {
	return r.queryContents(
		"SELECT "+contentColumns+" FROM contents WHERE page_id = ? ORDER BY region, ordering", pageID)
}

// ListByRegion returns the blocks of one region of a page, in order.
func (r *Repository) ListByRegion(pageID int, region string) ([]*models.Content, error) {
	return r.queryContents(
		"SELECT "+contentColumns+" FROM contents WHERE page_id = ? AND region = ? ORDER BY ordering",
		pageID, region)
}

// ApplicationBlock returns the application block of a page, if any.
func (r *Repository) ApplicationBlock(pageID int) (*models.Content, error) {
	row := r.DB.QueryRow(
		"SELECT "+contentColumns+" FROM contents WHERE page_id = ? AND kind = ? ORDER BY ordering LIMIT 1",
		pageID, models.ContentApplication)
	return scanContent(row)
}

// PageEmbedding returns the id of the first active page embedding the named
// application, in tree order.
func (r *Repository) PageEmbedding(appName string) (int, error) {
	var pageID int
	err := r.DB.QueryRow(
		`SELECT c.page_id FROM contents c
		 JOIN pages p ON p.id = c.page_id
		 WHERE c.kind = ? AND c.app_name = ? AND p.active = 1
		 ORDER BY p.tree_id, p.lft LIMIT 1`,
		models.ContentApplication, appName).Scan(&pageID)
	return pageID, err
}

// Create inserts a block and, for text-carrying kinds, its initial revision.
func (r *Repository) Create(ctx context.Context, c *models.Content, authorID int, comment *string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO contents (page_id, region, ordering, kind, text, media_file_id, app_name) VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.PageID, c.Region, c.Ordering, c.Kind, c.Text, c.MediaFileID, c.AppName)
	if err != nil {
		return fmt.Errorf("error creating content: %w", err)
	}
	id, _ := res.LastInsertId()
	c.ID = int(id)

	if c.Kind == models.ContentRichText || c.Kind == models.ContentMarkup {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO content_revisions (content_id, text, author_id, comment) VALUES (?, ?, ?, ?)",
			c.ID, c.Text, authorID, comment); err != nil {
			return fmt.Errorf("error creating revision: %w", err)
		}
	}

	return tx.Commit()
}

// UpdateText stores new text for a block and records a revision.
func (r *Repository) UpdateText(ctx context.Context, contentID int, text string, authorID int, comment *string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE contents SET text = ? WHERE id = ?", text, contentID); err != nil {
		return fmt.Errorf("error updating content: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO content_revisions (content_id, text, author_id, comment) VALUES (?, ?, ?, ?)",
		contentID, text, authorID, comment); err != nil {
		return fmt.Errorf("error creating revision: %w", err)
	}

	return tx.Commit()
}

// Delete removes a block and its revisions.
func (r *Repository) Delete(ctx context.Context, contentID int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM content_revisions WHERE content_id = ?", contentID); err != nil {
		return fmt.Errorf("error deleting revisions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM contents WHERE id = ?", contentID); err != nil {
		return fmt.Errorf("error deleting content: %w", err)
	}

	return tx.Commit()
}

// ListRevisions returns the revisions of a block, newest first.
func (r *Repository) ListRevisions(contentID int) ([]*models.ContentRevision, error) {
	rows, err := r.DB.Query(
		"SELECT id, content_id, text, author_id, comment, created_at FROM content_revisions WHERE content_id = ? ORDER BY id DESC",
		contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revisions []*models.ContentRevision
	for rows.Next() {
		var rev models.ContentRevision
		if err := rows.Scan(&rev.ID, &rev.ContentID, &rev.Text, &rev.AuthorID, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, err
		}
		revisions = append(revisions, &rev)
	}
	return revisions, rows.Err()
}

// RevisionInfo is a revision row joined with its author's display name.
type RevisionInfo struct {
	ID        int
	CreatedAt time.Time
	Author    string
	Comment   *string
}

// ListRevisionInfo returns the revision history of a block with author
// names, newest first.
func (r *Repository) ListRevisionInfo(contentID int) ([]RevisionInfo, error) {
	rows, err := r.DB.Query(
		`SELECT cr.id, cr.created_at, u.display_name, cr.comment
		 FROM content_revisions cr
		 JOIN users u ON u.id = cr.author_id
		 WHERE cr.content_id = ? ORDER BY cr.id DESC`, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []RevisionInfo
	for rows.Next() {
		var info RevisionInfo
		if err := rows.Scan(&info.ID, &info.CreatedAt, &info.Author, &info.Comment); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// RevisionText returns the stored text of one revision.
func (r *Repository) RevisionText(revisionID int) (string, error) {
	var text string
	err := r.DB.QueryRow("SELECT text FROM content_revisions WHERE id = ?", revisionID).Scan(&text)
	return text, err
}

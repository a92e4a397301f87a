package database

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

func New(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *sql.DB) error {
	_, err := db.Exec(`
-- ARBOR Database Schema

-- Users are the editors of content.
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    display_name TEXT NOT NULL
);

-- Identities provide a way for users to authenticate.
CREATE TABLE IF NOT EXISTS identities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    provider TEXT NOT NULL,
    provider_user_id TEXT NOT NULL,
    password_hash TEXT,
    FOREIGN KEY(user_id) REFERENCES users(id)
);

-- Pages form the site tree. The tree_id/lft/rght/level columns are
-- nested-set values rebuilt by the page repository; url is the cached
-- absolute URL.
CREATE TABLE IF NOT EXISTS pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    parent_id INTEGER,
    slug TEXT NOT NULL,
    title TEXT NOT NULL,
    language TEXT NOT NULL,
    translation_of INTEGER,
    template_key TEXT NOT NULL DEFAULT 'base',
    active INTEGER NOT NULL DEFAULT 1,
    in_navigation INTEGER NOT NULL DEFAULT 1,
    override_url TEXT NOT NULL DEFAULT '',
    redirect_to TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL DEFAULT 0,
    tree_id INTEGER NOT NULL DEFAULT 0,
    lft INTEGER NOT NULL DEFAULT 0,
    rght INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 0,
    url TEXT NOT NULL DEFAULT '',
    FOREIGN KEY(parent_id) REFERENCES pages(id),
    FOREIGN KEY(translation_of) REFERENCES pages(id),
    UNIQUE (parent_id, slug, language)
);

CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
CREATE INDEX IF NOT EXISTS idx_pages_tree ON pages(tree_id, lft);

-- Contents are the blocks rendered into page regions.
CREATE TABLE IF NOT EXISTS contents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    page_id INTEGER NOT NULL,
    region TEXT NOT NULL,
    ordering INTEGER NOT NULL DEFAULT 0,
    kind TEXT NOT NULL,
    text TEXT NOT NULL DEFAULT '',
    media_file_id INTEGER,
    app_name TEXT NOT NULL DEFAULT '',
    FOREIGN KEY(page_id) REFERENCES pages(id),
    FOREIGN KEY(media_file_id) REFERENCES media_files(id)
);

-- Content revisions are the edit history of text blocks.
CREATE TABLE IF NOT EXISTS content_revisions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    content_id INTEGER NOT NULL,
    text TEXT NOT NULL,
    author_id INTEGER NOT NULL,
    comment TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(content_id) REFERENCES contents(id),
    FOREIGN KEY(author_id) REFERENCES users(id)
);

-- Media files are uploaded assets referenced by mediafile blocks.
CREATE TABLE IF NOT EXISTS media_files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    filename TEXT NOT NULL,
    stored_name TEXT UNIQUE NOT NULL,
    mime_type TEXT NOT NULL,
    size INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`)
	return err
}

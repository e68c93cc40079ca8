package leaderboard

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one leaderboard row.
type Entry struct {
	Player    string    `json:"player"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store handles SQLite persistence for game scores.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS scores (
			game       TEXT NOT NULL,
			player     TEXT NOT NULL,
			score      INTEGER NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (game, player)
		);
		CREATE INDEX IF NOT EXISTS idx_scores_game_score ON scores (game, score DESC);
	`)
	return err
}

// Submit records a score, keeping only a player's best per game.
func (s *Store) Submit(game, player string, score int) error {
	_, err := s.db.Exec(`
		INSERT INTO scores (game, player, score, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(game, player) DO UPDATE SET
			score      = MAX(score, excluded.score),
			updated_at = CASE WHEN excluded.score > score THEN excluded.updated_at ELSE updated_at END
	`, game, player, score)
	return err
}

// Top returns the best n scores for a game, highest first.
func (s *Store) Top(game string, n int) ([]Entry, error) {
	rows, err := s.db.Query(
		"SELECT player, score, updated_at FROM scores WHERE game = ? ORDER BY score DESC, updated_at ASC LIMIT ?",
		game, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Player, &e.Score, &e.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

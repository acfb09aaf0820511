// Package store reconciles in-memory game state with Postgres. The store is
// keyed by client-generated ids; surrogate SERIAL ids exist only for
// foreign-key linkage. Every operation runs in a single transaction, so a
// failed call leaves both the store and in-memory state untouched.
package store

import (
	"context"
	"database/sql"
	"sort"
	"time"

	_ "github.com/lib/pq"

	"github.com/jordanngo205/Basketball-Tracker/internal/ledger"
	"github.com/jordanngo205/Basketball-Tracker/internal/model"
	"github.com/jordanngo205/Basketball-Tracker/internal/registry"
)

// TrackerTag discriminates this tracker's possession rows in the shared
// possessions table. Rows with a NULL tracker predate the column and belong
// to us as well.
const TrackerTag = "paint_touch"

// Store wraps the Postgres connection.
type Store struct {
	db *sql.DB
}

// New opens a Postgres connection and verifies it.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, &model.StoreError{Op: "open", Err: err}
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, &model.StoreError{Op: "ping", Err: err}
	}

	return &Store{db: db}, nil
}

// Init creates the schema if missing and adds the columns introduced after
// the first deployment. Loading from an older store must keep working, so
// every newer column is nullable and added idempotently.
func (s *Store) Init(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id SERIAL PRIMARY KEY,
			client_id TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			opponent TEXT,
			game_date TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS possessions (
			id SERIAL PRIMARY KEY,
			client_id TEXT UNIQUE NOT NULL,
			game_id INTEGER NOT NULL REFERENCES games(id),
			number INTEGER NOT NULL,
			quarter INTEGER NOT NULL,
			paint_touch BOOLEAN NOT NULL,
			points INTEGER,
			outcome TEXT,
			timestamp TEXT NOT NULL
		)`,
		`ALTER TABLE possessions ADD COLUMN IF NOT EXISTS transition BOOLEAN`,
		`ALTER TABLE possessions ADD COLUMN IF NOT EXISTS defense TEXT`,
		`ALTER TABLE possessions ADD COLUMN IF NOT EXISTS shot_quality TEXT`,
		`ALTER TABLE possessions ADD COLUMN IF NOT EXISTS tracker TEXT`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &model.StoreError{Op: "init schema", Err: err}
		}
	}
	return nil
}

// SyncGame upserts the game row by client id, then fully replaces its
// possession rows with the in-memory set. The full replace keeps the store
// correct under renumbering: rows left over from old slot numbers would
// otherwise linger. Returns the number of possessions written.
func (s *Store) SyncGame(ctx context.Context, game *registry.Game) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &model.StoreError{Op: "begin sync", Err: err}
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (client_id, name, opponent, game_date, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (client_id) DO UPDATE SET
			name = EXCLUDED.name,
			opponent = EXCLUDED.opponent,
			game_date = EXCLUDED.game_date
	`, game.ID, game.Name, game.Opponent, game.Date, game.CreatedAt)
	if err != nil {
		return 0, &model.StoreError{Op: "upsert game", Err: err}
	}

	var gameID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM games WHERE client_id = $1`, game.ID).Scan(&gameID)
	if err != nil {
		return 0, &model.StoreError{Op: "resolve game id", Err: err}
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM possessions
		WHERE game_id = $1 AND (tracker IS NULL OR tracker = $2)
	`, gameID, TrackerTag)
	if err != nil {
		return 0, &model.StoreError{Op: "clear possessions", Err: err}
	}

	synced := 0
	for _, p := range game.Ledger.All() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO possessions
				(client_id, game_id, number, quarter, paint_touch, transition,
				 points, outcome, defense, shot_quality, tracker, timestamp)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, p.ID, gameID, p.Number, p.Quarter, p.PaintTouch, p.Transition,
			nullableInt(p.Points), nullableString(string(p.Outcome)),
			nullableString(string(p.Defense)), nullableString(string(p.ShotQuality)),
			TrackerTag, timestampOrNow(p.Timestamp))
		if err != nil {
			return 0, &model.StoreError{Op: "insert possession", Err: err}
		}
		synced++
	}

	if err := tx.Commit(); err != nil {
		return 0, &model.StoreError{Op: "commit sync", Err: err}
	}
	return synced, nil
}

// LoadAll reads every game most-recently-created first, with its possession
// set deduplicated and ordered. Nothing is attached to the registry here;
// the caller swaps state only after a fully successful load.
func (s *Store) LoadAll(ctx context.Context) ([]*registry.Game, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, name, COALESCE(opponent, ''), game_date, created_at
		FROM games
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, &model.StoreError{Op: "query games", Err: err}
	}
	defer rows.Close()

	type gameRow struct {
		surrogate int64
		game      *registry.Game
	}
	var loaded []gameRow
	for rows.Next() {
		var gr gameRow
		gr.game = &registry.Game{}
		if err := rows.Scan(&gr.surrogate, &gr.game.ID, &gr.game.Name,
			&gr.game.Opponent, &gr.game.Date, &gr.game.CreatedAt); err != nil {
			return nil, &model.StoreError{Op: "scan game", Err: err}
		}
		loaded = append(loaded, gr)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StoreError{Op: "iterate games", Err: err}
	}

	games := make([]*registry.Game, 0, len(loaded))
	for _, gr := range loaded {
		possessions, err := s.loadPossessions(ctx, gr.surrogate)
		if err != nil {
			return nil, err
		}
		gr.game.Ledger = ledger.Restore(possessions)
		games = append(games, gr.game)
	}
	return games, nil
}

// DeleteGame removes a game and its possession rows, dependents first. A
// client id with no stored row is a safe no-op.
func (s *Store) DeleteGame(ctx context.Context, clientID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &model.StoreError{Op: "begin delete", Err: err}
	}
	defer tx.Rollback()

	var gameID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM games WHERE client_id = $1`, clientID).Scan(&gameID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return &model.StoreError{Op: "resolve game id", Err: err}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM possessions WHERE game_id = $1`, gameID); err != nil {
		return &model.StoreError{Op: "delete possessions", Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, gameID); err != nil {
		return &model.StoreError{Op: "delete game", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &model.StoreError{Op: "commit delete", Err: err}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) loadPossessions(ctx context.Context, gameID int64) ([]model.Possession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT client_id, number, quarter, paint_touch, transition,
		       points, outcome, defense, shot_quality, timestamp
		FROM possessions
		WHERE game_id = $1 AND (tracker IS NULL OR tracker = $2)
	`, gameID, TrackerTag)
	if err != nil {
		return nil, &model.StoreError{Op: "query possessions", Err: err}
	}
	defer rows.Close()

	var possessions []model.Possession
	for rows.Next() {
		var p model.Possession
		var transition sql.NullBool
		var points sql.NullInt64
		var outcome, defense, shotQuality sql.NullString
		if err := rows.Scan(&p.ID, &p.Number, &p.Quarter, &p.PaintTouch,
			&transition, &points, &outcome, &defense, &shotQuality, &p.Timestamp); err != nil {
			return nil, &model.StoreError{Op: "scan possession", Err: err}
		}
		// Columns added after the first deployment read back as NULL for old
		// rows; NULL means the field's default-unset state.
		p.Transition = transition.Valid && transition.Bool
		if points.Valid {
			v := int(points.Int64)
			p.Points = &v
		}
		p.Outcome = model.Outcome(outcome.String)
		p.Defense = model.Defense(defense.String)
		p.ShotQuality = model.ShotQuality(shotQuality.String)
		possessions = append(possessions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StoreError{Op: "iterate possessions", Err: err}
	}

	return DedupPossessions(possessions), nil
}

// DedupPossessions collapses rows sharing a (quarter, number) slot, keeping
// the one with the greatest timestamp. Legacy write paths could leave two
// rows on the same slot; last write wins. The result is sorted by
// (quarter, number).
func DedupPossessions(possessions []model.Possession) []model.Possession {
	type slot struct{ quarter, number int }
	latest := make(map[slot]model.Possession, len(possessions))
	for _, p := range possessions {
		key := slot{p.Quarter, p.Number}
		if existing, ok := latest[key]; ok && existing.Timestamp >= p.Timestamp {
			continue
		}
		latest[key] = p
	}

	out := make([]model.Possession, 0, len(latest))
	for _, p := range latest {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quarter != out[j].Quarter {
			return out[i].Quarter < out[j].Quarter
		}
		return out[i].Number < out[j].Number
	})
	return out
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

func timestampOrNow(ts string) string {
	if ts != "" {
		return ts
	}
	return time.Now().UTC().Format(time.RFC3339Nano)
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/calvinwijaya/klondike-be/internal/game"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Database is the results ledger. It stores one summary row per finished
// session and never any card layout.
type Database struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
}

// Result summarizes one game session
type Result struct {
	GameID     string          `json:"gameId"`
	Mode       game.Mode       `json:"mode"`
	DrawCount  int             `json:"drawCount"`
	Seed       *int64          `json:"seed,omitempty"` // unknown for injected random sources
	Status     game.GameStatus `json:"status"`
	Moves      int             `json:"moves"`
	CreatedAt  time.Time       `json:"createdAt"`
	FinishedAt time.Time       `json:"finishedAt"`
}

// Stats aggregates every recorded Play mode session
type Stats struct {
	GamesPlayed  int     `json:"gamesPlayed"`
	GamesWon     int     `json:"gamesWon"`
	AverageMoves float64 `json:"averageMoves"`
	BestMoves    int     `json:"bestMoves,omitempty"` // fewest moves in a won game
}

// ResultFromGame builds the summary row for g
func ResultFromGame(g *game.KlondikeGame) Result {
	return Result{
		GameID:     g.ID,
		Mode:       g.Mode,
		DrawCount:  g.DrawCount,
		Seed:       copySeed(g.Seed),
		Status:     g.Status,
		Moves:      g.Moves,
		CreatedAt:  g.CreatedAt,
		FinishedAt: time.Now(),
	}
}

func copySeed(seed *int64) *int64 {
	if seed == nil {
		return nil
	}
	v := *seed
	return &v
}

// NewDatabase opens a connection with the given driver and creates the tables
// if they don't exist
func NewDatabase(driver, dsn string, logger *zap.Logger) (*Database, error) {
	switch driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	// Set connection parameters
	if driver == DriverSQLite {
		// A single connection keeps ":memory:" databases intact and avoids
		// SQLITE_BUSY on concurrent writers.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{db: db, driver: driver, logger: logger}
	if err := d.initTables(); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

// initTables creates the necessary tables if they don't exist
func (d *Database) initTables() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS game_results (
			game_id VARCHAR(64) PRIMARY KEY,
			mode VARCHAR(32) NOT NULL,
			draw_count INTEGER NOT NULL,
			seed BIGINT,
			status VARCHAR(32) NOT NULL,
			moves INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating game_results table: %w", err)
	}

	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// rebind rewrites ? placeholders into $N for postgres.
func (d *Database) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveResult records a finished session
func (d *Database) SaveResult(ctx context.Context, r Result) error {
	_, err := d.db.ExecContext(ctx, d.rebind(`
		INSERT INTO game_results (game_id, mode, draw_count, seed, status, moves, created_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`),
		r.GameID, string(r.Mode), r.DrawCount, r.Seed, string(r.Status), r.Moves, r.CreatedAt.UTC(), r.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("save result %s: %w", r.GameID, err)
	}

	d.logger.Debug("result saved", zap.String("game_id", r.GameID), zap.String("status", string(r.Status)))
	return nil
}

// RecentResults returns up to limit results, newest first
func (d *Database) RecentResults(ctx context.Context, limit int) ([]Result, error) {
	rows, err := d.db.QueryContext(ctx, d.rebind(`
		SELECT game_id, mode, draw_count, seed, status, moves, created_at, finished_at
		FROM game_results ORDER BY finished_at DESC LIMIT ?
	`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var r Result
		var mode, status string
		var seed sql.NullInt64
		if err := rows.Scan(&r.GameID, &mode, &r.DrawCount, &seed, &status, &r.Moves, &r.CreatedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		if seed.Valid {
			r.Seed = &seed.Int64
		}
		r.Mode = game.Mode(mode)
		r.Status = game.GameStatus(status)
		results = append(results, r)
	}

	return results, rows.Err()
}

// GetStats aggregates the recorded Play mode sessions
func (d *Database) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	play := string(game.Play)

	err := d.db.QueryRowContext(ctx, d.rebind(
		"SELECT COUNT(*), COALESCE(AVG(moves), 0) FROM game_results WHERE mode = ?"), play,
	).Scan(&stats.GamesPlayed, &stats.AverageMoves)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	// Get total games won
	err = d.db.QueryRowContext(ctx, d.rebind(
		"SELECT COUNT(*) FROM game_results WHERE mode = ? AND status = ?"), play, string(game.Won),
	).Scan(&stats.GamesWon)
	if err != nil {
		d.logger.Warn("error getting games won", zap.Error(err))
	}

	// Get fewest moves in a won game
	var best sql.NullInt64
	err = d.db.QueryRowContext(ctx, d.rebind(
		"SELECT MIN(moves) FROM game_results WHERE mode = ? AND status = ?"), play, string(game.Won),
	).Scan(&best)
	if err != nil {
		d.logger.Warn("error getting best moves", zap.Error(err))
	}
	if best.Valid {
		stats.BestMoves = int(best.Int64)
	}

	return &stats, nil
}

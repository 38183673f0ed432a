package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/hexymap/hexy/src/crypto"
	"github.com/hexymap/hexy/src/project_types"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrNotFound = errors.New("user not found")

// Error marks a failure inside the database layer.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("database %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func init() {
	// modernc registers as "sqlite", which sqlx does not know by name
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

func SqlInitialize(driver, connectString string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(driver, connectString)
	if err != nil {
		return nil, &Error{Op: "connect", Err: err}
	}
	if driver == "sqlite" {
		// one writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, &Error{Op: "ping", Err: err}
	}
	return db, nil
}

// PrepSqlite sets the pragmas that stop the file from locking up under
// concurrent readers.
func PrepSqlite(ctx context.Context, db *sqlx.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA wal_autocheckpoint = 100",
		"PRAGMA wal_checkpoint(TRUNCATE)",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			log.Warn().Err(err).Str("pragma", pragma).Msg("failed to prep db")
			return &Error{Op: "prep", Err: err}
		}
	}
	return nil
}

var dialects = map[string]goose.Dialect{
	"sqlite":   goose.DialectSQLite3,
	"postgres": goose.DialectPostgres,
}

// Migrate brings the schema up to the newest embedded migration. Applied
// versions are tracked by goose in goose_db_version.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	dialect, ok := dialects[db.DriverName()]
	if !ok {
		return &Error{Op: "migrate", Err: fmt.Errorf("unsupported driver %q", db.DriverName())}
	}
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return &Error{Op: "migrate", Err: err}
	}
	p, err := goose.NewProvider(dialect, db.DB, sub)
	if err != nil {
		return &Error{Op: "migrate", Err: err}
	}
	results, err := p.Up(ctx)
	if err != nil {
		return &Error{Op: "migrate", Err: err}
	}
	for _, r := range results {
		log.Info().Int64("version", r.Source.Version).Dur("took", r.Duration).Msg("applied migration")
	}
	return nil
}

// Store keeps Strava tokens per athlete. Refresh tokens are encrypted at
// rest; access tokens are short lived and stored as is.
type Store struct {
	db     *sqlx.DB
	crypto *crypto.Crypto
	now    func() time.Time
}

func NewStore(db *sqlx.DB, c *crypto.Crypto) *Store {
	return &Store{db: db, crypto: c, now: time.Now}
}

func (s *Store) SaveUser(ctx context.Context, user project_types.User) error {
	refresh, err := s.crypto.Encrypt(user.RefreshToken)
	if err != nil {
		return &Error{Op: "save_user", Err: err}
	}
	user.RefreshToken = refresh
	user.UpdatedAt = s.now().Unix()

	log.Debug().Int64("athlete", user.ID).Msg("upserting user")
	if _, err := s.db.NamedExecContext(ctx, `INSERT INTO users (id, access_token, refresh_token, expires_at, updated_at)
		VALUES (:id, :access_token, :refresh_token, :expires_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`, user); err != nil {
		return &Error{Op: "save_user", Err: err}
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*project_types.User, error) {
	user := project_types.User{}
	err := s.db.GetContext(ctx, &user, s.db.Rebind(`SELECT id, access_token, refresh_token, expires_at, updated_at FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("athlete %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, &Error{Op: "get_user", Err: err}
	}
	user.RefreshToken = s.crypto.DecryptFallback(user.RefreshToken)
	return &user, nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM users WHERE id = ?`), id); err != nil {
		return &Error{Op: "delete_user", Err: err}
	}
	return nil
}

package refresh

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	liveerrors "github.com/liveservices/LiveSDK-for-Windows-sub001/internal/errors"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

var _ Repo = (*SQLiteStore)(nil)

// SQLiteStore keeps one refresh token row per client id.
// Several stores for different client ids may share a database.
type SQLiteStore struct {
	db       *sql.DB
	clientID string
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
func NewSQLiteStore(dbPath, clientID string) (*SQLiteStore, error) {
	if clientID == "" {
		return nil, errors.Wrap(liveerrors.ErrInvalidConfig, "[NewSQLiteStore] client id is required")
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "[NewSQLiteStore] failed to connect to database")
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[NewSQLiteStore] failed to init database")
	}
	return &SQLiteStore{db: db, clientID: clientID}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	return initTable(db, "refresh_token", `
		CREATE TABLE IF NOT EXISTS refresh_token (
			client_id   TEXT PRIMARY KEY,
			token       TEXT NOT NULL,
			user_id     TEXT,
			updated     INTEGER
		);`,
	)
}

func initTable(db *sql.DB, name string, sql string) error {
	if _, err := db.Exec(sql); err != nil {
		return fmt.Errorf("failed to init '%s' table schema: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) SaveRefreshToken(ctx context.Context, info *oauth2.RefreshTokenInfo) error {
	if info == nil || info.RefreshToken == "" {
		return errors.Wrap(liveerrors.ErrInvalidRefreshToken, "[SQLiteStore.SaveRefreshToken] empty refresh token")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_token (client_id, token, user_id, updated)
		VALUES (?1, ?2, ?3, ?4)
		ON CONFLICT (client_id) DO UPDATE SET
			token=excluded.token,
			user_id=excluded.user_id,
			updated=excluded.updated;`,
		s.clientID,
		info.RefreshToken,
		info.UserID,
		NowTimeFunc().Unix(),
	)
	if err != nil {
		return errors.Wrap(err, "[SQLiteStore.SaveRefreshToken] couldn't upsert refresh_token")
	}
	return nil
}

func (s *SQLiteStore) RetrieveRefreshToken(ctx context.Context) (*oauth2.RefreshTokenInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token, user_id
		FROM refresh_token
		WHERE client_id=?1;`,
		s.clientID,
	)

	var token string
	var userID sql.NullString
	err := row.Scan(&token, &userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[SQLiteStore.RetrieveRefreshToken] couldn't scan refresh_token")
	}
	return &oauth2.RefreshTokenInfo{RefreshToken: token, UserID: userID.String}, nil
}

func (s *SQLiteStore) DeleteRefreshToken(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM refresh_token
		WHERE client_id=?1;`,
		s.clientID,
	)
	if err != nil {
		return errors.Wrap(err, "[SQLiteStore.DeleteRefreshToken] couldn't delete from refresh_token")
	}
	return nil
}

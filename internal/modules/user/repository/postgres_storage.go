package repository

import (
	"context"
	"database/sql"
	"embed"
	stderrors "errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/reshetovitsme/news-digest-bot/internal/modules/user/domain"
	"github.com/reshetovitsme/news-digest-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// child tables holding ordered per-user lists
type listTable struct {
	name   string
	column string
	get    func(*domain.User) []string
	set    func(*domain.User, []string)
}

var listTables = []listTable{
	{
		name: "user_assets", column: "symbol",
		get: func(u *domain.User) []string { return u.Assets },
		set: func(u *domain.User, v []string) { u.Assets = v },
	},
	{
		name: "user_news_sources", column: "url",
		get: func(u *domain.User) []string { return u.NewsSources },
		set: func(u *domain.User, v []string) { u.NewsSources = v },
	},
	{
		name: "user_keywords", column: "keyword",
		get: func(u *domain.User) []string { return u.Keywords },
		set: func(u *domain.User, v []string) { u.Keywords = v },
	},
}

// PostgresStorage implements user.Repository on PostgreSQL
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage connects to databaseURL and applies pending migrations
func NewPostgresStorage(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, oops.With("context", "failed to open database").Wrap(err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, oops.With("context", "failed to connect to database").Wrap(err)
	}

	if _, _, err := RunMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &PostgresStorage{db: db}, nil
}

// RunMigrations applies all pending migrations and returns the schema version
func RunMigrations(db *sql.DB) (uint, bool, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return 0, false, oops.With("context", "failed to create postgres driver").Wrap(err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return 0, false, oops.With("context", "failed to create iofs source").Wrap(err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return 0, false, oops.With("context", "failed to create migrate instance").Wrap(err)
	}

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return 0, false, oops.With("context", "failed to run migrations").Wrap(err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, false, oops.With("context", "failed to get migration version").Wrap(err)
	}
	return version, dirty, nil
}

func (s *PostgresStorage) SaveUser(ctx context.Context, user *domain.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.With("user_id", user.ID).Wrap(err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := psql.Insert("users").
		Columns("telegram_id", "username", "is_admin", "created_at", "last_seen").
		Values(user.ID, user.Username, user.IsAdmin, user.AddedAt, user.LastSeen).
		Suffix(`ON CONFLICT (telegram_id) DO UPDATE
			SET username = EXCLUDED.username,
			    is_admin = EXCLUDED.is_admin,
			    last_seen = EXCLUDED.last_seen`).
		ToSql()
	if err != nil {
		return oops.With("user_id", user.ID).Wrap(err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return oops.With("user_id", user.ID, "context", "failed to upsert user").Wrap(err)
	}

	for _, table := range listTables {
		if err := replaceList(ctx, tx, table, user.ID, table.get(user)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return oops.With("user_id", user.ID, "context", "failed to commit").Wrap(err)
	}
	return nil
}

func replaceList(ctx context.Context, tx *sql.Tx, table listTable, userID int64, values []string) error {
	query, args, err := psql.Delete(table.name).Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return oops.With("table", table.name).Wrap(err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return oops.With("table", table.name, "user_id", userID).Wrap(err)
	}

	values = lo.Uniq(values)
	if len(values) == 0 {
		return nil
	}

	insert := psql.Insert(table.name).Columns("user_id", table.column, "position")
	for i, v := range values {
		insert = insert.Values(userID, v, i)
	}
	query, args, err = insert.ToSql()
	if err != nil {
		return oops.With("table", table.name).Wrap(err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return oops.With("table", table.name, "user_id", userID).Wrap(err)
	}
	return nil
}

func (s *PostgresStorage) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	users, err := s.queryUsers(ctx, sq.Eq{"telegram_id": userID})
	if err != nil {
		return nil, oops.With("user_id", userID).Wrap(err)
	}
	if len(users) == 0 {
		return nil, oops.With("user_id", userID).Wrap(errors.ErrUserNotFound)
	}
	return users[0], nil
}

func (s *PostgresStorage) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	return s.queryUsers(ctx, nil)
}

func (s *PostgresStorage) queryUsers(ctx context.Context, where sq.Sqlizer) ([]*domain.User, error) {
	builder := psql.Select("telegram_id", "username", "is_admin", "created_at", "last_seen").
		From("users").
		OrderBy("telegram_id")
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, oops.Wrap(err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, oops.With("context", "failed to query users").Wrap(err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.IsAdmin, &u.AddedAt, &u.LastSeen); err != nil {
			return nil, oops.With("context", "failed to scan user").Wrap(err)
		}
		u.Assets, u.NewsSources, u.Keywords = []string{}, []string{}, []string{}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Wrap(err)
	}

	if len(users) == 0 {
		return users, nil
	}

	byID := lo.KeyBy(users, func(u *domain.User) int64 { return u.ID })
	ids := lo.Keys(byID)
	for _, table := range listTables {
		if err := s.loadList(ctx, table, ids, byID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (s *PostgresStorage) loadList(ctx context.Context, table listTable, ids []int64, byID map[int64]*domain.User) error {
	query, args, err := psql.Select("user_id", table.column).
		From(table.name).
		Where(sq.Eq{"user_id": ids}).
		OrderBy("user_id", "position").
		ToSql()
	if err != nil {
		return oops.With("table", table.name).Wrap(err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return oops.With("table", table.name).Wrap(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID int64
			value  string
		)
		if err := rows.Scan(&userID, &value); err != nil {
			return oops.With("table", table.name).Wrap(err)
		}
		if u, ok := byID[userID]; ok {
			table.set(u, append(table.get(u), value))
		}
	}
	return rows.Err()
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/wibutime/authcore/directory/migrations"
)

const pgUniqueViolation = "23505"

// Open connects to Postgres through the pgx stdlib driver and verifies the
// connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// PostgresRepository defines a public type used by authcore APIs.
//
// PostgresRepository instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresRepository describes the newpostgresrepository operation and its observable behavior.
//
// NewPostgresRepository does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

const userColumns = `id, email, username, name, password_hash, provider, email_verified, image, coin, created_at, updated_at`

func scanUser(row *sql.Row) (*User, error) {
	var (
		user     User
		username sql.NullString
		hash     sql.NullString
	)

	err := row.Scan(&user.ID, &user.Email, &username, &user.Name, &hash,
		&user.Provider, &user.EmailVerified, &user.Image, &user.Coin,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Username = username.String
	user.PasswordHash = hash.String
	return &user, nil
}

// FindByEmailOrUsername describes the findbyemailorusername operation and its observable behavior.
//
// FindByEmailOrUsername may return an error when input validation, dependency calls, or security checks fail.
// FindByEmailOrUsername does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *PostgresRepository) FindByEmailOrUsername(ctx context.Context, slug string, opts ...FindOption) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users
	 WHERE email = $1 OR username LIKE '%' || $1 || '%'
	 ORDER BY (email = $1) DESC
	 LIMIT 1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		return nil, err
	}

	return r.project(ctx, user, applyFindOptions(opts))
}

// FindByID describes the findbyid operation and its observable behavior.
//
// FindByID may return an error when input validation, dependency calls, or security checks fail.
// FindByID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *PostgresRepository) FindByID(ctx context.Context, id int64, opts ...FindOption) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	return r.project(ctx, user, applyFindOptions(opts))
}

func (r *PostgresRepository) project(ctx context.Context, user *User, o findOptions) (*User, error) {
	if !o.password {
		user.PasswordHash = ""
	}
	if !o.roles {
		return user, nil
	}

	roles, err := r.loadRoles(ctx, user.ID, o.permissions)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return user, nil
}

func (r *PostgresRepository) loadRoles(ctx context.Context, userID int64, withPermissions bool) ([]Role, error) {
	query := `SELECT r.id, r.name FROM roles r
	 JOIN user_roles ur ON ur.role_id = r.id
	 WHERE ur.user_id = $1
	 ORDER BY r.id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if !withPermissions {
		return roles, nil
	}

	permsByRole, err := r.loadPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range roles {
		roles[i].Permissions = permsByRole[roles[i].ID]
	}
	return roles, nil
}

func (r *PostgresRepository) loadPermissions(ctx context.Context, userID int64) (map[int64][]Permission, error) {
	query := `SELECT ur.role_id, p.id, p.name FROM user_roles ur
	 JOIN role_permissions rp ON rp.role_id = ur.role_id
	 JOIN permissions p ON p.id = rp.permission_id
	 WHERE ur.user_id = $1
	 ORDER BY p.id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	byRole := make(map[int64][]Permission)
	for rows.Next() {
		var roleID int64
		var perm Permission
		if err := rows.Scan(&roleID, &perm.ID, &perm.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		byRole[roleID] = append(byRole[roleID], perm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return byRole, nil
}

// Create describes the create operation and its observable behavior.
//
// Create may return an error when input validation, dependency calls, or security checks fail.
// Create does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *PostgresRepository) Create(ctx context.Context, candidate *User) (*User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.now().UnixMilli()
	stored := *candidate
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Provider == "" {
		stored.Provider = ProviderCredentials
	}

	insert := `INSERT INTO users (email, username, name, password_hash, provider, email_verified, image, coin, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	 RETURNING id`

	var username, hash any
	if stored.Username != "" {
		username = stored.Username
	}
	if stored.PasswordHash != "" {
		hash = stored.PasswordHash
	}

	err = tx.QueryRowContext(ctx, insert,
		stored.Email, username, stored.Name, hash, string(stored.Provider),
		stored.EmailVerified, stored.Image, stored.Coin, stored.CreatedAt, stored.UpdatedAt,
	).Scan(&stored.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	attach := `INSERT INTO user_roles (user_id, role_id)
	 SELECT $1, id FROM roles WHERE name = $2`

	result, err := tx.ExecContext(ctx, attach, stored.ID, DefaultRoleName)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, fmt.Errorf("db error: default role %q missing", DefaultRoleName)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	stored.Roles = []Role{{Name: DefaultRoleName}}
	return &stored, nil
}

// UpdatePassword describes the updatepassword operation and its observable behavior.
//
// UpdatePassword may return an error when input validation, dependency calls, or security checks fail.
// UpdatePassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, email, hash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE email = $1`
	return r.execExpectingRow(ctx, query, email, hash, r.now().UnixMilli())
}

// MarkEmailVerified describes the markemailverified operation and its observable behavior.
//
// MarkEmailVerified may return an error when input validation, dependency calls, or security checks fail.
// MarkEmailVerified does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, email string) error {
	query := `UPDATE users SET email_verified = TRUE, updated_at = $2 WHERE email = $1`
	return r.execExpectingRow(ctx, query, email, r.now().UnixMilli())
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation, dependency calls, or security checks fail.
// Delete does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`
	return r.execExpectingRow(ctx, query, id)
}

func (r *PostgresRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRoles describes the listroles operation and its observable behavior.
//
// ListRoles may return an error when input validation, dependency calls, or security checks fail.
// ListRoles does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *PostgresRepository) ListRoles(ctx context.Context, nameFilter string) ([]Role, error) {
	query := `SELECT r.id, r.name FROM roles r
	 WHERE $1 = '' OR r.name ILIKE '%' || $1 || '%'
	 ORDER BY r.id`

	rows, err := r.db.QueryContext(ctx, query, nameFilter)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	permQuery := `SELECT rp.role_id, p.id, p.name FROM role_permissions rp
	 JOIN permissions p ON p.id = rp.permission_id
	 ORDER BY p.id`

	permRows, err := r.db.QueryContext(ctx, permQuery)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer permRows.Close()

	byRole := make(map[int64][]Permission)
	for permRows.Next() {
		var roleID int64
		var perm Permission
		if err := permRows.Scan(&roleID, &perm.ID, &perm.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		byRole[roleID] = append(byRole[roleID], perm)
	}
	if err := permRows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	for i := range roles {
		roles[i].Permissions = byRole[roles[i].ID]
	}
	return roles, nil
}

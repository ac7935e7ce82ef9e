package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sabgaby/integration-hub/internal/domain"
	domaingoogle "github.com/sabgaby/integration-hub/internal/domain/google"
)

// Compile-time interface assertions.
var (
	_ CredentialStore  = (*PostgresCredentialRepo)(nil)
	_ SharedDriveStore = (*PostgresSharedDriveRepo)(nil)
	_ LinkStore        = (*PostgresLinkRepo)(nil)
)

// pgInsufficientPrivilege is the SQLSTATE raised when row-level security
// blocks the document-scoped write path.
const pgInsufficientPrivilege = "42501"

// documentRole is the restricted role the permission-checked write path
// assumes; user rows are protected by row-level security under it.
const documentRole = "integration_app"

// credentialDB is the slice of pgxpool.Pool the credential repo touches.
type credentialDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCredentialRepo stores per-user refresh tokens on the user account
// row. It keeps both the unified workspace columns and the legacy single-
// service columns for backward compatibility.
type PostgresCredentialRepo struct {
	pool          credentialDB
	preferPrimary bool
	logger        *zap.Logger
}

// NewPostgresCredentialRepo builds the repo. preferPrimary selects which
// token column is written and read first; it reflects whether the primary
// integration family is enabled.
func NewPostgresCredentialRepo(pool *pgxpool.Pool, preferPrimary bool, logger *zap.Logger) *PostgresCredentialRepo {
	if logger == nil {
		logger = zap.L()
	}
	return &PostgresCredentialRepo{pool: pool, preferPrimary: preferPrimary, logger: logger}
}

func (r *PostgresCredentialRepo) columns() (tokenCol, statusCol string) {
	if r.preferPrimary {
		return "google_workspace_refresh_token", "google_workspace_status"
	}
	return "gdrive_refresh_token", "gdrive_authorization_status"
}

func (r *PostgresCredentialRepo) fallbackColumns() (tokenCol, statusCol string) {
	if r.preferPrimary {
		return "gdrive_refresh_token", "gdrive_authorization_status"
	}
	return "google_workspace_refresh_token", "google_workspace_status"
}

// Save persists the refresh token and marks the user Connected. Token
// persistence is a system-level operation: when the permission-checked
// document path is rejected, it falls back to a direct column write that
// bypasses the permission layer.
func (r *PostgresCredentialRepo) Save(ctx context.Context, user, refreshToken string) error {
	err := r.saveViaDocument(ctx, user, refreshToken, domaingoogle.StatusConnected)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domaingoogle.ErrPermissionDenied) {
		return err
	}

	r.logger.Warn("permission denied saving user credential, using direct write",
		zap.String("user", user))
	return r.setColumnsDirect(ctx, user, refreshToken, domaingoogle.StatusConnected)
}

// saveViaDocument updates through the restricted document role so the host's
// row-level permission rules apply.
func (r *PostgresCredentialRepo) saveViaDocument(ctx context.Context, user, refreshToken string, status domaingoogle.ConnectionStatus) error {
	tokenCol, statusCol := r.columns()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin credential save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SET LOCAL ROLE "+documentRole); err != nil {
		if insufficientPrivilege(err) {
			return fmt.Errorf("%w: assume document role: %v", domaingoogle.ErrPermissionDenied, err)
		}
		return fmt.Errorf("assume document role: %w", err)
	}

	query := fmt.Sprintf(
		`UPDATE users SET %s = $1, %s = $2, modified_at = now() WHERE name = $3`,
		tokenCol, statusCol,
	)
	tag, err := tx.Exec(ctx, query, refreshToken, string(status), user)
	if err != nil {
		if insufficientPrivilege(err) {
			return fmt.Errorf("%w: %v", domaingoogle.ErrPermissionDenied, err)
		}
		return fmt.Errorf("save credential: %w", err)
	}
	// Zero rows under the restricted role means either the row is filtered
	// by row-level security or the user does not exist; the direct write
	// tells the two apart.
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s not visible under %s", domaingoogle.ErrPermissionDenied, user, documentRole)
	}
	return tx.Commit(ctx)
}

func insufficientPrivilege(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInsufficientPrivilege
}

// setColumnsDirect writes the columns on the pool's owning connection,
// skipping the restricted role and leaving the document's modified timestamp
// untouched.
func (r *PostgresCredentialRepo) setColumnsDirect(ctx context.Context, user, refreshToken string, status domaingoogle.ConnectionStatus) error {
	tokenCol, statusCol := r.columns()
	query := fmt.Sprintf(`UPDATE users SET %s = $1, %s = $2 WHERE name = $3`, tokenCol, statusCol)
	tag, err := r.pool.Exec(ctx, query, refreshToken, string(status), user)
	if err != nil {
		return fmt.Errorf("direct credential write: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("direct credential write: user %s not found", user)
	}
	return nil
}

// Get returns the stored refresh token, preferring the configured family's
// column and falling back to the other for installations predating the
// unified integration. Absent tokens return "".
func (r *PostgresCredentialRepo) Get(ctx context.Context, user string) (string, error) {
	tokenCol, _ := r.columns()
	fallbackCol, _ := r.fallbackColumns()

	query := fmt.Sprintf(
		`SELECT COALESCE(%s, ''), COALESCE(%s, '') FROM users WHERE name = $1`,
		tokenCol, fallbackCol,
	)
	var preferred, fallback string
	err := r.pool.QueryRow(ctx, query, user).Scan(&preferred, &fallback)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get credential: %w", err)
	}
	if preferred != "" {
		return preferred, nil
	}
	return fallback, nil
}

// Clear wipes both token columns and marks the user disconnected.
func (r *PostgresCredentialRepo) Clear(ctx context.Context, user string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET google_workspace_refresh_token = '',
		     google_workspace_status = $1,
		     gdrive_refresh_token = '',
		     gdrive_authorization_status = $1
		 WHERE name = $2`,
		string(domaingoogle.StatusNotConnected), user,
	)
	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// Status returns the stored connection status, degrading to NotConnected for
// unknown users or empty columns.
func (r *PostgresCredentialRepo) Status(ctx context.Context, user string) (domaingoogle.ConnectionStatus, error) {
	_, statusCol := r.columns()
	query := fmt.Sprintf(`SELECT COALESCE(%s, '') FROM users WHERE name = $1`, statusCol)

	var status string
	err := r.pool.QueryRow(ctx, query, user).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domaingoogle.StatusNotConnected, nil
		}
		return domaingoogle.StatusNotConnected, fmt.Errorf("get credential status: %w", err)
	}
	if status == string(domaingoogle.StatusConnected) {
		return domaingoogle.StatusConnected, nil
	}
	return domaingoogle.StatusNotConnected, nil
}

// PostgresSharedDriveRepo persists discovered shared drives.
type PostgresSharedDriveRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresSharedDriveRepo(pool *pgxpool.Pool) *PostgresSharedDriveRepo {
	return &PostgresSharedDriveRepo{pool: pool}
}

func (r *PostgresSharedDriveRepo) List(ctx context.Context) ([]domaingoogle.SharedDrive, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT drive_id, drive_name, enabled, created_at FROM shared_drives ORDER BY drive_name`)
	if err != nil {
		return nil, fmt.Errorf("list shared drives: %w", err)
	}
	defer rows.Close()

	var drives []domaingoogle.SharedDrive
	for rows.Next() {
		var d domaingoogle.SharedDrive
		if err := rows.Scan(&d.DriveID, &d.Name, &d.Enabled, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan shared drive: %w", err)
		}
		drives = append(drives, d)
	}
	return drives, rows.Err()
}

func (r *PostgresSharedDriveRepo) Append(ctx context.Context, drives []domaingoogle.SharedDrive) (int, error) {
	added := 0
	for _, d := range drives {
		tag, err := r.pool.Exec(ctx,
			`INSERT INTO shared_drives (drive_id, drive_name, enabled, created_at)
			 VALUES ($1, $2, true, $3)
			 ON CONFLICT (drive_id) DO NOTHING`,
			d.DriveID, d.Name, time.Now().UTC(),
		)
		if err != nil {
			return added, fmt.Errorf("append shared drive: %w", err)
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}

// PostgresLinkRepo persists smart links.
type PostgresLinkRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresLinkRepo(pool *pgxpool.Pool) *PostgresLinkRepo {
	return &PostgresLinkRepo{pool: pool}
}

func (r *PostgresLinkRepo) Create(ctx context.Context, link domain.SmartLink) (domain.SmartLink, error) {
	link.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO smart_links
		 (id, doctype, docname, file_id, file_name, file_type, mime_type, file_size,
		  web_view_link, icon_link, linked_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		link.ID, link.Doctype, link.Docname, link.FileID, link.FileName, link.FileType,
		link.MimeType, link.FileSize, link.WebViewLink, link.IconLink, link.LinkedBy, link.CreatedAt,
	)
	if err != nil {
		return domain.SmartLink{}, fmt.Errorf("create link: %w", err)
	}
	return link, nil
}

func (r *PostgresLinkRepo) Exists(ctx context.Context, doctype, docname, fileID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM smart_links WHERE doctype = $1 AND docname = $2 AND file_id = $3)`,
		doctype, docname, fileID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check link exists: %w", err)
	}
	return exists, nil
}

func (r *PostgresLinkRepo) ListByRecord(ctx context.Context, doctype, docname string) ([]domain.SmartLink, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, doctype, docname, file_id, file_name, file_type, mime_type, file_size,
		        web_view_link, icon_link, linked_by, created_at
		 FROM smart_links
		 WHERE doctype = $1 AND docname = $2
		 ORDER BY created_at`,
		doctype, docname,
	)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var links []domain.SmartLink
	for rows.Next() {
		var l domain.SmartLink
		if err := rows.Scan(&l.ID, &l.Doctype, &l.Docname, &l.FileID, &l.FileName, &l.FileType,
			&l.MimeType, &l.FileSize, &l.WebViewLink, &l.IconLink, &l.LinkedBy, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *PostgresLinkRepo) Delete(ctx context.Context, doctype, docname, fileID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM smart_links WHERE doctype = $1 AND docname = $2 AND file_id = $3`,
		doctype, docname, fileID,
	)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return nil
}

func (r *PostgresLinkRepo) UpdateFileMeta(ctx context.Context, id int64, fileName, mimeType string, fileSize int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE smart_links SET file_name = $1, mime_type = $2, file_size = $3 WHERE id = $4`,
		fileName, mimeType, fileSize, id,
	)
	if err != nil {
		return fmt.Errorf("update link metadata: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"time"

	"github.com/sabgaby/integration-hub/internal/domain"
	domaingoogle "github.com/sabgaby/integration-hub/internal/domain/google"
)

// StateStore is the short-TTL key-value store holding authorization state
// tokens. Consume must be atomic with respect to concurrent callbacks for the
// same key: at most one caller may receive the stored token.
type StateStore interface {
	SaveState(ctx context.Context, key, token string, ttl time.Duration) error
	ConsumeState(ctx context.Context, key string) (string, error)
}

// CredentialStore persists the per-user refresh token and connection status
// on the user account entity.
type CredentialStore interface {
	Save(ctx context.Context, user, refreshToken string) error
	Get(ctx context.Context, user string) (string, error)
	Clear(ctx context.Context, user string) error
	Status(ctx context.Context, user string) (domaingoogle.ConnectionStatus, error)
}

// SharedDriveStore keeps the shared drives discovered for configuration.
type SharedDriveStore interface {
	List(ctx context.Context) ([]domaingoogle.SharedDrive, error)
	// Append inserts drives not yet known, deduplicated by drive id, and
	// returns how many were added.
	Append(ctx context.Context, drives []domaingoogle.SharedDrive) (int, error)
}

// LinkStore persists record-to-Drive-file links.
type LinkStore interface {
	Create(ctx context.Context, link domain.SmartLink) (domain.SmartLink, error)
	Exists(ctx context.Context, doctype, docname, fileID string) (bool, error)
	ListByRecord(ctx context.Context, doctype, docname string) ([]domain.SmartLink, error)
	Delete(ctx context.Context, doctype, docname, fileID string) error
	UpdateFileMeta(ctx context.Context, id int64, fileName, mimeType string, fileSize int64) error
}

package drive

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	driveapi "google.golang.org/api/drive/v3"

	"github.com/sabgaby/integration-hub/internal/domain"
	domaingoogle "github.com/sabgaby/integration-hub/internal/domain/google"
	googleint "github.com/sabgaby/integration-hub/internal/google"
)

// Service wraps the Drive API with per-user authorization. Every outbound
// call runs through the retry invoker.
type Service struct {
	sessions *googleint.SessionBuilder
	invoker  *googleint.Invoker
	resolver *googleint.Resolver
	logger   *zap.Logger
}

// NewService wires the Drive service.
func NewService(sessions *googleint.SessionBuilder, invoker *googleint.Invoker, resolver *googleint.Resolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.L()
	}
	return &Service{sessions: sessions, invoker: invoker, resolver: resolver, logger: logger}
}

func (s *Service) client(ctx context.Context, user string) (*driveapi.Service, error) {
	if !s.resolver.DriveEnabled() {
		return nil, fmt.Errorf("%w: drive is not enabled", domaingoogle.ErrConfiguration)
	}
	sess, err := s.sessions.Build(ctx, user, domaingoogle.ScopeDrive)
	if err != nil {
		return nil, err
	}
	return sess.Drive(ctx)
}

// GetFileMetadata fetches metadata for a file or folder, including items on
// shared drives.
func (s *Service) GetFileMetadata(ctx context.Context, user, fileID string) (*domain.DriveFile, error) {
	client, err := s.client(ctx, user)
	if err != nil {
		return nil, err
	}

	var file *driveapi.File
	err = s.invoker.Invoke(ctx, "drive.files.get", func() error {
		file, err = client.Files.Get(fileID).
			SupportsAllDrives(true).
			Fields("id, name, mimeType, size, webViewLink, iconLink, thumbnailLink, driveId").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	return &domain.DriveFile{
		FileID:        file.Id,
		FileName:      file.Name,
		MimeType:      file.MimeType,
		FileType:      FileTypeFromMime(file.MimeType),
		FileSize:      file.Size,
		WebViewLink:   file.WebViewLink,
		IconLink:      file.IconLink,
		ThumbnailLink: file.ThumbnailLink,
		DriveID:       file.DriveId,
	}, nil
}

// ListSharedDrives lists every shared drive the user can see.
func (s *Service) ListSharedDrives(ctx context.Context, user string) ([]domaingoogle.SharedDrive, error) {
	client, err := s.client(ctx, user)
	if err != nil {
		return nil, err
	}

	var drives []domaingoogle.SharedDrive
	pageToken := ""
	for {
		var page *driveapi.DriveList
		err = s.invoker.Invoke(ctx, "drive.drives.list", func() error {
			call := client.Drives.List().
				PageSize(100).
				Fields("nextPageToken, drives(id, name)").
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			page, err = call.Do()
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, d := range page.Drives {
			drives = append(drives, domaingoogle.SharedDrive{DriveID: d.Id, Name: d.Name})
		}
		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return drives, nil
}

// AccessToken returns a live access token for the user, refreshed if needed.
// The front-end Drive picker needs it directly.
func (s *Service) AccessToken(ctx context.Context, user string) (string, error) {
	if !s.resolver.DriveEnabled() {
		return "", fmt.Errorf("%w: drive is not enabled", domaingoogle.ErrConfiguration)
	}
	sess, err := s.sessions.Build(ctx, user, domaingoogle.ScopeDrive)
	if err != nil {
		return "", err
	}
	return sess.AccessToken()
}

// FileTypeFromMime maps a MIME type to the simplified type shown in link
// lists.
func FileTypeFromMime(mimeType string) string {
	switch mimeType {
	case "application/vnd.google-apps.folder":
		return "Folder"
	case "application/vnd.google-apps.document":
		return "Document"
	case "application/vnd.google-apps.spreadsheet":
		return "Spreadsheet"
	case "application/vnd.google-apps.presentation":
		return "Presentation"
	case "application/pdf":
		return "PDF"
	}
	if strings.HasPrefix(mimeType, "image/") {
		return "Image"
	}
	return "File"
}

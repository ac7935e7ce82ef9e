package links

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/sabgaby/integration-hub/internal/domain"
	"github.com/sabgaby/integration-hub/internal/repository"
	"github.com/sabgaby/integration-hub/internal/service/links/urlparse"
)

// MetadataFetcher reads Drive file metadata as a given user. The drive
// service satisfies it; tests substitute a fake.
type MetadataFetcher interface {
	GetFileMetadata(ctx context.Context, user, fileID string) (*domain.DriveFile, error)
}

var (
	// ErrNotDriveURL is returned when the pasted URL is not a recognised
	// Google Drive link.
	ErrNotDriveURL = errors.New("links: not a google drive url")
	// ErrAlreadyLinked is returned when the file is already attached to the
	// record.
	ErrAlreadyLinked = errors.New("links: file already linked")
)

// BatchResult reports the per-URL outcome of a batch attach.
type BatchResult struct {
	URL   string            `json:"url"`
	Link  *domain.SmartLink `json:"link,omitempty"`
	Error string            `json:"error,omitempty"`
}

// Service attaches Drive files to business records and keeps the cached file
// metadata fresh.
type Service struct {
	drive  MetadataFetcher
	store  repository.LinkStore
	node   *snowflake.Node
	logger *zap.Logger
}

func NewService(driveSvc MetadataFetcher, store repository.LinkStore, node *snowflake.Node, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.L()
	}
	return &Service{drive: driveSvc, store: store, node: node, logger: logger}
}

// AddLink parses url, fetches the file's metadata as user, and attaches it to
// the (doctype, docname) record.
func (s *Service) AddLink(ctx context.Context, user, doctype, docname, url string) (*domain.SmartLink, error) {
	fileID := urlparse.ExtractFileID(url)
	if fileID == "" {
		return nil, ErrNotDriveURL
	}
	return s.AddLinkByFileID(ctx, user, doctype, docname, fileID)
}

// AddLinkByFileID attaches a file already identified by id, e.g. from the
// Drive picker.
func (s *Service) AddLinkByFileID(ctx context.Context, user, doctype, docname, fileID string) (*domain.SmartLink, error) {
	exists, err := s.store.Exists(ctx, doctype, docname, fileID)
	if err != nil {
		return nil, fmt.Errorf("check existing link: %w", err)
	}
	if exists {
		return nil, ErrAlreadyLinked
	}

	meta, err := s.drive.GetFileMetadata(ctx, user, fileID)
	if err != nil {
		return nil, err
	}

	link := domain.SmartLink{
		ID:          s.node.Generate().Int64(),
		Doctype:     doctype,
		Docname:     docname,
		FileID:      meta.FileID,
		FileName:    meta.FileName,
		FileType:    meta.FileType,
		MimeType:    meta.MimeType,
		FileSize:    meta.FileSize,
		WebViewLink: meta.WebViewLink,
		IconLink:    meta.IconLink,
		LinkedBy:    user,
		CreatedAt:   time.Now().UTC(),
	}

	created, err := s.store.Create(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}
	s.logger.Info("drive file linked",
		zap.String("doctype", doctype),
		zap.String("docname", docname),
		zap.String("file_id", fileID),
		zap.String("user", user),
	)
	return &created, nil
}

// AddLinksBatch attaches every URL in urls, collecting per-URL outcomes
// instead of failing the whole batch on the first bad entry.
func (s *Service) AddLinksBatch(ctx context.Context, user, doctype, docname string, urls []string) []BatchResult {
	results := make([]BatchResult, 0, len(urls))
	for _, url := range urls {
		link, err := s.AddLink(ctx, user, doctype, docname, url)
		res := BatchResult{URL: url, Link: link}
		if err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// RemoveLink detaches fileID from the record. Removing a link that does not
// exist is not an error.
func (s *Service) RemoveLink(ctx context.Context, doctype, docname, fileID string) error {
	return s.store.Delete(ctx, doctype, docname, fileID)
}

// ListByRecord returns the files attached to (doctype, docname).
func (s *Service) ListByRecord(ctx context.Context, doctype, docname string) ([]domain.SmartLink, error) {
	return s.store.ListByRecord(ctx, doctype, docname)
}

// RefreshFileNames re-reads the Drive metadata for every link on the record
// and updates links whose name, type, or size changed upstream. It returns
// how many links were updated. Files the user can no longer read are left
// untouched.
func (s *Service) RefreshFileNames(ctx context.Context, user, doctype, docname string) (int, error) {
	links, err := s.store.ListByRecord(ctx, doctype, docname)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, link := range links {
		meta, err := s.drive.GetFileMetadata(ctx, user, link.FileID)
		if err != nil {
			s.logger.Warn("skip refresh for unreadable file",
				zap.String("file_id", link.FileID),
				zap.Error(err),
			)
			continue
		}
		if meta.FileName == link.FileName && meta.MimeType == link.MimeType && meta.FileSize == link.FileSize {
			continue
		}
		if err := s.store.UpdateFileMeta(ctx, link.ID, meta.FileName, meta.MimeType, meta.FileSize); err != nil {
			return updated, fmt.Errorf("update link %d: %w", link.ID, err)
		}
		updated++
	}
	return updated, nil
}

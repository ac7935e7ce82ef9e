package links

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sabgaby/integration-hub/internal/domain"
	"github.com/sabgaby/integration-hub/internal/repository"
)

func TestAddLink(t *testing.T) {
	h := newLinksTestHarness(t)
	h.fetcher.files["1AbC"] = &domain.DriveFile{
		FileID:      "1AbC",
		FileName:    "Quarterly Report.pdf",
		MimeType:    "application/pdf",
		FileType:    "PDF",
		FileSize:    2048,
		WebViewLink: "https://drive.google.com/file/d/1AbC/view",
	}

	link, err := h.service.AddLink(context.Background(), "user@example.com", "Project", "PROJ-001",
		"https://drive.google.com/file/d/1AbC/view?usp=sharing")
	require.NoError(t, err)
	require.NotZero(t, link.ID)
	require.Equal(t, "1AbC", link.FileID)
	require.Equal(t, "Quarterly Report.pdf", link.FileName)
	require.Equal(t, "user@example.com", link.LinkedBy)

	stored, err := h.service.ListByRecord(context.Background(), "Project", "PROJ-001")
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestAddLink_NotDriveURL(t *testing.T) {
	h := newLinksTestHarness(t)

	_, err := h.service.AddLink(context.Background(), "user@example.com", "Project", "PROJ-001",
		"https://dropbox.com/s/abc/file.pdf")
	require.ErrorIs(t, err, ErrNotDriveURL)
}

func TestAddLink_Duplicate(t *testing.T) {
	h := newLinksTestHarness(t)
	h.fetcher.files["1AbC"] = &domain.DriveFile{FileID: "1AbC", FileName: "doc"}

	_, err := h.service.AddLinkByFileID(context.Background(), "user@example.com", "Project", "PROJ-001", "1AbC")
	require.NoError(t, err)

	_, err = h.service.AddLinkByFileID(context.Background(), "user@example.com", "Project", "PROJ-001", "1AbC")
	require.ErrorIs(t, err, ErrAlreadyLinked)
}

func TestAddLink_UnreadableFile(t *testing.T) {
	h := newLinksTestHarness(t)

	_, err := h.service.AddLinkByFileID(context.Background(), "user@example.com", "Project", "PROJ-001", "missing")
	require.Error(t, err)

	stored, err := h.service.ListByRecord(context.Background(), "Project", "PROJ-001")
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestAddLinksBatch(t *testing.T) {
	h := newLinksTestHarness(t)
	h.fetcher.files["1AbC"] = &domain.DriveFile{FileID: "1AbC", FileName: "a"}
	h.fetcher.files["2DeF"] = &domain.DriveFile{FileID: "2DeF", FileName: "b"}

	results := h.service.AddLinksBatch(context.Background(), "user@example.com", "Project", "PROJ-001", []string{
		"https://drive.google.com/file/d/1AbC/view",
		"https://example.com/not-drive",
		"https://drive.google.com/file/d/2DeF/view",
	})
	require.Len(t, results, 3)
	require.NotNil(t, results[0].Link)
	require.Empty(t, results[0].Error)
	require.Nil(t, results[1].Link)
	require.NotEmpty(t, results[1].Error)
	require.NotNil(t, results[2].Link)
}

func TestRemoveLink(t *testing.T) {
	h := newLinksTestHarness(t)
	h.fetcher.files["1AbC"] = &domain.DriveFile{FileID: "1AbC", FileName: "doc"}

	_, err := h.service.AddLinkByFileID(context.Background(), "user@example.com", "Project", "PROJ-001", "1AbC")
	require.NoError(t, err)

	require.NoError(t, h.service.RemoveLink(context.Background(), "Project", "PROJ-001", "1AbC"))
	require.NoError(t, h.service.RemoveLink(context.Background(), "Project", "PROJ-001", "1AbC"))

	stored, err := h.service.ListByRecord(context.Background(), "Project", "PROJ-001")
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestRefreshFileNames(t *testing.T) {
	h := newLinksTestHarness(t)
	h.fetcher.files["1AbC"] = &domain.DriveFile{FileID: "1AbC", FileName: "old name", MimeType: "application/pdf"}
	h.fetcher.files["2DeF"] = &domain.DriveFile{FileID: "2DeF", FileName: "stable", MimeType: "application/pdf"}

	ctx := context.Background()
	_, err := h.service.AddLinkByFileID(ctx, "user@example.com", "Project", "PROJ-001", "1AbC")
	require.NoError(t, err)
	_, err = h.service.AddLinkByFileID(ctx, "user@example.com", "Project", "PROJ-001", "2DeF")
	require.NoError(t, err)

	h.fetcher.files["1AbC"].FileName = "renamed upstream"

	updated, err := h.service.RefreshFileNames(ctx, "user@example.com", "Project", "PROJ-001")
	require.NoError(t, err)
	require.Equal(t, 1, updated)

	stored, err := h.service.ListByRecord(ctx, "Project", "PROJ-001")
	require.NoError(t, err)
	names := map[string]string{}
	for _, l := range stored {
		names[l.FileID] = l.FileName
	}
	require.Equal(t, "renamed upstream", names["1AbC"])
	require.Equal(t, "stable", names["2DeF"])
}

func TestRefreshFileNames_SkipsUnreadable(t *testing.T) {
	h := newLinksTestHarness(t)
	h.fetcher.files["1AbC"] = &domain.DriveFile{FileID: "1AbC", FileName: "doc"}

	ctx := context.Background()
	_, err := h.service.AddLinkByFileID(ctx, "user@example.com", "Project", "PROJ-001", "1AbC")
	require.NoError(t, err)

	delete(h.fetcher.files, "1AbC")

	updated, err := h.service.RefreshFileNames(ctx, "user@example.com", "Project", "PROJ-001")
	require.NoError(t, err)
	require.Zero(t, updated)
}

// ---- Test harness and fakes ----

type linksTestHarness struct {
	service *Service
	fetcher *fakeFetcher
	store   *memoryLinkStore
}

func newLinksTestHarness(t *testing.T) *linksTestHarness {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fetcher := &fakeFetcher{files: map[string]*domain.DriveFile{}}
	store := &memoryLinkStore{}
	return &linksTestHarness{
		service: NewService(fetcher, store, node, zap.NewNop()),
		fetcher: fetcher,
		store:   store,
	}
}

type fakeFetcher struct {
	files map[string]*domain.DriveFile
}

func (f *fakeFetcher) GetFileMetadata(_ context.Context, _, fileID string) (*domain.DriveFile, error) {
	file, ok := f.files[fileID]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", fileID)
	}
	copied := *file
	return &copied, nil
}

type memoryLinkStore struct {
	links []domain.SmartLink
}

var _ repository.LinkStore = (*memoryLinkStore)(nil)

func (m *memoryLinkStore) Create(_ context.Context, link domain.SmartLink) (domain.SmartLink, error) {
	m.links = append(m.links, link)
	return link, nil
}

func (m *memoryLinkStore) Exists(_ context.Context, doctype, docname, fileID string) (bool, error) {
	for _, l := range m.links {
		if l.Doctype == doctype && l.Docname == docname && l.FileID == fileID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryLinkStore) ListByRecord(_ context.Context, doctype, docname string) ([]domain.SmartLink, error) {
	var out []domain.SmartLink
	for _, l := range m.links {
		if l.Doctype == doctype && l.Docname == docname {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memoryLinkStore) Delete(_ context.Context, doctype, docname, fileID string) error {
	kept := m.links[:0]
	for _, l := range m.links {
		if l.Doctype == doctype && l.Docname == docname && l.FileID == fileID {
			continue
		}
		kept = append(kept, l)
	}
	m.links = kept
	return nil
}

func (m *memoryLinkStore) UpdateFileMeta(_ context.Context, id int64, fileName, mimeType string, fileSize int64) error {
	for i := range m.links {
		if m.links[i].ID == id {
			m.links[i].FileName = fileName
			m.links[i].MimeType = mimeType
			m.links[i].FileSize = fileSize
			return nil
		}
	}
	return fmt.Errorf("link not found: %d", id)
}

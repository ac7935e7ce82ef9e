package urlparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractFileID(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want string
	}{
		{"file link", "https://drive.google.com/file/d/1AbC_d-EfG/view?usp=sharing", "1AbC_d-EfG"},
		{"open link", "https://drive.google.com/open?id=1AbC_d-EfG", "1AbC_d-EfG"},
		{"direct download", "https://drive.google.com/uc?export=download&id=1AbC_d-EfG", "1AbC_d-EfG"},
		{"folder", "https://drive.google.com/drive/folders/1FolderID123", "1FolderID123"},
		{"folder with account", "https://drive.google.com/drive/u/1/folders/1FolderID123", "1FolderID123"},
		{"corp folder", "https://drive.google.com/corp/drive/folders/1FolderID123", "1FolderID123"},
		{"document", "https://docs.google.com/document/d/1DocID/edit", "1DocID"},
		{"document with account", "https://docs.google.com/document/u/0/d/1DocID/edit", "1DocID"},
		{"spreadsheet", "https://docs.google.com/spreadsheets/d/1SheetID/edit#gid=0", "1SheetID"},
		{"presentation", "https://docs.google.com/presentation/d/1SlideID/edit", "1SlideID"},
		{"form", "https://docs.google.com/forms/d/1FormID/viewform", "1FormID"},
		{"drawing", "https://docs.google.com/drawings/d/1DrawID/edit", "1DrawID"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ExtractFileID(tc.url))
		})
	}
}

func TestExtractFileID_NotDrive(t *testing.T) {
	require.Empty(t, ExtractFileID("https://example.com/file/d/123"))
	require.Empty(t, ExtractFileID("https://dropbox.com/s/abc/file.pdf"))
	require.Empty(t, ExtractFileID("not a url"))
	require.Empty(t, ExtractFileID(""))
}

func TestIsDriveURL(t *testing.T) {
	require.True(t, IsDriveURL("https://drive.google.com/file/d/1AbC/view"))
	require.False(t, IsDriveURL("https://example.com"))
}

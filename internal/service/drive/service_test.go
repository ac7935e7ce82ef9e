package drive

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileTypeFromMime(t *testing.T) {
	cases := map[string]string{
		"application/vnd.google-apps.folder":       "Folder",
		"application/vnd.google-apps.document":     "Document",
		"application/vnd.google-apps.spreadsheet":  "Spreadsheet",
		"application/vnd.google-apps.presentation": "Presentation",
		"application/pdf":                          "PDF",
		"image/png":                                "Image",
		"image/jpeg":                               "Image",
		"text/csv":                                 "File",
		"application/zip":                          "File",
		"":                                         "File",
	}

	for mime, want := range cases {
		require.Equal(t, want, FileTypeFromMime(mime), "mime %q", mime)
	}
}

// Package urlparse extracts Google Drive file ids from the URL shapes users
// paste: file links, folder links, Docs/Sheets/Slides/Forms/Drawings links,
// direct-download links, and the /u/<n>/ and /corp/ workspace variants.
package urlparse

import "regexp"

// Order matters: more specific patterns come first.
var patterns = []*regexp.Regexp{
	// Files
	regexp.MustCompile(`drive\.google\.com/file/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`drive\.google\.com/open\?id=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`drive\.google\.com/uc\?.*id=([a-zA-Z0-9_-]+)`),
	// Folders
	regexp.MustCompile(`drive\.google\.com/drive/folders/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`drive\.google\.com/drive/u/\d+/folders/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`drive\.google\.com/corp/drive/folders/([a-zA-Z0-9_-]+)`),
	// Docs
	regexp.MustCompile(`docs\.google\.com/document/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`docs\.google\.com/document/u/\d+/d/([a-zA-Z0-9_-]+)`),
	// Sheets
	regexp.MustCompile(`docs\.google\.com/spreadsheets/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`docs\.google\.com/spreadsheets/u/\d+/d/([a-zA-Z0-9_-]+)`),
	// Slides
	regexp.MustCompile(`docs\.google\.com/presentation/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`docs\.google\.com/presentation/u/\d+/d/([a-zA-Z0-9_-]+)`),
	// Forms
	regexp.MustCompile(`docs\.google\.com/forms/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`docs\.google\.com/forms/u/\d+/d/([a-zA-Z0-9_-]+)`),
	// Drawings
	regexp.MustCompile(`docs\.google\.com/drawings/d/([a-zA-Z0-9_-]+)`),
}

// ExtractFileID returns the Drive file id embedded in url, or "" when url is
// not a recognised Drive URL.
func ExtractFileID(url string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// IsDriveURL reports whether url points at a Google Drive resource.
func IsDriveURL(url string) bool {
	return ExtractFileID(url) != ""
}

package domain

import "time"

// SmartLink attaches a Google Drive file to a business record.
type SmartLink struct {
	ID          int64     `json:"id,string"`
	Doctype     string    `json:"doctype"`
	Docname     string    `json:"docname"`
	FileID      string    `json:"file_id"`
	FileName    string    `json:"file_name"`
	FileType    string    `json:"file_type"`
	MimeType    string    `json:"mime_type"`
	FileSize    int64     `json:"file_size"`
	WebViewLink string    `json:"web_view_link"`
	IconLink    string    `json:"icon_link,omitempty"`
	LinkedBy    string    `json:"linked_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// DriveFile is the metadata subset fetched for a linked file.
type DriveFile struct {
	FileID        string `json:"file_id"`
	FileName      string `json:"file_name"`
	MimeType      string `json:"mime_type"`
	FileType      string `json:"file_type"`
	FileSize      int64  `json:"file_size"`
	WebViewLink   string `json:"web_view_link"`
	IconLink      string `json:"icon_link"`
	ThumbnailLink string `json:"thumbnail_link"`
	DriveID       string `json:"drive_id,omitempty"`
}

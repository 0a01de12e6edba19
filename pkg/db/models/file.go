package models

// Reserved coordinates of the draft area.
const (
	DraftComponent = "user"
	DraftFileArea  = "draft"
)

// File is the logical record of one stored file. Several records may share
// one ContentHash and therefore one physical blob.
type File struct {
	ID          uint   `gorm:"primaryKey"`
	ContentHash string `gorm:"type:text;not null;index:idx_files_content_hash"`
	PathHash    string `gorm:"type:text"`

	// Coordinates
	ContextID int64  `gorm:"not null;index:idx_files_coordinates,priority:1"`
	Component string `gorm:"type:text;not null;index:idx_files_coordinates,priority:2"`
	FileArea  string `gorm:"type:text;not null;index:idx_files_coordinates,priority:3"`
	ItemID    int64  `gorm:"not null;index:idx_files_coordinates,priority:4"`

	FilePath string  `gorm:"type:text;not null;default:'/'"`
	FileName string  `gorm:"type:text;not null"`
	UserID   *int64  `gorm:"index"`
	FileSize int64   `gorm:"not null;default:0"`
	MimeType *string `gorm:"type:text"`
	Status   int     `gorm:"not null;default:0"`

	// Descriptive metadata, not enforced
	Author  *string `gorm:"type:text"`
	License *string `gorm:"type:text"`
	Source  *string `gorm:"type:text"`

	// Epoch seconds
	TimeCreated  int64 `gorm:"not null;index:idx_files_time_created"`
	TimeModified int64 `gorm:"not null"`

	SortOrder       int   `gorm:"not null;default:0"`
	ReferenceFileID *uint `gorm:"index:idx_files_reference"`
}

func (File) TableName() string {
	return "files"
}

// IsDraft reports whether the record lives in the draft area.
func (f *File) IsDraft() bool {
	return f.Component == DraftComponent && f.FileArea == DraftFileArea
}

// IsPlaceholder reports whether the record has no backing blob.
func (f *File) IsPlaceholder() bool {
	return f.ContentHash == ""
}

// Mime returns the stored MIME type or an empty string if unknown.
func (f *File) Mime() string {
	if f.MimeType == nil {
		return ""
	}
	return *f.MimeType
}

// StringPtr returns nil for empty strings, used for optional columns.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

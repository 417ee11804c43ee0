package gallery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PhotoUploading = "uploading"
	PhotoUploaded  = "uploaded"
)

type Gallery struct {
	ID                 string    `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID          string    `gorm:"type:uuid;not null;uniqueIndex" json:"sessionId"`
	Name               string    `gorm:"not null" json:"name"`
	Slug               string    `gorm:"not null;uniqueIndex" json:"slug"`
	AccessCode         string    `gorm:"type:varchar(16);not null" json:"accessCode"`
	PasswordHash       *string   `json:"-"`
	PasswordProtected  bool      `gorm:"not null;default:false" json:"passwordProtected"`
	ExpiresAt          time.Time `gorm:"not null" json:"expiresAt"`
	PublicShareEnabled bool      `gorm:"not null;default:false" json:"publicShareEnabled"`
	DownloadEnabled    bool      `gorm:"not null;default:true" json:"downloadEnabled"`
	SocialShareEnabled bool      `gorm:"not null;default:true" json:"socialShareEnabled"`
	WatermarkEnabled   bool      `gorm:"not null;default:true" json:"watermarkEnabled"`
	ViewCount          int64     `gorm:"not null;default:0" json:"viewCount"`
	DownloadCount      int64     `gorm:"not null;default:0" json:"downloadCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Photo struct {
	ID            string     `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID     string     `gorm:"type:uuid;not null;index" json:"sessionId"`
	FileName      string     `gorm:"not null" json:"fileName"`
	ContentType   string     `gorm:"not null" json:"contentType"`
	FileSize      int64      `gorm:"not null" json:"fileSize"`
	OriginalPath  string     `gorm:"not null" json:"originalPath"`
	LargePath     *string    `json:"largePath,omitempty"`
	MediumPath    *string    `json:"mediumPath,omitempty"`
	SmallPath     *string    `json:"smallPath,omitempty"`
	ThumbnailPath *string    `json:"thumbnailPath,omitempty"`
	Status        string     `gorm:"type:varchar(20);not null;default:'uploading';index" json:"status"`
	UploadedBy    uint       `gorm:"not null" json:"uploadedBy"`
	ProcessedAt   *time.Time `json:"processedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (g *Gallery) BeforeCreate(*gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

func (p *Photo) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Paths returns the storage path of every rendition, falling back to the
// original where a derived size was never produced.
func (p Photo) Paths() PhotoPaths {
	pick := func(v *string) string {
		if v == nil || *v == "" {
			return p.OriginalPath
		}
		return *v
	}
	return PhotoPaths{
		Original:  p.OriginalPath,
		Large:     pick(p.LargePath),
		Medium:    pick(p.MediumPath),
		Small:     pick(p.SmallPath),
		Thumbnail: pick(p.ThumbnailPath),
	}
}

type PhotoPaths struct {
	Original  string
	Large     string
	Medium    string
	Small     string
	Thumbnail string
}

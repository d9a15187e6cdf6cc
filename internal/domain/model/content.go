package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Robot is a machine the team built for a season.
type Robot struct {
	ID          string    `gorm:"column:id;primaryKey;type:varchar(64)" json:"id"`
	Name        string    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Year        int       `gorm:"column:year;not null;index" json:"year"`
	Game        string    `gorm:"column:game;type:varchar(128)" json:"game,omitempty"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`
	ImageURL    string    `gorm:"column:image_url;type:varchar(512)" json:"image_url,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Robot) TableName() string { return "robots" }

func (r Robot) EntityID() string       { return r.ID }
func (r *Robot) SetEntityID(id string) { r.ID = id }

func (r *Robot) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: robot name is required", ErrInvalid)
	}
	if r.Year < 1992 || r.Year > 9999 {
		return fmt.Errorf("%w: robot year %d out of range", ErrInvalid, r.Year)
	}
	return nil
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// NewsPost is a markdown article shown under /news.
type NewsPost struct {
	ID          string    `gorm:"column:id;primaryKey;type:varchar(64)" json:"id"`
	Slug        string    `gorm:"column:slug;type:varchar(128);uniqueIndex;not null" json:"slug"`
	Title       string    `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Summary     string    `gorm:"column:summary;type:text" json:"summary,omitempty"`
	Body        string    `gorm:"column:body;type:text" json:"body"`
	PublishedAt time.Time `gorm:"column:published_at;index" json:"published_at"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (NewsPost) TableName() string { return "news_posts" }

func (n NewsPost) EntityID() string       { return n.ID }
func (n *NewsPost) SetEntityID(id string) { n.ID = id }

// Validate derives a slug from the title when none is given.
func (n *NewsPost) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if n.Slug == "" {
		n.Slug = Slugify(n.Title)
	}
	if !slugPattern.MatchString(n.Slug) {
		return fmt.Errorf("%w: bad slug %q", ErrInvalid, n.Slug)
	}
	if n.PublishedAt.IsZero() {
		n.PublishedAt = time.Now().UTC()
	}
	return nil
}

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Member is a student or mentor listed on the about page.
type Member struct {
	ID        string    `gorm:"column:id;primaryKey;type:varchar(64)" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Role      string    `gorm:"column:role;type:varchar(128)" json:"role,omitempty"`
	Bio       string    `gorm:"column:bio;type:text" json:"bio,omitempty"`
	PhotoURL  string    `gorm:"column:photo_url;type:varchar(512)" json:"photo_url,omitempty"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string { return "members" }

func (m Member) EntityID() string       { return m.ID }
func (m *Member) SetEntityID(id string) { m.ID = id }

func (m *Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: member name is required", ErrInvalid)
	}
	return nil
}

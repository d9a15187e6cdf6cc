// Package model defines the rows and value types shared by the team site.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// AwardSource tells where an AwardRecord came from.
type AwardSource string

const (
	// AwardSourceManual marks an award typed in through the admin panel.
	AwardSourceManual AwardSource = "manual"
	// AwardSourceImported marks an award harvested from a synced event.
	AwardSourceImported AwardSource = "imported"
)

// AwardRecord is one display-ready accolade.
type AwardRecord struct {
	ID          string      `json:"id"`
	Year        string      `json:"year"`
	Description string      `json:"description"`
	Source      AwardSource `json:"source"`
}

// ManualAchievement is an award entered directly by an operator.
type ManualAchievement struct {
	ID          string    `gorm:"column:id;primaryKey;type:varchar(64)" json:"id"`
	Year        string    `gorm:"column:year;type:varchar(8);not null;index" json:"year"`
	Description string    `gorm:"column:description;type:text;not null" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName maps the row to the achievements table.
func (ManualAchievement) TableName() string { return "achievements" }

func (a ManualAchievement) EntityID() string       { return a.ID }
func (a *ManualAchievement) SetEntityID(id string) { a.ID = id }

// Validate checks the fields an operator fills in.
func (a *ManualAchievement) Validate() error {
	a.Year = strings.TrimSpace(a.Year)
	if len(a.Year) != 4 {
		return fmt.Errorf("%w: year must have four digits, got %q", ErrInvalid, a.Year)
	}
	if _, err := strconv.Atoi(a.Year); err != nil {
		return fmt.Errorf("%w: year must be numeric, got %q", ErrInvalid, a.Year)
	}
	if strings.TrimSpace(a.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalid)
	}
	return nil
}

// AwardList is a nullable list of award names stored as a JSON column.
// A nil list means the results API reported no awards for the event.
type AwardList []string

// GormDataType tells gorm which column type to migrate to.
func (AwardList) GormDataType() string { return "jsonb" }

// Value stores nil as SQL NULL and anything else as a JSON array.
func (l AwardList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	raw, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw).Value()
}

// Scan reads a JSON array column; NULL and JSON null become a nil list.
func (l *AwardList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	var raw datatypes.JSON
	if err := raw.Scan(value); err != nil {
		return err
	}
	if len(raw) == 0 || string(raw) == "null" {
		*l = nil
		return nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return fmt.Errorf("scan award list: %w", err)
	}
	*l = names
	return nil
}

// Date is a calendar date stored as SQL date and encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: unparseable date %q", ErrInvalid, s)
	}
	return Date{Time: t.UTC()}, nil
}

func (d Date) String() string { return d.Format(dateLayout) }

func (Date) GormDataType() string { return "date" }

func (d Date) Value() (driver.Value, error) {
	return datatypes.Date(d.Time).Value()
}

func (d *Date) Scan(value any) error {
	var dd datatypes.Date
	if err := dd.Scan(value); err != nil {
		return err
	}
	d.Time = time.Time(dd)
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: date must be a string", ErrInvalid)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ImportedEvent is a competition the team attended, as synced from the results API.
type ImportedEvent struct {
	ID        string     `gorm:"column:id;primaryKey;type:varchar(64)" json:"id"`
	Name      string     `gorm:"column:name;type:varchar(255)" json:"name"`
	Location  string     `gorm:"column:location;type:varchar(255)" json:"location"`
	EventDate Date       `gorm:"column:event_date;not null;index" json:"event_date"`
	EndDate   *Date      `gorm:"column:end_date" json:"end_date,omitempty"`
	Website   string     `gorm:"column:website;type:varchar(512)" json:"website,omitempty"`
	Awards    AwardList  `gorm:"column:awards" json:"awards"`
	SyncedAt  *time.Time `gorm:"column:synced_at" json:"synced_at,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName maps the row to the events table.
func (ImportedEvent) TableName() string { return "events" }

func (e ImportedEvent) EntityID() string       { return e.ID }
func (e *ImportedEvent) SetEntityID(id string) { e.ID = id }

// Validate rejects events without a date.
func (e *ImportedEvent) Validate() error {
	if e.EventDate.IsZero() {
		return fmt.Errorf("%w: event_date is required", ErrInvalid)
	}
	if e.EndDate != nil && e.EndDate.Before(e.EventDate.Time) {
		return fmt.Errorf("%w: end_date is before event_date", ErrInvalid)
	}
	return nil
}

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SponsorTier is a named sponsorship level. Price is free text such as "$5,000+".
type SponsorTier struct {
	TierID    string    `gorm:"column:id;primaryKey;type:varchar(64)" json:"tier_id"`
	Name      string    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Price     string    `gorm:"column:price;type:varchar(64)" json:"price"`
	Perks     string    `gorm:"column:perks;type:text" json:"perks,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (SponsorTier) TableName() string { return "sponsor_tiers" }

func (t SponsorTier) EntityID() string       { return t.TierID }
func (t *SponsorTier) SetEntityID(id string) { t.TierID = id }

func (t *SponsorTier) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: tier name is required", ErrInvalid)
	}
	return nil
}

// Sponsor is an organisation that contributed to the team.
type Sponsor struct {
	ID        string          `gorm:"column:id;primaryKey;type:varchar(64)" json:"id"`
	Name      string          `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null;default:0" json:"amount"`
	LogoURL   string          `gorm:"column:logo_url;type:varchar(512)" json:"logo_url,omitempty"`
	Website   string          `gorm:"column:website;type:varchar(512)" json:"website,omitempty"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Sponsor) TableName() string { return "sponsors" }

func (s Sponsor) EntityID() string       { return s.ID }
func (s *Sponsor) SetEntityID(id string) { s.ID = id }

// Validate rejects unnamed sponsors and negative amounts.
func (s *Sponsor) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: sponsor name is required", ErrInvalid)
	}
	if s.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalid)
	}
	return nil
}

// TierGroup is one bucket on the sponsors page. Tier is nil for sponsors
// below every threshold.
type TierGroup struct {
	Tier     *SponsorTier `json:"tier"`
	Sponsors []Sponsor    `json:"sponsors"`
}

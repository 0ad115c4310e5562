package types

import "time"

// TechnologyCategory classifies an entry on a workspace radar.
type TechnologyCategory string

const (
	CategoryTechnique TechnologyCategory = "technique"
	CategoryTool      TechnologyCategory = "tool"
	CategoryPlatform  TechnologyCategory = "platform"
	CategoryFramework TechnologyCategory = "framework"
)

// TechnologyRing is the adoption stage of a published technology.
type TechnologyRing string

const (
	RingAdopt  TechnologyRing = "adopt"
	RingTrial  TechnologyRing = "trial"
	RingAssess TechnologyRing = "assess"
	RingHold   TechnologyRing = "hold"
)

// TechnologyStatus is the publication state of a technology.
type TechnologyStatus string

const (
	StatusDraft     TechnologyStatus = "draft"
	StatusPublished TechnologyStatus = "published"
)

// Technology is a workspace-scoped radar entry. Names are unique per
// workspace; a published entry must carry a ring.
type Technology struct {
	ID              string             `json:"id" db:"id"`
	WorkspaceID     string             `json:"workspace_id" db:"workspace_id"`
	Name            string             `json:"name" db:"name"`
	LogoURL         *string            `json:"logo_url" db:"logo_url"`
	Category        TechnologyCategory `json:"category" db:"category"`
	Description     string             `json:"description" db:"description"`
	Ring            *TechnologyRing    `json:"ring" db:"ring"`
	RingDescription *string            `json:"ring_description" db:"ring_description"`
	Status          TechnologyStatus   `json:"status" db:"status"`
	PublishedAt     *time.Time         `json:"published_at" db:"published_at"`
	CreatedAt       time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" db:"updated_at"`
}

// ValidCategory reports whether c is a known technology category.
func ValidCategory(c TechnologyCategory) bool {
	switch c {
	case CategoryTechnique, CategoryTool, CategoryPlatform, CategoryFramework:
		return true
	}
	return false
}

// ValidRing reports whether r is a known adoption ring.
func ValidRing(r TechnologyRing) bool {
	switch r {
	case RingAdopt, RingTrial, RingAssess, RingHold:
		return true
	}
	return false
}

package models

// CustomRule is a user-defined categorization rule layered on top of
// the built-in rule table. Patterns are regular expressions matched
// against the full description; keywords are case-insensitive
// substring matches. Higher priority beats the built-ins (default 5).
type CustomRule struct {
	Base
	Category    string   `gorm:"not null;index" json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Patterns    []string `gorm:"serializer:json" json:"patterns,omitempty"`
	Keywords    []string `gorm:"serializer:json" json:"keywords,omitempty"`
	Priority    int      `gorm:"not null;default:5" json:"priority"`
}

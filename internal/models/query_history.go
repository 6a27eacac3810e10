package models

// QueryHistory stores past natural-language queries so frequent ones
// can be favorited and replayed.
type QueryHistory struct {
	Base
	QueryText      string `gorm:"not null" json:"query_text"`
	QueryType      string `json:"query_type"`
	ResultsSummary string `json:"results_summary,omitempty"`
	Favorited      bool   `gorm:"default:false;index:idx_query_history_favorited" json:"favorited"`
}

// TableName overrides gorm's pluralization.
func (QueryHistory) TableName() string {
	return "query_history"
}

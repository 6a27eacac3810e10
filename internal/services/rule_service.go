package services

import (
	"gorm.io/gorm"

	"rufous/internal/categorize"
	apperrors "rufous/internal/errors"
	"rufous/internal/models"
	"rufous/internal/pagination"
)

// ruleService persists custom categorization rules and keeps the
// in-memory categorizer in sync with them.
type ruleService struct {
	db          *gorm.DB
	categorizer *categorize.Categorizer
}

// NewRuleService creates a new RuleServicer. Call LoadRules on the
// returned value at startup to register persisted rules; rules created
// afterwards register themselves.
func NewRuleService(db *gorm.DB, c *categorize.Categorizer) RuleServicer {
	return &ruleService{db: db, categorizer: c}
}

// LoadRules registers every persisted custom rule with the
// categorizer. Invalid persisted rules fail loading outright; they
// cannot be created through Create, so one indicates manual edits.
func (s *ruleService) LoadRules() error {
	var rules []models.CustomRule
	if err := s.db.Find(&rules).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, rule := range rules {
		if err := s.categorizer.AddCustomRule(rule.Category, rule.Subcategory, rule.Patterns, rule.Keywords, rule.Priority); err != nil {
			return apperrors.Wrap(apperrors.ErrRuleInvalid, err)
		}
	}
	return nil
}

// Create validates, persists, and registers a custom rule.
func (s *ruleService) Create(category, subcategory string, patterns, keywords []string, priority int) (*models.CustomRule, error) {
	if category == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	if priority == 0 {
		priority = 5
	}

	// Registering first also validates the patterns compile.
	if err := s.categorizer.AddCustomRule(category, subcategory, patterns, keywords, priority); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRuleInvalid, err)
	}

	rule := &models.CustomRule{
		Category:    category,
		Subcategory: subcategory,
		Patterns:    patterns,
		Keywords:    keywords,
		Priority:    priority,
	}
	if err := s.db.Create(rule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rule, nil
}

// List returns persisted custom rules, highest priority first.
func (s *ruleService) List(page pagination.PageRequest) (*pagination.PageResponse[models.CustomRule], error) {
	page.Defaults()

	var total int64
	if err := s.db.Model(&models.CustomRule{}).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rules []models.CustomRule
	if err := s.db.Order("priority DESC, created_at ASC").
		Scopes(pagination.Paginate(page)).Find(&rules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(rules, page.Page, page.PageSize, total)
	return &resp, nil
}

// Delete removes a persisted rule. The in-memory registration stays
// until the next restart; deletion only affects future boots.
func (s *ruleService) Delete(id string) error {
	result := s.db.Where("id = ?", id).Delete(&models.CustomRule{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrRuleNotFound
	}
	return nil
}

// Categories lists every known (category, subcategory) pair.
func (s *ruleService) Categories() [][2]string {
	return s.categorizer.Categories()
}

// Explain reports which rule, pattern, or keyword a description
// resolves through.
func (s *ruleService) Explain(description, merchant string) string {
	return s.categorizer.Explain(description, merchant)
}

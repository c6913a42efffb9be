package models

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/bdocctl/internal/common"
)

// BusinessDomains is the fixed set of domain codes the generator accepts.
// The backend seeds the same list; validation happens on both sides.
var BusinessDomains = []string{
	"finance", "healthcare", "retail", "technology", "manufacturing",
	"education", "logistics", "marketing", "hr", "sales",
}

var validate = validator.New()

// GenerationRequest is a single document-generation order. The JSON field
// names match the generator service contract (script/business).
type GenerationRequest struct {
	SQLQuery       string `json:"script" validate:"required"`
	BusinessDomain string `json:"business" validate:"required,oneof=finance healthcare retail technology manufacturing education logistics marketing hr sales"`
}

// Validate checks the request before any network call is made. The query
// must be non-empty after trimming and the domain must be one of
// BusinessDomains.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.SQLQuery) == "" {
		return common.ErrEmptyQuery
	}
	if err := validate.Struct(r); err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			for _, fe := range verr {
				if fe.Field() == "BusinessDomain" {
					return common.ErrInvalidDomain
				}
			}
		}
		return err
	}
	return nil
}

// GenerationResult is the settled outcome of a successful generation,
// retained in memory so a re-download can replay delivery without another
// backend call. Not persisted across process runs.
type GenerationResult struct {
	DocumentID     string
	FileName       string
	FileSize       int64
	GeneratedAt    time.Time
	DownloadURL    string
	Message        string
	Content        string
	SQLQuery       string
	BusinessDomain string
}

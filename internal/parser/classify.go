package parser

import (
	"strings"

	"github.com/starford/docgraph/internal/models"
)

type classRule struct {
	docType models.DocType
	keyword string
	prefix  string
}

// Rules are evaluated in order; the first match wins. There is no rule
// for the "03-" prefix.
var classRules = []classRule{
	{models.DocTypeOverview, "overview", "00-"},
	{models.DocTypeArchitecture, "architecture", "01-"},
	{models.DocTypeDecision, "decision", "02-"},
	{models.DocTypeImplementation, "implementation", "04-"},
	{models.DocTypeOperations, "operations", "05-"},
	{models.DocTypePlan, "plan", "06-"},
}

// Classify maps a corpus-relative path to a document type. It never fails:
// paths matching no rule are DocTypeOther.
func Classify(relPath string) models.DocType {
	lower := strings.ToLower(relPath)
	segments := strings.FieldsFunc(lower, func(r rune) bool { return r == '/' || r == '\\' })

	for _, rule := range classRules {
		if strings.Contains(lower, rule.keyword) {
			return rule.docType
		}
		for _, seg := range segments {
			if strings.HasPrefix(seg, rule.prefix) {
				return rule.docType
			}
		}
	}
	return models.DocTypeOther
}

// Package validation provides user-input validation for pharmatools.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/kerlann/pharmatools/interfaces"
)

// Pre-compiled regex patterns for performance optimization
// Compiled once at package initialization and reused for all validations
var (
	// Drug names: alphanumeric + common accents + safe punctuation
	drugNameRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.\+'àâäéèêëïîôöùûüÿçß]+$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
	}
)

// InputValidatorImpl implements the interfaces.InputValidator interface
type InputValidatorImpl struct{}

// NewInputValidator creates a new input validator
func NewInputValidator() interfaces.InputValidator {
	return &InputValidatorImpl{}
}

// ValidateInput validates a generic user input string
func (v *InputValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if len(input) > 200 {
		return fmt.Errorf("input too long: %d characters (max 200)", len(input))
	}

	lower := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("input contains invalid characters")
		}
	}

	return nil
}

// ValidateDrugName validates a drug name query
func (v *InputValidatorImpl) ValidateDrugName(input string) error {
	if err := v.ValidateInput(input); err != nil {
		return err
	}

	if len(input) < 2 {
		return fmt.Errorf("drug name too short: minimum 2 characters")
	}

	if !drugNameRegex.MatchString(input) {
		return fmt.Errorf("drug name contains invalid characters")
	}

	return nil
}

// ValidateURL validates a user-supplied URL
func (v *InputValidatorImpl) ValidateURL(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	if len(input) > 2048 {
		return fmt.Errorf("URL too long: %d characters (max 2048)", len(input))
	}

	u, err := url.Parse(input)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %s", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL is missing a host")
	}

	return nil
}

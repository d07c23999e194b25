package validate

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"unicode/utf8"

	"profile-ingest/core/reconcile"
	"profile-ingest/feature/profile/normalize"
)

const (
	maxNameRunes    = 256
	maxSummaryRunes = 4096
)

var countPattern = regexp.MustCompile(`^\s*[0-9][0-9,]*\+?\s*$`)

// Validator applies the default profile rules. It never fails; every problem is
// reported as a finding.
type Validator struct{}

// New creates a Validator.
func New() *Validator {
	return &Validator{}
}

// Validate implements reconcile.Validator.
func (v *Validator) Validate(raw reconcile.RawRecord) []reconcile.Finding {
	var findings []reconcile.Finding
	add := func(field string, sev reconcile.Severity, format string, args ...any) {
		findings = append(findings, reconcile.Finding{Field: field, Message: fmt.Sprintf(format, args...), Severity: sev})
	}

	if normalize.IdentityKey(raw) == "" {
		add("identity_key", reconcile.SeverityError, "record has no id, public_identifier or profile_id")
	}

	name := normalize.Name(raw)
	switch {
	case name == "":
		add("name", reconcile.SeverityError, "name is required")
	case utf8.RuneCountInString(name) > maxNameRunes:
		add("name", reconcile.SeverityWarning, "name is longer than %d characters", maxNameRunes)
	}

	if normalize.Text(raw["headline"]) == "" {
		add("headline", reconcile.SeverityWarning, "headline is empty")
	}

	summary := normalize.Text(raw["summary"])
	if summary == "" {
		summary = normalize.Text(raw["about"])
	}
	if utf8.RuneCountInString(summary) > maxSummaryRunes {
		add("summary", reconcile.SeverityWarning, "summary is longer than %d characters", maxSummaryRunes)
	}

	if c, ok := raw["connections"]; ok && c != nil && !isCount(c) {
		add("connections", reconcile.SeverityError, "connections %v is not a count", c)
	}

	for _, field := range []string{"experience", "education", "skills", "images"} {
		if val, ok := raw[field]; ok && val != nil && !isList(val) {
			add(field, reconcile.SeverityWarning, "%s is not a list", field)
		}
	}

	assets := normalize.Assets(raw)
	kept := make(map[reconcile.AssetCategory]string)
	for _, ref := range assets {
		if !ref.Category.Valid() {
			add("images", reconcile.SeverityWarning, "unknown asset category %q", ref.Category)
			continue
		}
		if first, ok := kept[ref.Category]; ok {
			if first != ref.URL {
				add(string(ref.Category), reconcile.SeverityWarning, "asset reference %q ignored, %s already uses %q", ref.URL, ref.Category, first)
			}
			continue
		}
		kept[ref.Category] = ref.URL
		if !validAssetURL(ref.URL) {
			add(string(ref.Category), reconcile.SeverityWarning, "asset reference %q is not an http, https or s3 URL", ref.URL)
		}
	}
	if len(assets) == 0 {
		add("images", reconcile.SeverityInfo, "record has no images")
	}

	return findings
}

// Classify implements reconcile.Validator: any error makes a record invalid, any
// warning flags it. Info findings never change the status.
func (v *Validator) Classify(findings []reconcile.Finding) reconcile.ValidationStatus {
	status := reconcile.StatusValid
	for _, f := range findings {
		switch f.Severity {
		case reconcile.SeverityError:
			return reconcile.StatusInvalid
		case reconcile.SeverityWarning:
			status = reconcile.StatusWarning
		}
	}
	return status
}

func isCount(v any) bool {
	switch n := v.(type) {
	case int:
		return n >= 0
	case int64:
		return n >= 0
	case float64:
		return n >= 0
	case uint64:
		return true
	case json.Number:
		f, err := n.Float64()
		return err == nil && f >= 0
	case string:
		return countPattern.MatchString(n)
	default:
		return false
	}
}

func isList(v any) bool {
	switch v.(type) {
	case []any, []string, []map[string]any:
		return true
	default:
		return false
	}
}

func validAssetURL(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return false
	}
	switch u.Scheme {
	case "http", "https", "s3":
		return true
	default:
		return false
	}
}

// Package normalize turns raw enrichment payloads into canonical context shapes.
package normalize

import (
	"strings"

	"ai-consulting-be/internal/entity"
)

const (
	UnknownName      = "Unknown"
	MaxSummaryLength = 800
)

// RawCompany is the enrichment payload as received from the lookup provider.
type RawCompany struct {
	Name        string `json:"name"`
	Domain      string `json:"domain"`
	Industry    string `json:"industry"`
	Size        string `json:"size"`
	About       string `json:"about"`
	Description string `json:"description"`
}

// RawPerson is the person enrichment payload.
type RawPerson struct {
	FullName   string `json:"fullName"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Title      string `json:"title"`
	Seniority  string `json:"seniority"`
	ProfileUrl string `json:"profileUrl"`
}

func NormalizeCompany(raw RawCompany) entity.CompanyContext {
	summary := strings.TrimSpace(raw.About)
	if summary == "" {
		summary = strings.TrimSpace(raw.Description)
	}

	return entity.CompanyContext{
		Name:     orUnknown(raw.Name),
		Domain:   strings.ToLower(strings.TrimSpace(raw.Domain)),
		Industry: strings.TrimSpace(raw.Industry),
		Size:     strings.TrimSpace(raw.Size),
		Summary:  Truncate(summary, MaxSummaryLength),
	}
}

func NormalizePerson(raw RawPerson) entity.PersonContext {
	name := strings.TrimSpace(raw.FullName)
	if name == "" {
		name = strings.TrimSpace(strings.TrimSpace(raw.FirstName) + " " + strings.TrimSpace(raw.LastName))
	}

	return entity.PersonContext{
		FullName:   orUnknown(name),
		Role:       strings.TrimSpace(raw.Title),
		Seniority:  strings.ToLower(strings.TrimSpace(raw.Seniority)),
		ProfileUrl: strings.TrimSpace(raw.ProfileUrl),
	}
}

// CanonicalCompany reapplies the company rules to an already shaped value, e.g.
// one sent in an explicit patch. It is idempotent.
func CanonicalCompany(c entity.CompanyContext) entity.CompanyContext {
	return NormalizeCompany(RawCompany{
		Name:     c.Name,
		Domain:   c.Domain,
		Industry: c.Industry,
		Size:     c.Size,
		About:    c.Summary,
	})
}

// CanonicalPerson is the person counterpart of CanonicalCompany.
func CanonicalPerson(p entity.PersonContext) entity.PersonContext {
	return NormalizePerson(RawPerson{
		FullName:   p.FullName,
		Title:      p.Role,
		Seniority:  p.Seniority,
		ProfileUrl: p.ProfileUrl,
	})
}

// Truncate cuts s to at most max characters. Not word aware.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func orUnknown(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return UnknownName
	}
	return name
}

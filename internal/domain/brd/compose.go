package brd

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Category is a requirements section of the drafted document.
type Category string

// Categories in document order. A point lands in the first category whose keywords match.
const (
	CategoryPrerequisites Category = "prerequisites"
	CategorySetup         Category = "setup"
	CategorySecurity      Category = "security"
	CategoryAccess        Category = "access"
	CategoryConfiguration Category = "configuration"
	CategoryOther         Category = "other"
)

var categoryRules = []struct {
	category Category
	keywords []string
}{
	{CategoryPrerequisites, []string{"require", "prerequisite", "need", "must have"}},
	{CategorySetup, []string{"setup", "install", "configure", "deployment"}},
	{CategorySecurity, []string{"security", "password", "credential", "vpn", "authentication"}},
	{CategoryAccess, []string{"access", "login", "rdp", "connect"}},
	{CategoryConfiguration, []string{"config", "setting", "parameter", "option"}},
}

// Section is one non-empty category with its formatted points.
type Section struct {
	Category Category
	Points   []string
}

// Title returns the section heading.
func (s Section) Title() string {
	r, size := utf8.DecodeRuneInString(string(s.Category))
	return string(unicode.ToUpper(r)) + string(s.Category)[size:]
}

// FormatPoint collapses whitespace, ensures terminal punctuation and capitalises the first letter.
func FormatPoint(point string) string {
	p := strings.Join(strings.Fields(point), " ")
	if p == "" {
		return ""
	}
	if !strings.HasSuffix(p, ".") && !strings.HasSuffix(p, "!") && !strings.HasSuffix(p, "?") {
		p += "."
	}
	r, size := utf8.DecodeRuneInString(p)
	return string(unicode.ToUpper(r)) + p[size:]
}

// Categorize formats points and groups them by category. Empty categories are omitted;
// sections keep document order and points keep input order.
func Categorize(points []string) []Section {
	buckets := make(map[Category][]string)
	for _, raw := range points {
		p := FormatPoint(raw)
		if p == "" {
			continue
		}
		c := categorize(strings.ToLower(p))
		buckets[c] = append(buckets[c], p)
	}

	order := []Category{
		CategoryPrerequisites, CategorySetup, CategorySecurity,
		CategoryAccess, CategoryConfiguration, CategoryOther,
	}
	sections := make([]Section, 0, len(buckets))
	for _, c := range order {
		if pts := buckets[c]; len(pts) > 0 {
			sections = append(sections, Section{Category: c, Points: pts})
		}
	}
	return sections
}

func categorize(lower string) Category {
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}

// Compose renders the Markdown BRD for the selected points.
func Compose(points []string, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Business Requirements Document\n\n")
	b.WriteString("## Document Information\n")
	fmt.Fprintf(&b, "- Date: %s\n", now.Format("2006-01-02"))
	b.WriteString("- Version: 1.0\n")
	b.WriteString("- Status: Draft\n\n")
	b.WriteString("## Executive Summary\n")
	b.WriteString("This document outlines the business requirements for the system implementation ")
	b.WriteString("based on the analyzed inputs.\n\n")
	b.WriteString("## Objective\n")
	b.WriteString("To provide a comprehensive guide for system implementation while ensuring security, ")
	b.WriteString("accessibility, and proper configuration.\n\n")
	b.WriteString("## Scope\n")
	b.WriteString("This document covers the requirements, procedures, and configurations needed ")
	b.WriteString("for successful system implementation.\n\n")
	b.WriteString("## Detailed Requirements\n\n")

	for _, s := range Categorize(points) {
		fmt.Fprintf(&b, "### %s\n", s.Title())
		for i, p := range s.Points {
			fmt.Fprintf(&b, "%d. %s\n", i+1, p)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Implementation Considerations\n")
	b.WriteString("- All requirements must be implemented in the specified order\n")
	b.WriteString("- Security protocols must be strictly followed\n")
	b.WriteString("- Regular validation of access and configurations is required\n\n")
	b.WriteString("## Success Criteria\n")
	b.WriteString("- All system components are properly configured\n")
	b.WriteString("- Users can access the system securely\n")
	b.WriteString("- All functionalities work as specified in the requirements\n\n")
	b.WriteString("## Approval\n")
	b.WriteString("This document requires review and approval from relevant stakeholders before implementation.\n")

	return b.String()
}

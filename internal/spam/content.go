package spam

import (
	"regexp"
	"strings"
)

type contentRule struct {
	label      string
	pattern    *regexp.Regexp
	minMatches int
}

var defaultContentRules = []contentRule{
	{label: "link_markup", pattern: regexp.MustCompile(`(?i)<a\s+href|\[url=|\[link=`), minMatches: 1},
	{label: "links", pattern: regexp.MustCompile(`(?i)https?://`), minMatches: 3},
	{label: "pharma", pattern: regexp.MustCompile(`(?i)\b(viagra|cialis|levitra|online pharmacy)\b`), minMatches: 1},
	{label: "casino", pattern: regexp.MustCompile(`(?i)\b(casino|online poker|sports betting|slot machines?)\b`), minMatches: 1},
	{label: "crypto", pattern: regexp.MustCompile(`(?i)\b(crypto[- ]?(currency )?invest(ment|ing)?s?|bitcoin invest(ment|ing)?s?)\b`), minMatches: 1},
	{label: "forex", pattern: regexp.MustCompile(`(?i)\bforex\b`), minMatches: 1},
	{label: "loan", pattern: regexp.MustCompile(`(?i)\b(payday loans?|loan offers?|instant loans?|guaranteed loans?)\b`), minMatches: 1},
	{label: "seo", pattern: regexp.MustCompile(`(?i)\b(seo services?|search engine optimi[sz]ation|buy backlinks?|first page of google)\b`), minMatches: 1},
	{label: "click_here", pattern: regexp.MustCompile(`(?i)\bclick here\b`), minMatches: 1},
	{label: "get_rich", pattern: regexp.MustCompile(`(?i)(earn \$|make money fast|work from home)`), minMatches: 1},
}

// ContentFilter flags free text that matches known spam patterns.
type ContentFilter struct {
	rules []contentRule
}

func NewContentFilter() *ContentFilter {
	return &ContentFilter{rules: defaultContentRules}
}

// Match returns the label of the first rule the joined fields trigger.
func (f *ContentFilter) Match(fields ...string) (string, bool) {
	text := strings.Join(fields, "\n")
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	for _, rule := range f.rules {
		if rule.minMatches <= 1 {
			if rule.pattern.MatchString(text) {
				return rule.label, true
			}
			continue
		}
		if len(rule.pattern.FindAllStringIndex(text, rule.minMatches)) >= rule.minMatches {
			return rule.label, true
		}
	}
	return "", false
}

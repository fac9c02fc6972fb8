package templates

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// PlatformDefaults are variables every template may reference without the
// caller supplying them. They are injected in a second substitution pass
// after the caller's own variables.
type PlatformDefaults struct {
	PlatformName string `env:"PLATFORM_NAME" envDefault:"Proofr"`
	PlatformURL  string `env:"PLATFORM_URL" envDefault:"https://proofr.com"`
	SupportEmail string `env:"SUPPORT_EMAIL" envDefault:"support@proofr.com"`
}

// vars returns the default variable set, including the current year.
func (d PlatformDefaults) vars() map[string]any {
	return map[string]any{
		"current_year":  strconv.Itoa(time.Now().Year()),
		"platform_url":  d.PlatformURL,
		"platform_name": d.PlatformName,
		"support_email": d.SupportEmail,
	}
}

// Render substitutes {{ name }} tokens in content with the string form of
// vars[name]. Token matching is whitespace-tolerant; nil values render as
// empty strings. This is literal substitution only, not a template language:
// no conditionals, no loops. Platform defaults are applied after the
// caller's variables so templates can always reference them.
func Render(content string, vars map[string]any, defaults PlatformDefaults) string {
	rendered := substitute(content, vars)
	return substitute(rendered, defaults.vars())
}

func substitute(content string, vars map[string]any) string {
	for key, value := range vars {
		re := regexp.MustCompile(`\{\{\s*` + regexp.QuoteMeta(key) + `\s*\}\}`)
		content = re.ReplaceAllLiteralString(content, stringify(value))
	}
	return content
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

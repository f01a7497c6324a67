package rollbar

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/text/language"
)

// Host describes the environment occurrences are reported from. In a browser
// this is the navigator and the page location; the default implementation
// describes the running process.
type Host interface {
	UserAgent() string
	Location() string
	// Language is the preferred language tag.
	Language() string
	// Languages lists the accepted language tags, most preferred first.
	Languages() []string
}

const defaultLanguage = "en-US"

type processHost struct {
	userAgent string
	location  string
	languages []string
}

// NewProcessHost returns a Host describing the current process: the user
// agent names the SDK, Go version and operating system, the location is the
// executable's file URL and languages come from the POSIX locale variables.
func NewProcessHost() Host {
	return &processHost{
		userAgent: fmt.Sprintf("%s (%s; %s) %s", SDKUserAgent, osDescription(), runtime.GOARCH, runtime.Version()),
		location:  executableLocation(),
		languages: localeLanguages(os.Getenv),
	}
}

func (h *processHost) UserAgent() string { return h.userAgent }
func (h *processHost) Location() string  { return h.location }
func (h *processHost) Language() string  { return h.languages[0] }

func (h *processHost) Languages() []string {
	languages := make([]string, len(h.languages))
	copy(languages, h.languages)
	return languages
}

func executableLocation() string {
	path, err := os.Executable()
	if err != nil {
		path = os.Args[0]
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// localeLanguages turns LANGUAGE, LC_ALL, LC_MESSAGES and LANG into BCP 47
// tags, in that order of preference. LANGUAGE may hold a colon separated
// list. Values like "C" or "POSIX" are skipped.
func localeLanguages(getenv func(string) string) []string {
	var candidates []string
	candidates = append(candidates, strings.Split(getenv("LANGUAGE"), ":")...)
	candidates = append(candidates, getenv("LC_ALL"), getenv("LC_MESSAGES"), getenv("LANG"))

	seen := make(map[string]bool)
	var languages []string
	for _, candidate := range candidates {
		tag, ok := parseLocale(candidate)
		if !ok || seen[tag] {
			continue
		}
		seen[tag] = true
		languages = append(languages, tag)
	}

	if len(languages) == 0 {
		return []string{defaultLanguage}
	}
	return languages
}

// parseLocale converts "pt_BR.UTF-8@euro" into "pt-BR".
func parseLocale(locale string) (string, bool) {
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale == "" || locale == "C" || locale == "POSIX" {
		return "", false
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return "", false
	}
	return tag.String(), true
}

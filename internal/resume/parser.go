// Package resume stores uploaded resumes and extracts best-effort metadata
// from them. Nothing in the pipeline depends on the extracted content.
package resume

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"hiretrack/internal/store"
)

// maxRawText caps the stored plain text of one resume.
const maxRawText = 64 << 10

// DefaultSkills is the dictionary of skills recognised in resume text.
var DefaultSkills = []string{
	"javascript", "python", "java", "c++", "react", "node.js", "angular",
	"vue.js", "mongodb", "sql", "postgresql", "mysql", "aws", "docker",
	"kubernetes", "git", "agile", "scrum", "machine learning", "ai",
	"data science", "html", "css", "typescript", "php", "ruby", "swift",
	"kotlin", "flutter", "react native", "android", "ios", "go",
}

// DefaultEducationKeywords mark a line as describing education.
var DefaultEducationKeywords = []string{
	"bachelor", "master", "phd", "degree", "university", "college",
	"certification", "diploma", "b.tech", "b.e", "m.tech", "mba",
}

type term struct {
	name string
	re   *regexp.Regexp
}

// Parser matches dictionary terms as whole words, case-insensitively.
type Parser struct {
	skills    []term
	education []term
}

// NewParser compiles the given dictionaries. Nil slices select the defaults.
func NewParser(skills, education []string) *Parser {
	if skills == nil {
		skills = DefaultSkills
	}
	if education == nil {
		education = DefaultEducationKeywords
	}
	return &Parser{skills: compile(skills), education: compile(education)}
}

func compile(words []string) []term {
	terms := make([]term, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		// Word characters include + and # so "c" never matches inside "c++".
		pattern := `(?:^|[^a-z0-9+#.])` + regexp.QuoteMeta(w) + `(?:$|[^a-z0-9+#])`
		terms = append(terms, term{name: w, re: regexp.MustCompile(pattern)})
	}
	return terms
}

// Parse extracts skills (in dictionary order) and education lines from text.
func (p *Parser) Parse(text string) store.ParsedContent {
	text = strings.ToValidUTF8(strings.ReplaceAll(text, "\x00", ""), "")
	lower := strings.ToLower(text)

	out := store.ParsedContent{Skills: []string{}, Education: []string{}}
	for _, t := range p.skills {
		if t.re.MatchString(lower) {
			out.Skills = append(out.Skills, t.name)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		l := strings.ToLower(line)
		for _, t := range p.education {
			if t.re.MatchString(l) {
				out.Education = append(out.Education, line)
				break
			}
		}
	}

	out.RawText = truncate(text, maxRawText)
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

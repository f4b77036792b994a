package domain

import (
	"regexp"
	"strings"

	m "prscore.dev/pkg/prscore/internal/model"
)

// BoundaryDetector finds where a structural block ends. start is the 0-based
// index of the declaration line; the result is the 0-based index of the last
// line belonging to the block.
type BoundaryDetector interface {
	BlockEnd(lines []string, start int) int
}

// BraceDetector counts '{' and '}' from the declaration line until the
// balance returns to zero. Without a balanced close the block runs to the end
// of the content.
type BraceDetector struct{}

// BlockEnd implements BoundaryDetector.
func (BraceDetector) BlockEnd(lines []string, start int) int {
	depth := 0
	opened := false

	for i := start; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}

		if opened && depth <= 0 {
			return i
		}
	}

	return len(lines) - 1
}

// IndentDetector ends a block at the last non-blank line that is indented
// deeper than the declaration. Used for indentation-scoped languages.
type IndentDetector struct{}

// BlockEnd implements BoundaryDetector.
func (IndentDetector) BlockEnd(lines []string, start int) int {
	base := indentWidth(lines[start])
	end := start

	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}

		if indentWidth(lines[i]) <= base {
			break
		}

		end = i
	}

	return end
}

func indentWidth(line string) int {
	width := 0

	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}

	return width
}

// languageSyntax holds the declaration patterns and block detector of one
// language. A nil pattern means the language has no such construct.
type languageSyntax struct {
	function *regexp.Regexp
	class    *regexp.Regexp
	detector BoundaryDetector
}

var (
	cFamilyFunction = regexp.MustCompile(`^\s*(?:[\w:<>\*&\[\],]+\s+)+[\*&]?([A-Za-z_~][\w:]*)\s*\([^;]*$`)
	javaFunction    = regexp.MustCompile(`^\s*(?:@\w+(?:\([^)]*\))?\s+)*(?:(?:public|protected|private|static|final|abstract|synchronized|native|default|override|async|virtual|internal|sealed|extern|unsafe|partial)\s+)*[\w<>\[\],.?]+\s+(\w+)\s*\([^;]*$`)
	javaClass       = regexp.MustCompile(`^\s*(?:@\w+(?:\([^)]*\))?\s+)*(?:(?:public|protected|private|static|final|abstract|sealed|partial|internal|data|open)\s+)*(?:class|interface|enum|record|struct)\s+(\w+)`)
)

var syntaxByLanguage = map[m.Language]languageSyntax{
	m.LanguageGo: {
		function: regexp.MustCompile(`^func\s+(?:\([^)]*\)\s*)?(\w+)`),
		class:    regexp.MustCompile(`^type\s+(\w+)\s+(?:struct|interface)\b`),
		detector: BraceDetector{},
	},
	m.LanguageJava: {
		function: javaFunction,
		class:    javaClass,
		detector: BraceDetector{},
	},
	m.LanguageCSharp: {
		function: javaFunction,
		class:    javaClass,
		detector: BraceDetector{},
	},
	m.LanguageKotlin: {
		function: regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|override|open|suspend|inline|operator|infix)\s+)*fun\s+(?:<[^>]*>\s*)?(?:[\w.]+\.)?(\w+)`),
		class:    regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|open|abstract|sealed|data|enum|inner)\s+)*(?:class|interface|object)\s+(\w+)`),
		detector: BraceDetector{},
	},
	m.LanguageScala: {
		function: regexp.MustCompile(`^\s*(?:(?:override|private|protected|final|implicit)\s+)*def\s+(\w+)`),
		class:    regexp.MustCompile(`^\s*(?:(?:case|abstract|sealed|final|private)\s+)*(?:class|trait|object)\s+(\w+)`),
		detector: BraceDetector{},
	},
	m.LanguageJavaScript: {
		function: regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?(?:function\s*\*?\s*(\w+)|(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*=>|\w+\s*=>))`),
		class:    regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?class\s+(\w+)`),
		detector: BraceDetector{},
	},
	m.LanguageTypeScript: {
		function: regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?(?:function\s*\*?\s*(\w+)|(?:const|let|var)\s+(\w+)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*(?::[^=]+)?=>|\w+\s*=>))`),
		class:    regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?(?:class|interface|enum)\s+(\w+)`),
		detector: BraceDetector{},
	},
	m.LanguagePython: {
		function: regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\(`),
		class:    regexp.MustCompile(`^\s*class\s+(\w+)`),
		detector: IndentDetector{},
	},
	m.LanguageRust: {
		function: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:(?:async|const|unsafe|extern(?:\s+"[^"]*")?)\s+)*fn\s+(\w+)`),
		class:    regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|trait|impl(?:<[^>]*>)?)\s+(\w+)`),
		detector: BraceDetector{},
	},
	m.LanguagePHP: {
		function: regexp.MustCompile(`^\s*(?:(?:public|protected|private|static|abstract|final)\s+)*function\s+&?(\w+)`),
		class:    regexp.MustCompile(`^\s*(?:(?:abstract|final|readonly)\s+)*(?:class|interface|trait|enum)\s+(\w+)`),
		detector: BraceDetector{},
	},
	m.LanguageSwift: {
		function: regexp.MustCompile(`^\s*(?:@\w+\s+)*(?:(?:public|private|fileprivate|internal|open|static|class|override|mutating|final)\s+)*func\s+(\w+)`),
		class:    regexp.MustCompile(`^\s*(?:(?:public|private|fileprivate|internal|open|final)\s+)*(?:class|struct|protocol|enum|extension|actor)\s+(\w+)`),
		detector: BraceDetector{},
	},
	m.LanguageC: {
		function: cFamilyFunction,
		class:    regexp.MustCompile(`^\s*(?:typedef\s+)?struct\s+(\w+)\s*\{?\s*$`),
		detector: BraceDetector{},
	},
	m.LanguageCPP: {
		function: cFamilyFunction,
		class:    regexp.MustCompile(`^\s*(?:template\s*<[^>]*>\s*)?(?:class|struct)\s+(\w+)(?:\s*[:{].*)?$`),
		detector: BraceDetector{},
	},
}

// controlKeywords are leading words that look like calls to the C-family
// function pattern but open control blocks.
var controlKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "return": true,
	"else": true, "do": true, "case": true, "catch": true, "sizeof": true,
	"new": true, "delete": true, "throw": true, "using": true,
}

func syntaxFor(lang m.Language) (languageSyntax, bool) {
	syntax, ok := syntaxByLanguage[lang]

	return syntax, ok
}

// pattern returns the declaration pattern of the given segment kind, or nil
// when the language does not support it.
func (s languageSyntax) pattern(kind m.SegmentKind) *regexp.Regexp {
	switch kind {
	case m.KindClass:
		return s.class
	case m.KindFunction:
		return s.function
	case m.KindLines, m.KindFile:
		return nil
	}

	return nil
}

// declarationName returns the declared identifier when line matches re.
func declarationName(re *regexp.Regexp, line string) (string, bool) {
	match := re.FindStringSubmatch(line)
	if match == nil {
		return "", false
	}

	first := strings.Fields(line)
	if len(first) > 0 {
		word := strings.TrimLeft(first[0], "}")
		if i := strings.IndexAny(word, "(<"); i >= 0 {
			word = word[:i]
		}

		if controlKeywords[word] {
			return "", false
		}
	}

	for _, group := range match[1:] {
		if group != "" {
			return group, true
		}
	}

	return "", true
}

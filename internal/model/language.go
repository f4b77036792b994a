package model

import (
	"path/filepath"
	"strings"
)

// Language identifies the programming language of a file.
type Language string

// Known languages. LanguageText is used for anything not in the table.
const (
	LanguageGo         Language = "go"
	LanguageJava       Language = "java"
	LanguageKotlin     Language = "kotlin"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguagePython     Language = "python"
	LanguageCSharp     Language = "csharp"
	LanguageC          Language = "c"
	LanguageCPP        Language = "cpp"
	LanguageRust       Language = "rust"
	LanguagePHP        Language = "php"
	LanguageSwift      Language = "swift"
	LanguageScala      Language = "scala"
	LanguageRuby       Language = "ruby"
	LanguageText       Language = "text"
)

var extensionLanguages = map[string]Language{
	".go":    LanguageGo,
	".java":  LanguageJava,
	".kt":    LanguageKotlin,
	".kts":   LanguageKotlin,
	".js":    LanguageJavaScript,
	".jsx":   LanguageJavaScript,
	".mjs":   LanguageJavaScript,
	".cjs":   LanguageJavaScript,
	".ts":    LanguageTypeScript,
	".tsx":   LanguageTypeScript,
	".py":    LanguagePython,
	".cs":    LanguageCSharp,
	".c":     LanguageC,
	".h":     LanguageC,
	".cc":    LanguageCPP,
	".cpp":   LanguageCPP,
	".cxx":   LanguageCPP,
	".hpp":   LanguageCPP,
	".rs":    LanguageRust,
	".php":   LanguagePHP,
	".swift": LanguageSwift,
	".scala": LanguageScala,
	".rb":    LanguageRuby,
}

// DetectLanguage maps a file path to a Language by its extension.
func DetectLanguage(path Path) Language {
	ext := strings.ToLower(filepath.Ext(string(path)))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}

	return LanguageText
}

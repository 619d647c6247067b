// Package runner implements the execution supervisor: it turns a
// (code, language, session) request into a running OS process, streams its
// output incrementally over the event bus, tracks it so it can be cancelled,
// and removes every scratch artifact on every exit path.
package runner

import (
	"errors"
	"fmt"
	"strings"
)

// Language identifies one of the supported execution languages.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageRust       Language = "rust"
	LanguageJava       Language = "java"
)

// ErrUnsupportedLanguage is returned when a request names a language the
// supervisor has no pipeline for.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ErrSessionBusy is returned when a session already has an execution in
// flight. The caller must wait for that run's terminal result or stop it.
var ErrSessionBusy = errors.New("session already has a running execution")

// ErrInvalidSessionID is returned when a session key cannot be embedded in
// scratch artifact names.
var ErrInvalidSessionID = errors.New("invalid session id")

// Languages lists all supported languages in a stable order.
func Languages() []Language {
	return []Language{
		LanguagePython,
		LanguageJavaScript,
		LanguageTypeScript,
		LanguageRust,
		LanguageJava,
	}
}

// ParseLanguage normalizes and validates a language name.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case LanguagePython:
		return LanguagePython, nil
	case LanguageJavaScript:
		return LanguageJavaScript, nil
	case LanguageTypeScript:
		return LanguageTypeScript, nil
	case LanguageRust:
		return LanguageRust, nil
	case LanguageJava:
		return LanguageJava, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
}

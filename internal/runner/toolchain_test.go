package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultToolchains(t *testing.T) {
	chains := DefaultToolchains()

	require.Len(t, chains, 5)
	assert.Equal(t, "python3", chains[LanguagePython].Command)
	assert.Equal(t, "py", chains[LanguagePython].Extension)
	assert.Equal(t, "node", chains[LanguageJavaScript].Command)
	assert.Equal(t, "npx", chains[LanguageTypeScript].Command)
	assert.Equal(t, []string{"tsx"}, chains[LanguageTypeScript].ExtraArgs)
	assert.Equal(t, "rustc", chains[LanguageRust].Compiler)
	assert.Empty(t, chains[LanguageRust].Command)
	assert.Equal(t, "javac", chains[LanguageJava].Compiler)
	assert.Equal(t, "java", chains[LanguageJava].Command)
}

func TestLoadToolchains_NoFileReturnsDefaults(t *testing.T) {
	chains, err := LoadToolchains("")
	require.NoError(t, err)
	assert.Equal(t, DefaultToolchains(), chains)
}

func TestLoadToolchains_OverridesMergeWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolchains.yaml")
	content := `
python:
  command: python3.12
java:
  compiler: /opt/jdk/bin/javac
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	chains, err := LoadToolchains(path)
	require.NoError(t, err)

	assert.Equal(t, "python3.12", chains[LanguagePython].Command)
	assert.Equal(t, "py", chains[LanguagePython].Extension, "untouched fields keep defaults")
	assert.Equal(t, "/opt/jdk/bin/javac", chains[LanguageJava].Compiler)
	assert.Equal(t, "java", chains[LanguageJava].Command)
	assert.Equal(t, DefaultToolchains()[LanguageRust], chains[LanguageRust])
}

func TestLoadToolchains_UnknownLanguageRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolchains.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cobol:\n  command: cobc\n"), 0o644))

	_, err := LoadToolchains(path)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestLoadToolchains_MissingFile(t *testing.T) {
	_, err := LoadToolchains(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{"python", LanguagePython, false},
		{"  Python ", LanguagePython, false},
		{"JAVASCRIPT", LanguageJavaScript, false},
		{"typescript", LanguageTypeScript, false},
		{"rust", LanguageRust, false},
		{"java", LanguageJava, false},
		{"golang", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLanguage(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedLanguage, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

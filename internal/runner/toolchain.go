package runner

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Toolchain describes how one language is prepared and launched.
// Interpreted languages set Command (plus optional ExtraArgs before the
// script path). Compiled languages set Compiler; Command is the launcher
// for languages that run through one (java), empty when the compiler
// produces a directly runnable binary (rust).
type Toolchain struct {
	Command   string   `yaml:"command"`
	ExtraArgs []string `yaml:"extraArgs"`
	Compiler  string   `yaml:"compiler"`
	Extension string   `yaml:"extension"`
}

// Toolchains maps each language to its toolchain definition.
type Toolchains map[Language]Toolchain

// DefaultToolchains returns the built-in toolchain table.
func DefaultToolchains() Toolchains {
	return Toolchains{
		LanguagePython:     {Command: "python3", Extension: "py"},
		LanguageJavaScript: {Command: "node", Extension: "js"},
		LanguageTypeScript: {Command: "npx", ExtraArgs: []string{"tsx"}, Extension: "ts"},
		LanguageRust:       {Compiler: "rustc", Extension: "rs"},
		LanguageJava:       {Compiler: "javac", Command: "java", Extension: "java"},
	}
}

// LoadToolchains returns the defaults overlaid with entries from the YAML
// file at path, when one is configured. Unknown languages in the file are
// rejected so typos do not silently fall back to defaults.
func LoadToolchains(path string) (Toolchains, error) {
	chains := DefaultToolchains()
	if path == "" {
		return chains, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read toolchain file: %w", err)
	}

	var overrides map[string]Toolchain
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse toolchain file: %w", err)
	}

	for name, tc := range overrides {
		lang, err := ParseLanguage(name)
		if err != nil {
			return nil, fmt.Errorf("toolchain file: %w", err)
		}
		base := chains[lang]
		if tc.Command != "" {
			base.Command = tc.Command
		}
		if tc.ExtraArgs != nil {
			base.ExtraArgs = tc.ExtraArgs
		}
		if tc.Compiler != "" {
			base.Compiler = tc.Compiler
		}
		if tc.Extension != "" {
			base.Extension = tc.Extension
		}
		chains[lang] = base
	}
	return chains, nil
}

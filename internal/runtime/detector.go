// Package runtime detects availability of the external toolchains the
// execution pipelines depend on, and produces install hints for missing
// ones based on the host platform and its package manager.
package runtime

import (
	"fmt"
	"os"
	"os/exec"
	gort "runtime"
	"strings"
)

// Info describes one runtime the service can check for.
type Info struct {
	Name        string
	Command     string
	DownloadURL string
}

// The runtimes backing the supported languages.
var (
	Node   = Info{Name: "Node.js", Command: "node", DownloadURL: "https://nodejs.org/"}
	NPX    = Info{Name: "npx (Node.js)", Command: "npx", DownloadURL: "https://nodejs.org/"}
	Python = Info{Name: "Python", Command: "python3", DownloadURL: "https://www.python.org/downloads/"}
	Rust   = Info{Name: "Rust", Command: "rustc", DownloadURL: "https://rustup.rs/"}
	Java   = Info{Name: "Java", Command: "java", DownloadURL: "https://adoptium.net/"}
	Javac  = Info{Name: "Java Compiler", Command: "javac", DownloadURL: "https://adoptium.net/"}
)

// All lists every known runtime in a stable order.
func All() []Info {
	return []Info{Node, NPX, Python, Rust, Java, Javac}
}

// CheckResult reports availability of one runtime.
type CheckResult struct {
	Info        Info
	Available   bool
	InstallHint string
}

// Platform identifies the host OS and its usable package manager.
type Platform struct {
	OS          string // darwin, linux, windows
	HasHomebrew bool
	HasWinget   bool
	Distro      LinuxDistro
}

// LinuxDistro maps a distribution family to its package manager.
type LinuxDistro string

const (
	DistroDebian  LinuxDistro = "debian" // apt
	DistroFedora  LinuxDistro = "fedora" // dnf
	DistroArch    LinuxDistro = "arch"   // pacman
	DistroUnknown LinuxDistro = "unknown"
)

// Detector checks runtimes against the host. The lookup functions are
// injectable for tests.
type Detector struct {
	lookPath func(string) (string, error)
	readFile func(string) ([]byte, error)
	goos     string
}

// NewDetector creates a detector bound to the real host.
func NewDetector() *Detector {
	return &Detector{
		lookPath: exec.LookPath,
		readFile: os.ReadFile,
		goos:     gort.GOOS,
	}
}

func (d *Detector) commandExists(cmd string) bool {
	_, err := d.lookPath(cmd)
	return err == nil
}

// DetectPlatform determines the host OS and package manager situation.
func (d *Detector) DetectPlatform() Platform {
	p := Platform{OS: d.goos, Distro: DistroUnknown}
	switch d.goos {
	case "darwin":
		p.HasHomebrew = d.commandExists("brew")
	case "windows":
		p.HasWinget = d.commandExists("winget")
	case "linux":
		p.Distro = d.detectLinuxDistro()
	}
	return p
}

func (d *Detector) detectLinuxDistro() LinuxDistro {
	if d.commandExists("apt") {
		return DistroDebian
	}
	if d.commandExists("dnf") {
		return DistroFedora
	}
	if d.commandExists("pacman") {
		return DistroArch
	}

	// Fallback: classify from /etc/os-release.
	content, err := d.readFile("/etc/os-release")
	if err != nil {
		return DistroUnknown
	}
	lower := strings.ToLower(string(content))
	switch {
	case strings.Contains(lower, "ubuntu"), strings.Contains(lower, "debian"),
		strings.Contains(lower, "pop"), strings.Contains(lower, "mint"):
		return DistroDebian
	case strings.Contains(lower, "fedora"), strings.Contains(lower, "rhel"),
		strings.Contains(lower, "centos"):
		return DistroFedora
	case strings.Contains(lower, "arch"), strings.Contains(lower, "manjaro"),
		strings.Contains(lower, "endeavour"), strings.Contains(lower, "cachyos"):
		return DistroArch
	}
	return DistroUnknown
}

// Check reports whether the runtime is on PATH, with an install hint when
// it is not.
func (d *Detector) Check(info Info) CheckResult {
	if d.commandExists(info.Command) {
		return CheckResult{Info: info, Available: true}
	}
	platform := d.DetectPlatform()
	return CheckResult{
		Info:        info,
		Available:   false,
		InstallHint: formatInstallHint(info, installCommand(info, platform)),
	}
}

// CheckAll checks every known runtime.
func (d *Detector) CheckAll() []CheckResult {
	results := make([]CheckResult, 0, len(All()))
	for _, info := range All() {
		results = append(results, d.Check(info))
	}
	return results
}

// installCommand returns the platform-native install command for a runtime,
// or empty when no package manager is usable.
func installCommand(info Info, p Platform) string {
	switch info.Command {
	case "node", "npx":
		switch {
		case p.OS == "darwin" && p.HasHomebrew:
			return "brew install node"
		case p.OS == "linux" && p.Distro == DistroDebian:
			return "sudo apt install nodejs npm"
		case p.OS == "linux" && p.Distro == DistroFedora:
			return "sudo dnf install nodejs npm"
		case p.OS == "linux" && p.Distro == DistroArch:
			return "sudo pacman -S nodejs npm"
		case p.OS == "windows" && p.HasWinget:
			return "winget install OpenJS.NodeJS"
		}
	case "python3":
		switch {
		case p.OS == "darwin" && p.HasHomebrew:
			return "brew install python"
		case p.OS == "linux" && p.Distro == DistroDebian:
			return "sudo apt install python3"
		case p.OS == "linux" && p.Distro == DistroFedora:
			return "sudo dnf install python3"
		case p.OS == "linux" && p.Distro == DistroArch:
			return "sudo pacman -S python"
		case p.OS == "windows" && p.HasWinget:
			return "winget install Python.Python.3.12"
		}
	case "rustc":
		switch {
		case p.OS == "darwin" && p.HasHomebrew:
			return "brew install rust"
		case p.OS == "linux" && p.Distro == DistroArch:
			return "sudo pacman -S rust"
		case p.OS == "linux":
			return "curl --proto '=https' --tlsv1.2 -sSf https://sh.rustup.rs | sh"
		case p.OS == "windows" && p.HasWinget:
			return "winget install Rustlang.Rustup"
		}
	case "java", "javac":
		switch {
		case p.OS == "darwin" && p.HasHomebrew:
			return "brew install openjdk"
		case p.OS == "linux" && p.Distro == DistroDebian:
			return "sudo apt install default-jdk"
		case p.OS == "linux" && p.Distro == DistroFedora:
			return "sudo dnf install java-latest-openjdk-devel"
		case p.OS == "linux" && p.Distro == DistroArch:
			return "sudo pacman -S jdk-openjdk"
		case p.OS == "windows" && p.HasWinget:
			return "winget install EclipseAdoptium.Temurin.21.JDK"
		}
	}
	return ""
}

func formatInstallHint(info Info, installCmd string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s is not installed\n\n", info.Name)
	if installCmd != "" {
		fmt.Fprintf(&b, "To install %s on your system:\n", info.Name)
		fmt.Fprintf(&b, "  %s\n\n", installCmd)
	}
	fmt.Fprintf(&b, "Or download from: %s\n", info.DownloadURL)
	return b.String()
}

//go:build ignore

// build.go - rfm-report build system
// Usage: go run build.go [-target=TARGET]
// Targets: all, build, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	version = "1.0.0"
	command = "rfm-report"
)

var (
	rootDir string
	distDir string

	// release platforms as GOOS/GOARCH
	releaseTargets = []string{"linux/amd64", "darwin/arm64", "windows/amd64"}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); os.IsNotExist(err) {
		panic(fmt.Sprintf("go.mod not found in %s. Run the build from the module root.", rootDir))
	}
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	switch *target {
	case "all":
		runTests(*verbose)
		buildExecutable(runtime.GOOS, runtime.GOARCH, *verbose)
		copyConfigFiles(*verbose)
	case "build":
		buildExecutable(runtime.GOOS, runtime.GOARCH, *verbose)
	case "test":
		runTests(*verbose)
	case "clean":
		clean(*verbose)
	case "release":
		buildRelease(*verbose)
	default:
		showHelp()
		os.Exit(1)
	}

	duration := time.Since(startTime)
	printSuccess(fmt.Sprintf("Build completed in %s", duration.Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "        rfm-report - Build System          " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

func executableName(goos string) string {
	if goos == "windows" {
		return command + ".exe"
	}
	return command
}

// buildExecutable compiles cmd/rfm-report into dist/<goos>_<goarch>
func buildExecutable(goos, goarch string, verbose bool) {
	printInfo(fmt.Sprintf("Building %s for %s/%s...", command, goos, goarch))

	outputPath := filepath.Join(distDir, goos+"_"+goarch, executableName(goos))
	ldflags := fmt.Sprintf("-s -w -X main.Version=%s -X main.BuildTime=%s",
		version, time.Now().Format(time.RFC3339))

	args := []string{"build", "-trimpath", "-ldflags", ldflags, "-o", outputPath, "./cmd/" + command}
	if verbose {
		args = append([]string{"build", "-v"}, args[1:]...)
	}

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Env = append(os.Environ(), "GOOS="+goos, "GOARCH="+goarch, "CGO_ENABLED=0")
	if verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", command, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		sizeMB := float64(info.Size()) / 1024 / 1024
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", outputPath, sizeMB))
	}
}

func buildRelease(verbose bool) {
	printInfo("Building release binaries...")
	clean(verbose)
	for _, target := range releaseTargets {
		goos, goarch, _ := strings.Cut(target, "/")
		buildExecutable(goos, goarch, verbose)
	}
	copyConfigFiles(verbose)
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

// copyConfigFiles ships the sample config next to the binaries
func copyConfigFiles(verbose bool) {
	src := filepath.Join(rootDir, "configs", "rfm.yaml")
	dest := filepath.Join(distDir, "configs", "rfm.yaml")

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		printWarning(fmt.Sprintf("Failed to create config directory: %v", err))
		return
	}
	data, err := os.ReadFile(src)
	if err != nil {
		printWarning(fmt.Sprintf("Failed to read %s: %v", src, err))
		return
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		printWarning(fmt.Sprintf("Failed to copy config: %v", err))
		return
	}
	if verbose {
		printInfo(fmt.Sprintf("Copied %s", dest))
	}
}

func clean(verbose bool) {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil && !os.IsNotExist(err) {
		printError(fmt.Sprintf("Failed to clean dist directory: %v", err))
		return
	}
	if verbose {
		printInfo(fmt.Sprintf("Removed %s", distDir))
	}
	printSuccess("Build artifacts cleaned")
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all       Run tests, then build for the host platform (default)")
	fmt.Println("  build     Build for the host platform only")
	fmt.Println("  test      Run all tests with the race detector")
	fmt.Println("  clean     Remove dist/")
	fmt.Println("  release   Build binaries for " + strings.Join(releaseTargets, ", "))
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -v        Verbose output")
}

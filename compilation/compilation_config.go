package compilation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/crytic/solship/compilation/platforms"
)

// CompilationConfig describes the configuration options used to compile a directory of source units.
type CompilationConfig struct {
	// Platform references an identifier indicating which compilation platform to use.
	Platform string `json:"platform"`

	// SourceDirectory describes the directory in which source units are discovered. Sub-directories are not searched.
	SourceDirectory string `json:"sourceDirectory"`

	// SourceExtension describes the file extension (including the leading dot) a file must have to be considered a
	// source unit.
	SourceExtension string `json:"sourceExtension"`

	// OutputDirectory describes the directory artifacts are written to. It is destroyed and recreated on every run.
	OutputDirectory string `json:"outputDirectory"`

	// CacheDirectory describes the directory used to remember the artifact set of the previous run. If empty, no
	// comparison with the previous run is made.
	CacheDirectory string `json:"cacheDirectory"`

	// Optimize describes whether the compiler optimizer should be enabled.
	Optimize bool `json:"optimize"`

	// CompilerBinary describes the path of the compiler executable. If empty, the platform default is used.
	CompilerBinary string `json:"compilerBinary"`
}

// NewCompilationConfig returns a CompilationConfig with default values for a given platform identifier.
// If an error occurs, it is returned instead.
func NewCompilationConfig(platform string) (*CompilationConfig, error) {
	// Verify the platform is valid
	if !IsSupportedCompilationPlatform(platform) {
		return nil, fmt.Errorf("could not get default compilation configs: platform '%s' is unsupported", platform)
	}

	return &CompilationConfig{
		Platform:        platform,
		SourceDirectory: "contracts",
		SourceExtension: ".sol",
		OutputDirectory: "compiled",
		CacheDirectory:  ".solship",
		Optimize:        true,
	}, nil
}

// Validate validates that the CompilationConfig meets certain requirements.
// Returns an error if one occurs.
func (c *CompilationConfig) Validate() error {
	if !IsSupportedCompilationPlatform(c.Platform) {
		return fmt.Errorf("compilation platform '%s' is unsupported (supported: %s)", c.Platform, strings.Join(GetSupportedCompilationPlatforms(), ", "))
	}
	if c.SourceDirectory == "" {
		return fmt.Errorf("compilation source directory must be set")
	}
	if c.OutputDirectory == "" {
		return fmt.Errorf("compilation output directory must be set")
	}
	if c.SourceExtension != "" && !strings.HasPrefix(c.SourceExtension, ".") {
		return fmt.Errorf("compilation source extension '%s' must start with '.'", c.SourceExtension)
	}

	// The output directory is reset on every run, so it must not hold the source units
	contains, err := directoryContains(c.OutputDirectory, c.SourceDirectory)
	if err != nil {
		return err
	}
	if contains {
		return fmt.Errorf("compilation output directory '%s' must not be or contain the source directory '%s'", c.OutputDirectory, c.SourceDirectory)
	}
	return nil
}

// directoryContains reports whether child is the same directory as parent or lies beneath it.
func directoryContains(parent string, child string) (bool, error) {
	parentPath, err := filepath.Abs(parent)
	if err != nil {
		return false, err
	}
	childPath, err := filepath.Abs(child)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(parentPath, childPath)
	if err != nil {
		// Different volumes
		return false, nil
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))), nil
}

// NewCompiler creates the platforms.Compiler described by this config.
func (c *CompilationConfig) NewCompiler() (platforms.Compiler, error) {
	if !IsSupportedCompilationPlatform(c.Platform) {
		return nil, fmt.Errorf("could not compile from configs: platform '%s' is unsupported", c.Platform)
	}
	return GetPlatformCompiler(c.Platform, c.CompilerBinary), nil
}

package compilation

import (
	"fmt"

	"github.com/crytic/solship/compilation/platforms"
	"golang.org/x/exp/slices"
)

// platformCompilerGenerator is a mapping of platform identifier to generator functions which create a compiler for
// the given platform from a compiler binary path. Each platform which provides a generator in this mapping will be
// considered a supported compilation platform for a CompilationConfig. Items are populated in the init method.
var platformCompilerGenerator map[string]func(binary string) platforms.Compiler

// init is called once per inclusion of a package. This method is used on startup to populate
// platformCompilerGenerator and add supported platforms.
func init() {
	// Define a list of compiler generators
	generators := []func(binary string) platforms.Compiler{
		func(binary string) platforms.Compiler { return platforms.NewSolcCompiler(binary) },
		func(binary string) platforms.Compiler { return platforms.NewSolcCombinedCompiler(binary) },
	}

	// Initialize our compiler generator.
	platformCompilerGenerator = make(map[string]func(binary string) platforms.Compiler)

	// Generate each compiler to create a mapping for their platform identifiers.
	for _, generator := range generators {
		platformId := generator("").Platform()

		// If this platform already exists in our mapping, panic. Each platform should have a unique identifier.
		if _, platformIdExists := platformCompilerGenerator[platformId]; platformIdExists {
			panic(fmt.Errorf("the compilation platform '%s' is registered with more than one provider", platformId))
		}

		// Add this entry to our mapping
		platformCompilerGenerator[platformId] = generator
	}
}

// GetSupportedCompilationPlatforms obtains a sorted list of strings which represent platform identifiers supported by
// methods in this package.
func GetSupportedCompilationPlatforms() []string {
	platformIds := make([]string, 0, len(platformCompilerGenerator))
	for k := range platformCompilerGenerator {
		platformIds = append(platformIds, k)
	}
	slices.Sort(platformIds)
	return platformIds
}

// IsSupportedCompilationPlatform returns a boolean status indicating if a platform identifier is supported within this
// package.
func IsSupportedCompilationPlatform(platform string) bool {
	// Verify the platform is in our supported map
	_, ok := platformCompilerGenerator[platform]
	return ok
}

// GetPlatformCompiler creates a compiler for the provided platform, invoking the given binary. The platform must be
// supported.
func GetPlatformCompiler(platform string, binary string) platforms.Compiler {
	return platformCompilerGenerator[platform](binary)
}

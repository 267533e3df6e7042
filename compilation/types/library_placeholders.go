package types

import (
	"regexp"
	"strings"

	"golang.org/x/exp/slices"
)

// libraryPlaceholderExp matches library placeholders solc leaves in unlinked bytecode. These follow the format
// "__$<hash>$__" (solc >= 0.5.0) or "__<path>:<name>___" (older).
var libraryPlaceholderExp = regexp.MustCompile(`__(\$[0-9a-zA-Z]*\$|[\w.:/]*)__`)

// ParseBytecodeForPlaceholders returns the unique library placeholder identifiers found within hex bytecode, sorted.
// An empty slice indicates the bytecode is fully linked.
func ParseBytecodeForPlaceholders(bytecode string) []string {
	identifiers := make([]string, 0)
	for _, substring := range libraryPlaceholderExp.FindAllString(bytecode, -1) {
		placeholder := strings.Trim(substring, "_$")
		if placeholder != "" && !slices.Contains(identifiers, placeholder) {
			identifiers = append(identifiers, placeholder)
		}
	}
	slices.Sort(identifiers)
	return identifiers
}

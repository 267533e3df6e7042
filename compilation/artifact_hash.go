package compilation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/crytic/solship/compilation/types"
	"github.com/crytic/solship/logging"
	"github.com/crytic/solship/logging/colors"
	"github.com/crytic/solship/utils"
)

// ArtifactHashCacheFileName is the name of the file used to store the artifact hash.
const ArtifactHashCacheFileName = "artifact-hash.json"

// ArtifactHashCache stores the hash of an artifact set along with metadata.
type ArtifactHashCache struct {
	// Hash is the SHA-256 hash of the artifact set.
	Hash string `json:"hash"`
	// ArtifactCount is the number of artifacts in the hashed set.
	ArtifactCount int `json:"artifactCount"`
	// Timestamp is when the hash was computed.
	Timestamp time.Time `json:"timestamp"`
}

// ComputeArtifactHash computes a SHA-256 hash over the name, interface and bytecode of every provided artifact. The
// hash is computed deterministically by sorting artifacts by name before hashing.
func ComputeArtifactHash(artifacts []types.CompiledArtifact) string {
	hasher := sha256.New()

	sorted := make([]types.CompiledArtifact, len(artifacts))
	copy(sorted, artifacts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	// Hash the persisted record of each artifact so formatting-only interface differences do not count as changes
	for _, artifact := range sorted {
		hasher.Write([]byte(artifact.Name))
		record, err := json.Marshal(artifact)
		if err != nil {
			record = append([]byte(artifact.Interface), artifact.Bytecode...)
		}
		hasher.Write(record)
	}

	return hex.EncodeToString(hasher.Sum(nil))
}

// LoadArtifactHashCache loads the artifact hash cache from the specified directory.
// Returns nil if the cache file does not exist or cannot be parsed.
func LoadArtifactHashCache(directory string) *ArtifactHashCache {
	cachePath := filepath.Join(directory, ArtifactHashCacheFileName)
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil
	}

	var cache ArtifactHashCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil
	}

	return &cache
}

// SaveArtifactHashCache saves the artifact hash cache to the specified directory.
// Returns an error if the cache cannot be written.
func SaveArtifactHashCache(directory string, cache *ArtifactHashCache) error {
	cachePath := filepath.Join(directory, ArtifactHashCacheFileName)
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := utils.WriteFileAtomic(cachePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// NotifyArtifactHashStatus compares the hash of the provided artifact set with the hash cached by the previous run
// and logs whether the set is new or unchanged. It also updates the cache with the new hash. The cacheDirectory
// parameter specifies where the cache file is stored. Returns true if the set differs from the previous run.
func NotifyArtifactHashStatus(
	artifacts []types.CompiledArtifact,
	cacheDirectory string,
	logger *logging.Logger,
) bool {
	// Compute the current hash
	currentHash := ComputeArtifactHash(artifacts)

	// Load the cached hash
	cachedHash := LoadArtifactHashCache(cacheDirectory)

	// Compare and log the appropriate message
	changed := cachedHash == nil || cachedHash.Hash != currentHash
	if changed {
		logger.Info(
			colors.Bold, "artifacts: ", colors.Reset,
			"compiled a ", colors.GreenBold, "new", colors.Reset, " set of ", len(artifacts), " build artifact(s)",
		)
	} else {
		timeSince := time.Since(cachedHash.Timestamp)
		logger.Info(
			colors.Bold, "artifacts: ", colors.Reset,
			"compiled the ", colors.YellowBold, "same", colors.Reset,
			" build artifacts as previously (last run: ", formatDuration(timeSince), " ago)",
		)
	}

	// Update the cache with the current hash
	newCache := &ArtifactHashCache{
		Hash:          currentHash,
		ArtifactCount: len(artifacts),
		Timestamp:     time.Now(),
	}
	if err := SaveArtifactHashCache(cacheDirectory, newCache); err != nil {
		logger.Warn("Failed to save artifact hash cache", err)
	}
	return changed
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

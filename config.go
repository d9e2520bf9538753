package mapsynth

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// StageConfig maps stage keys such as "heights_64-16" or "roads_sharp" to
// predictor locations. Locations are interpreted by the pipeline's
// predictor.Loader.
type StageConfig map[string]string

// RequiredStages returns every stage key a full run needs, in the order the
// predictors are used.
func RequiredStages() []string {
	var keys []string
	for _, s := range [...]Stage{Stage16, Stage4, Stage1, StageSharp} {
		for _, l := range allLayers {
			if k := s.Key(l); k != "" {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// ParseStageConfig reads key=location lines. Blank lines and lines starting
// with '#' are ignored; whitespace around keys and locations is trimmed.
func ParseStageConfig(r io.Reader) (StageConfig, error) {
	cfg := make(StageConfig)
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, loc, ok := strings.Cut(line, "=")
		key, loc = strings.TrimSpace(key), strings.TrimSpace(loc)
		switch {
		case !ok || key == "" || loc == "":
			return nil, fmt.Errorf("%w: line %d: %q", ErrStageConfig, n, line)
		case cfg[key] != "":
			return nil, fmt.Errorf("%w: line %d: duplicate key %q", ErrStageConfig, n, key)
		}
		cfg[key] = loc
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("mapsynth: read stage config: %w", err)
	}
	return cfg, nil
}

// LoadStageConfig reads a stage configuration file.
func LoadStageConfig(path string) (StageConfig, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("mapsynth: open stage config: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseStageConfig(f)
}

// Validate reports every required key that is missing. Unknown keys are
// allowed so one file can serve several tools.
func (c StageConfig) Validate() error {
	var missing []string
	for _, key := range RequiredStages() {
		if c[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingStage, strings.Join(missing, ", "))
	}
	return nil
}

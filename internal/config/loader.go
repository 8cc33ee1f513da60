package config

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSitesFile is the default sites file name.
const DefaultSitesFile = ".pagetrawl.yaml"

// ErrSitesFileNotFound is returned when the sites file does not exist.
var ErrSitesFileNotFound = errors.New("sites file not found")

// LoadSitesFile loads per-domain overrides from a YAML file.
// If the file does not exist, it returns ErrSitesFileNotFound; callers
// decide whether that matters based on whether the path was explicit.
func LoadSitesFile(path string) (*SitesFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSitesFileNotFound
		}
		return nil, err
	}

	var sf SitesFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, err
	}
	if sf.Sites == nil {
		sf.Sites = make(map[string]SiteConfig)
	}
	return &sf, nil
}

// FindSitesFile searches for the sites file:
// 1. The explicit path, if given
// 2. .pagetrawl.yaml in the current directory
// 3. The XDG config directory
//
// Returns the path if found, or empty string.
func FindSitesFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultSitesFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	p := filepath.Join(XDGConfigDir(), DefaultSitesFile)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// LoadLines reads a list file (seed URLs or excluded domains), skipping
// blank lines and '#' comments. Both the seeds file and the exclusion file
// use this format.
func LoadLines(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // Read-only file

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// LoadExcludedDomains reads the exclusion file and normalizes each entry
// to a bare lowercase domain (scheme, www prefix, and paths stripped).
func LoadExcludedDomains(path string) (map[string]struct{}, error) {
	lines, err := LoadLines(path)
	if err != nil {
		return nil, err
	}

	domains := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		d := strings.ToLower(line)
		d = strings.TrimPrefix(d, "https://")
		d = strings.TrimPrefix(d, "http://")
		d = strings.TrimPrefix(d, "www.")
		if i := strings.IndexByte(d, '/'); i >= 0 {
			d = d[:i]
		}
		if d != "" {
			domains[d] = struct{}{}
		}
	}
	return domains, nil
}

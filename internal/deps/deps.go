// Package deps locates the external binaries the pipeline shells out to.
package deps

import "os/exec"

// Binary reports whether one external tool was found on PATH.
type Binary struct {
	Name  string
	Path  string
	Found bool
}

// CheckBinaries looks up each name on PATH.
func CheckBinaries(names ...string) []Binary {
	results := make([]Binary, 0, len(names))
	for _, name := range names {
		path, err := exec.LookPath(name)
		results = append(results, Binary{
			Name:  name,
			Path:  path,
			Found: err == nil,
		})
	}
	return results
}

// Missing filters the check results down to the names not found.
func Missing(binaries []Binary) []string {
	var missing []string
	for _, binary := range binaries {
		if !binary.Found {
			missing = append(missing, binary.Name)
		}
	}
	return missing
}

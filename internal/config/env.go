package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads .env and .env.local from dir, then from the working
// folder. Variables already present in the process environment win.
func loadEnvFiles(dir string) []string {
	var loaded []string
	seen := make(map[string]bool)
	for _, base := range []string{dir, "."} {
		for _, name := range []string{".env", ".env.local"} {
			path := filepath.Clean(filepath.Join(base, name))
			if seen[path] {
				continue
			}
			seen[path] = true
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := godotenv.Load(path); err == nil {
				loaded = append(loaded, path)
			}
		}
	}
	return loaded
}

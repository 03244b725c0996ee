package character

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadDir reads every *.json profile in dir.
func LoadDir(dir string) ([]*Character, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read characters dir: %w", err)
	}

	var characters []*Character
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		c, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		characters = append(characters, c)
	}
	return characters, nil
}

// LoadFile reads a single character profile.
func LoadFile(path string) (*Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read character %s: %w", path, err)
	}
	var c Character
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse character %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("character %s: %w", path, err)
	}
	return &c, nil
}

// Find returns the character with the given username.
func Find(characters []*Character, username string) (*Character, error) {
	for _, c := range characters {
		if c.Username == username {
			return c, nil
		}
	}
	return nil, fmt.Errorf("character not found: %s", username)
}

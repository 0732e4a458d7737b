package sources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Toomas633/Adlist-Parser/internal/models"
)

// sourceKeys are the recognized top-level keys of a source-list document.
// Any subset may appear; all are merged into one list.
var sourceKeys = []string{"lists", "urls", "adlists", "sources"}

// Load reads a JSON source-list file. The document is either an object
// with lists/urls/adlists/sources arrays or a bare array of strings.
// Relative local paths are resolved against the file's directory.
func Load(file string) ([]models.Source, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	items, err := extractItems(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: no sources found", file)
	}

	baseDir := filepath.Dir(file)
	srcs := make([]models.Source, 0, len(items))
	for _, raw := range items {
		src := models.NewSource(raw)
		if !src.IsRemote() {
			// file:// URIs are read like any other local path.
			src.Location = strings.TrimPrefix(src.Location, "file://")
			if !filepath.IsAbs(src.Location) {
				src.Location = filepath.Join(baseDir, src.Location)
			}
		}
		srcs = append(srcs, src)
	}
	return srcs, nil
}

func extractItems(data []byte) ([]string, error) {
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(data)); err == nil {
		var items []string
		for _, key := range sourceKeys {
			items = append(items, v.GetStringSlice(key)...)
		}
		return items, nil
	}

	// A bare top-level array is not a shape viper accepts.
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("expected an object with lists/urls/adlists/sources or an array of strings")
	}
	return items, nil
}

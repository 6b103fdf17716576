package portal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"themeforge/theme"
)

// ThemeOverride is a partial theme loaded from {dir}/{host}.json. Pointer
// fields distinguish "absent" from "set to empty".
type ThemeOverride struct {
	PrimaryColor    *string `json:"primaryColor,omitempty"`
	SecondaryColor  *string `json:"secondaryColor,omitempty"`
	BackgroundColor *string `json:"backgroundColor,omitempty"`
	FontFamily      *string `json:"fontFamily,omitempty"`
	LogoURL         *string `json:"logoUrl,omitempty"`
	FaviconURL      *string `json:"faviconUrl,omitempty"`
}

// apply copies the set fields onto the theme. A background override
// re-derives the dependent surface and text colors.
func (ov *ThemeOverride) apply(t *theme.Theme) {
	if ov.PrimaryColor != nil {
		t.PrimaryColor = *ov.PrimaryColor
	}
	if ov.SecondaryColor != nil {
		t.SecondaryColor = *ov.SecondaryColor
	}
	if ov.FontFamily != nil {
		t.FontFamily = *ov.FontFamily
	}
	if ov.LogoURL != nil {
		t.LogoURL = *ov.LogoURL
	}
	if ov.FaviconURL != nil {
		t.FaviconURL = *ov.FaviconURL
	}
	if ov.BackgroundColor != nil {
		*t = t.WithBackground(*ov.BackgroundColor)
	}
}

// overrideStore resolves per-site override files. A host matches the file
// for itself or any parent domain (portal.acme.example.com falls back to
// acme.example.com, then example.com, then com). Lookups are cached,
// misses included, so the filesystem is consulted once per host.
type overrideStore struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]*ThemeOverride
}

func newOverrideStore(dir string) *overrideStore {
	return &overrideStore{
		dir:   dir,
		cache: make(map[string]*ThemeOverride),
	}
}

func (s *overrideStore) Find(host string) *ThemeOverride {
	if host == "" {
		return nil
	}
	s.mu.RLock()
	if ov, ok := s.cache[host]; ok {
		s.mu.RUnlock()
		return ov
	}
	s.mu.RUnlock()

	labels := strings.Split(host, ".")
	for i := 0; i < len(labels); i++ {
		candidate := strings.Join(labels[i:], ".")
		if ov := s.load(candidate); ov != nil {
			s.mu.Lock()
			s.cache[host] = ov
			s.mu.Unlock()
			return ov
		}
	}
	s.mu.Lock()
	s.cache[host] = nil
	s.mu.Unlock()
	return nil
}

func (s *overrideStore) load(host string) *ThemeOverride {
	if s.dir == "" {
		return nil
	}
	path := filepath.Join(s.dir, host+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var ov ThemeOverride
	if err := json.Unmarshal(data, &ov); err != nil {
		return nil
	}
	return &ov
}

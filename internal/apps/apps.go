// Package apps holds the read-only registry of launchable applications.
//
// The registry is built once at startup, either from the built-in list or
// from a YAML file, and is never mutated afterwards.
package apps

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Descriptor describes one launchable application.
type Descriptor struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Icon        string   `yaml:"icon" json:"icon"`
	WebURL      string   `yaml:"web_url" json:"web_url"`
	NativeURL   string   `yaml:"native_url,omitempty" json:"native_url,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`

	// SearchURL and NativeSearchURL are templates where "{query}" is replaced
	// by the escaped search query. Only media apps define them.
	SearchURL       string `yaml:"search_url,omitempty" json:"search_url,omitempty"`
	NativeSearchURL string `yaml:"native_search_url,omitempty" json:"native_search_url,omitempty"`
}

// HasNative reports whether the app can be handed off to an installed client.
func (d Descriptor) HasNative() bool { return d.NativeURL != "" }

// SearchTargets returns the native and web URLs for a media search.
// Either may be empty when the descriptor has no matching template.
func (d Descriptor) SearchTargets(query string) (native, web string) {
	q := escapeComponent(query)
	if d.NativeSearchURL != "" {
		native = strings.ReplaceAll(d.NativeSearchURL, "{query}", q)
	}
	if d.SearchURL != "" {
		web = strings.ReplaceAll(d.SearchURL, "{query}", q)
	}
	return native, web
}

// escapeComponent escapes s so it is safe in both path and query
// templates. Spaces become %20 since a path reads "+" literally.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Registry is an ordered, immutable set of descriptors.
type Registry struct {
	apps []Descriptor
	byID map[string]int
}

// New builds a registry, rejecting empty or duplicate IDs.
func New(list []Descriptor) (*Registry, error) {
	r := &Registry{
		apps: make([]Descriptor, 0, len(list)),
		byID: make(map[string]int, len(list)),
	}
	for _, d := range list {
		id := strings.ToLower(strings.TrimSpace(d.ID))
		if id == "" {
			return nil, fmt.Errorf("app %q has no id", d.Name)
		}
		if d.Name == "" || d.WebURL == "" {
			return nil, fmt.Errorf("app %q: name and web_url are required", id)
		}
		if _, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("duplicate app id %q", id)
		}
		d.ID = id
		d.Keywords = append([]string(nil), d.Keywords...)
		r.byID[id] = len(r.apps)
		r.apps = append(r.apps, d)
	}
	return r, nil
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := New(builtin)
	if err != nil {
		panic(err)
	}
	return r
}

// LoadFile reads a registry from a YAML file of the form:
//
//	apps:
//	  - id: youtube
//	    name: YouTube
//	    web_url: https://www.youtube.com
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading app registry: %w", err)
	}
	var doc struct {
		Apps []Descriptor `yaml:"apps"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing app registry: %w", err)
	}
	if len(doc.Apps) == 0 {
		return nil, fmt.Errorf("app registry %s is empty", path)
	}
	return New(doc.Apps)
}

// All returns a copy of the descriptors in registry order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.apps))
	copy(out, r.apps)
	return out
}

// Get returns the descriptor with the given ID.
func (r *Registry) Get(id string) (Descriptor, bool) {
	i, ok := r.byID[strings.ToLower(id)]
	if !ok {
		return Descriptor{}, false
	}
	return r.apps[i], true
}

// Len returns the number of registered apps.
func (r *Registry) Len() int { return len(r.apps) }

var builtin = []Descriptor{
	{
		ID:          "google",
		Name:        "Google",
		Description: "Web araması yapın",
		Icon:        "/icons/google.svg",
		WebURL:      "https://www.google.com",
		NativeURL:   "googlechrome://",
		Keywords:    []string{"google", "arama", "search", "chrome"},
	},
	{
		ID:              "youtube",
		Name:            "YouTube",
		Description:     "Video izleyin",
		Icon:            "/icons/youtube.svg",
		WebURL:          "https://www.youtube.com",
		NativeURL:       "youtube://",
		Keywords:        []string{"youtube", "video", "izle", "watch", "müzik", "music"},
		SearchURL:       "https://www.youtube.com/results?search_query={query}",
		NativeSearchURL: "youtube://results?search_query={query}",
	},
	{
		ID:          "maps",
		Name:        "Google Maps",
		Description: "Konum ve yol tarifi bulun",
		Icon:        "/icons/maps.svg",
		WebURL:      "https://maps.google.com",
		NativeURL:   "comgooglemaps://",
		Keywords:    []string{"maps", "harita", "konum", "yol", "tarif", "google maps", "haritalar"},
	},
	{
		ID:              "spotify",
		Name:            "Spotify",
		Description:     "Müzik dinleyin",
		Icon:            "/icons/spotify.svg",
		WebURL:          "https://open.spotify.com",
		NativeURL:       "spotify://",
		Keywords:        []string{"spotify", "müzik", "music", "dinle", "listen", "şarkı", "song"},
		SearchURL:       "https://open.spotify.com/search/{query}",
		NativeSearchURL: "spotify:search:{query}",
	},
	{
		ID:          "twitter",
		Name:        "Twitter",
		Description: "Güncel olayları takip edin",
		Icon:        "/icons/twitter.svg",
		WebURL:      "https://twitter.com",
		NativeURL:   "twitter://",
		Keywords:    []string{"twitter", "tweet", "sosyal medya", "social media"},
	},
	{
		ID:          "instagram",
		Name:        "Instagram",
		Description: "Fotoğraf ve video paylaşın",
		Icon:        "/icons/instagram.svg",
		WebURL:      "https://www.instagram.com",
		NativeURL:   "instagram://",
		Keywords:    []string{"instagram", "insta", "foto", "fotoğraf", "photo", "sosyal medya", "social media"},
	},
}

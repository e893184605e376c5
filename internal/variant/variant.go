// Package variant describes the configurable presentation of the landing
// page: icons, animation flourishes and assistant wording. One Variant
// replaces what would otherwise be separate copies of the page.
package variant

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ashureev/softsell/internal/chat"
	"gopkg.in/yaml.v3"
)

// Icons names the icon glyphs the page script renders.
type Icons struct {
	Launcher  string `yaml:"launcher" json:"launcher"`
	Send      string `yaml:"send" json:"send"`
	Close     string `yaml:"close" json:"close"`
	LightMode string `yaml:"light_mode" json:"lightMode"`
	DarkMode  string `yaml:"dark_mode" json:"darkMode"`
}

// Animations toggles optional visual flourishes.
type Animations struct {
	HeroFloat     bool `yaml:"hero_float" json:"heroFloat"`
	CardHover     bool `yaml:"card_hover" json:"cardHover"`
	TypingDots    bool `yaml:"typing_dots" json:"typingDots"`
	PulseLauncher bool `yaml:"pulse_launcher" json:"pulseLauncher"`
}

// Variant is the full presentation configuration.
type Variant struct {
	Name       string            `yaml:"name" json:"name"`
	Extends    string            `yaml:"extends,omitempty" json:"-"`
	ChatTitle  string            `yaml:"chat_title" json:"chatTitle"`
	Icons      Icons             `yaml:"icons" json:"icons"`
	Animations Animations        `yaml:"animations" json:"animations"`
	Greeting   string            `yaml:"greeting" json:"greeting"`
	Replies    map[string]string `yaml:"replies,omitempty" json:"-"`
}

// ErrUnknownPreset is returned for preset names that do not exist.
var ErrUnknownPreset = errors.New("unknown variant preset")

var presets = map[string]Variant{
	"classic": {
		Name:      "classic",
		ChatTitle: "SoftSell Assistant",
		Icons: Icons{
			Launcher:  "message-circle",
			Send:      "send",
			Close:     "x",
			LightMode: "sun",
			DarkMode:  "moon",
		},
		Greeting: chat.Greeting,
	},
	"polished": {
		Name:      "polished",
		ChatTitle: "SoftSell AI Assistant",
		Icons: Icons{
			Launcher:  "bot",
			Send:      "arrow-up-circle",
			Close:     "chevron-down",
			LightMode: "sun",
			DarkMode:  "moon-star",
		},
		Animations: Animations{
			HeroFloat:     true,
			CardHover:     true,
			TypingDots:    true,
			PulseLauncher: true,
		},
		Greeting: chat.Greeting,
	},
}

// Presets lists the built-in variant names.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns a copy of the named built-in variant.
func Preset(name string) (Variant, error) {
	v, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q (have %s)", ErrUnknownPreset, name, strings.Join(Presets(), ", "))
	}
	v.Replies = nil
	return v, nil
}

// Default returns the classic preset.
func Default() Variant {
	v, _ := Preset("classic")
	return v
}

// Load reads a YAML variant file. The file is applied on top of the preset
// named by its "extends" key, or classic when absent.
func Load(path string) (Variant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Variant{}, fmt.Errorf("read variant file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML variant document. See Load.
func Parse(data []byte) (Variant, error) {
	var head struct {
		Extends string `yaml:"extends"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Variant{}, fmt.Errorf("parse variant: %w", err)
	}
	base := head.Extends
	if base == "" {
		base = "classic"
	}
	v, err := Preset(base)
	if err != nil {
		return Variant{}, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&v); err != nil {
		return Variant{}, fmt.Errorf("parse variant: %w", err)
	}
	if err := v.Validate(); err != nil {
		return Variant{}, err
	}
	return v, nil
}

// Validate checks that the variant is usable.
func (v Variant) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("variant name cannot be empty")
	}
	known := make(map[string]bool)
	for _, t := range chat.Topics() {
		known[string(t)] = true
	}
	for topic := range v.Replies {
		if !known[topic] {
			return fmt.Errorf("variant %s: unknown reply topic %q", v.Name, topic)
		}
	}
	return nil
}

// Catalog returns the assistant replies for this variant.
func (v Variant) Catalog() chat.Catalog {
	overrides := make(map[chat.Topic]string, len(v.Replies))
	for topic, text := range v.Replies {
		overrides[chat.Topic(topic)] = text
	}
	return chat.DefaultCatalog().Merge(overrides)
}

// SessionOptions returns the chat session options implied by the variant.
func (v Variant) SessionOptions() []chat.SessionOption {
	return []chat.SessionOption{chat.WithGreeting(v.Greeting)}
}

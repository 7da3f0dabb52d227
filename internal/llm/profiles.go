package llm

import (
	"sort"
	"time"
)

const (
	ProfileDefault    = "default"
	ProfileFast       = "fast"
	ProfileQuality    = "quality"
	ProfileCreative   = "creative"
	ProfileAnalytical = "analytical"
)

// Profile is a named bundle of sampling parameters for one generation call.
type Profile struct {
	Name             string        `json:"name"`
	Model            string        `json:"model"`
	MaxTokens        int           `json:"max_tokens"`
	Temperature      float64       `json:"temperature"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
	Timeout          time.Duration `json:"-"`
}

var profiles = map[string]Profile{
	ProfileDefault: {
		Name: ProfileDefault, Model: "gpt-4o-mini", MaxTokens: 1000,
		Temperature: 0.7, TopP: 1.0, Timeout: 30 * time.Second,
	},
	ProfileFast: {
		Name: ProfileFast, Model: "gpt-4o-mini", MaxTokens: 500,
		Temperature: 0.5, TopP: 0.9, Timeout: 15 * time.Second,
	},
	ProfileQuality: {
		Name: ProfileQuality, Model: "gpt-4o", MaxTokens: 1500,
		Temperature: 0.7, TopP: 1.0, FrequencyPenalty: 0.1, PresencePenalty: 0.1,
		Timeout: 45 * time.Second,
	},
	ProfileCreative: {
		Name: ProfileCreative, Model: "gpt-4o", MaxTokens: 1500,
		Temperature: 0.9, TopP: 0.95, FrequencyPenalty: 0.5, PresencePenalty: 0.6,
		Timeout: 45 * time.Second,
	},
	ProfileAnalytical: {
		Name: ProfileAnalytical, Model: "gpt-4o", MaxTokens: 2000,
		Temperature: 0.3, TopP: 0.9, FrequencyPenalty: 0.2, PresencePenalty: 0.1,
		Timeout: 60 * time.Second,
	},
}

// Overrides come from configuration. Zero values leave the profile alone;
// Temperature is a pointer because 0 is a meaningful temperature.
type Overrides struct {
	Model       string
	MaxTokens   int
	Temperature *float64
}

// Lookup returns a copy of the named profile, or the default profile.
func Lookup(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	return profiles[ProfileDefault]
}

// Resolve layers o on top of the named profile.
func Resolve(name string, o Overrides) Profile {
	p := Lookup(name)
	if o.Model != "" {
		p.Model = o.Model
	}
	if o.MaxTokens > 0 {
		p.MaxTokens = o.MaxTokens
	}
	if o.Temperature != nil {
		p.Temperature = *o.Temperature
	}
	return p
}

func Names() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

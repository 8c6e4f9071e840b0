package widget

// Settings is the widget configuration supplied by the embedding host.
type Settings struct {
	// Key is the license key. Required.
	Key string `yaml:"key"`

	// Origin is the host the widget is embedded on; the license is validated for it.
	Origin string `yaml:"origin"`

	Theme       string `yaml:"theme"`
	Voice       string `yaml:"voice"`
	Personality string `yaml:"personality"`
	Knowledge   string `yaml:"knowledge"`
	CallRouting bool   `yaml:"call_routing"`
	Debug       bool   `yaml:"debug"`
}

// WithDefaults fills the optional presentation fields.
func (s Settings) WithDefaults() Settings {
	if s.Theme == "" {
		s.Theme = "light"
	}
	if s.Voice == "" {
		s.Voice = "default"
	}
	return s
}

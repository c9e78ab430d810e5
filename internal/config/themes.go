package config

// ThemeConfig holds the light and dark theme names used by rendered pages.
type ThemeConfig struct {
	Light string
	Dark  string
}

// Themes returns the configured themes, falling back to light and dark.
func (c *Config) Themes() ThemeConfig {
	t := ThemeConfig{Light: c.ThemeLight, Dark: c.ThemeDark}
	if t.Light == "" {
		t.Light = "light"
	}
	if t.Dark == "" {
		t.Dark = "dark"
	}
	return t
}

// Package persona holds the static persona configuration: the system
// instruction shaping the bot's tone, stylistic negative constraints, and
// short free-text profiles of known chat participants. It is read-only after
// startup and is configuration, not user data.
package persona

import (
	"strconv"

	"github.com/rgachev/personabot/internal/config"
)

// Config is the immutable persona surface used when composing prompts.
type Config struct {
	system      string
	constraints string
	profiles    map[string]string
	unknown     string
}

// New builds a persona Config from application configuration.
func New(cfg config.PersonaConfig) *Config {
	profiles := make(map[string]string, len(cfg.Profiles))
	for k, v := range cfg.Profiles {
		profiles[k] = v
	}
	return &Config{
		system:      cfg.System,
		constraints: cfg.Constraints,
		profiles:    profiles,
		unknown:     cfg.UnknownProfile,
	}
}

// System returns the persona system instruction text.
func (c *Config) System() string { return c.system }

// Constraints returns the stylistic negative constraint text.
func (c *Config) Constraints() string { return c.constraints }

// Profile resolves a participant profile. The display username is looked up
// first; the numeric user id rendered as text is the fallback key. Lookup
// order matters: a username entry wins even when the numeric id would also
// match. Unknown participants get the configured generic profile text.
func (c *Config) Profile(username string, userID int64) string {
	if p, ok := c.profiles[username]; ok {
		return p
	}
	if p, ok := c.profiles[strconv.FormatInt(userID, 10)]; ok {
		return p
	}
	return c.unknown
}

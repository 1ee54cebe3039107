package middleware

import (
	"os"
	"strconv"
	"strings"
)

// CORSConfig is the cross-origin policy for a module. An origin of "*"
// admits any origin, echoed back rather than sent as a literal wildcard.
type CORSConfig struct {
	Enabled          bool     `toml:"enabled"`
	Origins          []string `toml:"origins"`
	AllowedMethods   []string `toml:"allowed_methods"`
	AllowedHeaders   []string `toml:"allowed_headers"`
	AllowCredentials bool     `toml:"allow_credentials"`
	MaxAge           int      `toml:"max_age"`
}

// CORSEnv names the environment variables that override CORSConfig. List
// values are comma separated.
type CORSEnv struct {
	Enabled          string
	Origins          string
	AllowedMethods   string
	AllowedHeaders   string
	AllowCredentials string
	MaxAge           string
}

func (c *CORSConfig) Finalize(env *CORSEnv) error {
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type", "Accept", "Last-Event-ID"}
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 3600
	}

	if env == nil {
		return nil
	}

	if b, ok := lookupBool(env.Enabled); ok {
		c.Enabled = b
	}
	if b, ok := lookupBool(env.AllowCredentials); ok {
		c.AllowCredentials = b
	}
	if l := lookupList(env.Origins); l != nil {
		c.Origins = l
	}
	if l := lookupList(env.AllowedMethods); l != nil {
		c.AllowedMethods = l
	}
	if l := lookupList(env.AllowedHeaders); l != nil {
		c.AllowedHeaders = l
	}
	if name := env.MaxAge; name != "" {
		if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
			c.MaxAge = n
		}
	}
	return nil
}

// Merge applies overlay. Booleans always apply since TOML cannot mark them
// unset; lists apply when present and MaxAge when positive.
func (c *CORSConfig) Merge(overlay *CORSConfig) {
	c.Enabled = overlay.Enabled
	c.AllowCredentials = overlay.AllowCredentials

	if overlay.Origins != nil {
		c.Origins = overlay.Origins
	}
	if overlay.AllowedMethods != nil {
		c.AllowedMethods = overlay.AllowedMethods
	}
	if overlay.AllowedHeaders != nil {
		c.AllowedHeaders = overlay.AllowedHeaders
	}
	if overlay.MaxAge > 0 {
		c.MaxAge = overlay.MaxAge
	}
}

func lookupBool(name string) (bool, bool) {
	if name == "" {
		return false, false
	}
	b, err := strconv.ParseBool(os.Getenv(name))
	return b, err == nil
}

func lookupList(name string) []string {
	if name == "" {
		return nil
	}
	v := os.Getenv(name)
	if v == "" {
		return nil
	}

	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

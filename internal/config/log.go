package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ParseLevel maps log.level to a zerolog level.
func ParseLevel(level string) (zerolog.Level, error) {
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log.level %q: %w", level, err)
	}
	return l, nil
}

// Package preference persists the visitor's dark mode choice.
package preference

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ashureev/softsell/internal/store"
)

// DarkModeKey is the preference key holding the dark mode flag.
const DarkModeKey = "darkMode"

// ColorSchemeHintHeader is the client hint carrying the OS color scheme.
const ColorSchemeHintHeader = "Sec-CH-Prefers-Color-Scheme"

// Resolve decides the effective dark mode. A stored non-empty value wins
// and means dark only when it is exactly "true". Otherwise the OS hint
// decides.
func Resolve(stored string, osPrefersDark bool) bool {
	if stored != "" {
		return stored == "true"
	}
	return osPrefersDark
}

// OSPrefersDark reads the operating system color scheme hint from r. The
// prefers query parameter overrides the header for clients without client
// hints.
func OSPrefersDark(r *http.Request) bool {
	hint := r.URL.Query().Get("prefers")
	if hint == "" {
		hint = r.Header.Get(ColorSchemeHintHeader)
	}
	return strings.EqualFold(strings.Trim(hint, `" `), "dark")
}

// Service reads and writes preferences for a visitor.
type Service struct {
	repo store.Repository
}

// NewService creates a preference service over repo.
func NewService(repo store.Repository) *Service {
	return &Service{repo: repo}
}

// DarkMode returns the effective dark mode for visitorID.
func (s *Service) DarkMode(ctx context.Context, visitorID string, osPrefersDark bool) (bool, error) {
	stored, _, err := s.repo.GetPreference(ctx, visitorID, DarkModeKey)
	if err != nil {
		return false, fmt.Errorf("load dark mode: %w", err)
	}
	return Resolve(stored, osPrefersDark), nil
}

// SetDarkMode stores the flag for visitorID. Every change is persisted.
func (s *Service) SetDarkMode(ctx context.Context, visitorID string, dark bool) error {
	if err := s.repo.SetPreference(ctx, visitorID, DarkModeKey, strconv.FormatBool(dark)); err != nil {
		return fmt.Errorf("save dark mode: %w", err)
	}
	return nil
}

// Toggle flips the effective dark mode and stores the result.
func (s *Service) Toggle(ctx context.Context, visitorID string, osPrefersDark bool) (bool, error) {
	current, err := s.DarkMode(ctx, visitorID, osPrefersDark)
	if err != nil {
		return false, err
	}
	next := !current
	if err := s.SetDarkMode(ctx, visitorID, next); err != nil {
		return false, err
	}
	return next, nil
}

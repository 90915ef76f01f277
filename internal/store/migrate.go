package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/persona-chat-api/internal/models"
)

// Migration upgrades a document to Version.
type Migration struct {
	Version     string
	Description string
	Apply       func(*Document) error
}

// Migrations lists schema upgrades in ascending version order.
var Migrations = []Migration{
	{
		Version:     "1.1.0",
		Description: "normalise emails and backfill preference defaults",
		Apply:       backfillUserDefaults,
	},
	{
		Version:     "1.2.0",
		Description: "add chat collections and seed default characters",
		Apply:       seedDefaultCharacters,
	},
}

// LatestVersion is the version reached after all migrations.
func LatestVersion() string {
	if len(Migrations) == 0 {
		return InitialVersion
	}
	return Migrations[len(Migrations)-1].Version
}

// Pending returns the migrations not yet applied to the current document.
func (s *Store) Pending() ([]Migration, error) {
	var pending []Migration
	err := s.View(func(d *Document) error {
		var err error
		pending, err = pendingFor(d.Metadata.Version)
		return err
	})
	return pending, err
}

// Migrate applies pending migrations in one update and returns the versions applied.
func (s *Store) Migrate() ([]string, error) {
	var applied []string
	err := s.Update(func(d *Document) error {
		pending, err := pendingFor(d.Metadata.Version)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}
		for _, m := range pending {
			if err := m.Apply(d); err != nil {
				return fmt.Errorf("migration %s: %w", m.Version, err)
			}
			d.Metadata.Version = m.Version
			applied = append(applied, m.Version)
		}
		d.Metadata.LastMigration = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

func pendingFor(current string) ([]Migration, error) {
	var out []Migration
	for _, m := range Migrations {
		cmp, err := compareVersions(m.Version, current)
		if err != nil {
			return nil, err
		}
		if cmp > 0 {
			out = append(out, m)
		}
	}
	return out, nil
}

// compareVersions compares dotted numeric versions.
func compareVersions(a, b string) (int, error) {
	pa, err := parseVersion(a)
	if err != nil {
		return 0, err
	}
	pb, err := parseVersion(b)
	if err != nil {
		return 0, err
	}
	for i := 0; i < 3; i++ {
		switch {
		case pa[i] > pb[i]:
			return 1, nil
		case pa[i] < pb[i]:
			return -1, nil
		}
	}
	return 0, nil
}

func parseVersion(v string) ([3]int, error) {
	var out [3]int
	parts := strings.Split(strings.TrimPrefix(v, "v"), ".")
	if len(parts) == 0 || len(parts) > 3 {
		return out, fmt.Errorf("invalid version %q", v)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return out, fmt.Errorf("invalid version %q", v)
		}
		out[i] = n
	}
	return out, nil
}

func backfillUserDefaults(d *Document) error {
	defaults := models.DefaultPreferences()
	for i := range d.Users {
		u := &d.Users[i]
		u.Email = models.NormalizeEmail(u.Email)
		prefs := &u.Profile.Preferences
		if prefs.Theme == "" {
			prefs.Theme = defaults.Theme
		}
		if prefs.Language == "" {
			prefs.Language = defaults.Language
		}
		if u.Security.FailedLoginAttempts < 0 {
			u.Security.FailedLoginAttempts = 0
		}
	}
	return nil
}

func seedDefaultCharacters(d *Document) error {
	d.normalize()
	for _, c := range DefaultCharacters(time.Now()) {
		if d.CharacterIndex(c.ID) >= 0 {
			continue
		}
		d.Characters = append(d.Characters, c)
	}
	return nil
}

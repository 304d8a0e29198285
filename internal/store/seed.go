package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixtures describes users, images and assignments to load into an empty
// or existing database.
type Fixtures struct {
	Users       []FixtureUser       `yaml:"users"`
	Images      []FixtureImage      `yaml:"images"`
	Assignments []FixtureAssignment `yaml:"assignments"`
}

type FixtureUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type FixtureImage struct {
	Path    string `yaml:"path"`
	OCRText string `yaml:"ocr_text"`
}

// FixtureAssignment gives a user the listed image paths, or every fixture
// image when All is set.
type FixtureAssignment struct {
	Username string   `yaml:"username"`
	Images   []string `yaml:"images"`
	All      bool     `yaml:"all"`
}

// SeedResult counts what Seed created.
type SeedResult struct {
	Users       int
	Images      int
	Assignments int
}

// LoadFixtures parses a YAML fixture file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures parses YAML fixture data.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &fx, nil
}

// Seed loads fixtures. Existing users, images and assignments are left as
// they are, so seeding the same file twice is harmless.
func Seed(users *UserStore, annotations *AnnotationStore, fx *Fixtures) (SeedResult, error) {
	var res SeedResult

	userIDs := make(map[string]int64, len(fx.Users))
	for _, fu := range fx.Users {
		u, created, err := users.EnsureUser(fu.Username, fu.Password, fu.Role)
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", fu.Username, err)
		}
		userIDs[u.Username] = u.ID
		if created {
			res.Users++
		}
	}

	imageIDs := make(map[string]int64, len(fx.Images))
	var allImages []int64
	for _, fi := range fx.Images {
		before, err := annotations.db.ImageCount()
		if err != nil {
			return res, err
		}
		id, err := annotations.CreateImage(fi.Path, fi.OCRText)
		if err != nil {
			return res, fmt.Errorf("seed image %s: %w", fi.Path, err)
		}
		after, err := annotations.db.ImageCount()
		if err != nil {
			return res, err
		}
		res.Images += after - before
		imageIDs[fi.Path] = id
		allImages = append(allImages, id)
	}

	for _, fa := range fx.Assignments {
		userID, ok := userIDs[fa.Username]
		if !ok {
			u, err := users.GetByUsername(fa.Username)
			if err != nil {
				return res, err
			}
			if u == nil {
				return res, fmt.Errorf("seed assignment: unknown user %q", fa.Username)
			}
			userID = u.ID
		}

		ids := allImages
		if !fa.All {
			ids = nil
			for _, p := range fa.Images {
				id, ok := imageIDs[p]
				if !ok {
					return res, fmt.Errorf("seed assignment: unknown image %q", p)
				}
				ids = append(ids, id)
			}
		}

		n, err := annotations.Assign([]int64{userID}, ids)
		if err != nil {
			return res, fmt.Errorf("seed assignment for %s: %w", fa.Username, err)
		}
		res.Assignments += n
	}

	return res, nil
}

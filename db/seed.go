package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"eduverse_backend/models"
)

// SeedCatalog is the layout of the YAML seed file.
type SeedCatalog struct {
	Admin   *SeedAdmin   `yaml:"admin"`
	Courses []SeedCourse `yaml:"courses"`
}

type SeedAdmin struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type SeedCourse struct {
	Title      string       `yaml:"title"`
	Category   string       `yaml:"category"`
	Image      string       `yaml:"image"`
	Rating     float64      `yaml:"rating"`
	Instructor string       `yaml:"instructor"`
	Lessons    []SeedLesson `yaml:"lessons"`
}

// SeedLesson holds either Content (video URL, or quiz JSON kept verbatim)
// or Questions for a quiz, which are stored JSON-encoded.
type SeedLesson struct {
	Title     string           `yaml:"title"`
	Kind      string           `yaml:"kind"`
	Content   string           `yaml:"content"`
	Questions []map[string]any `yaml:"questions"`
}

// SeedFromFile loads a YAML catalog and seeds it. See SeedData.
func SeedFromFile(ctx context.Context, conn *sql.DB, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading seed file: %w", err)
	}
	var catalog SeedCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("error parsing seed file %s: %w", path, err)
	}
	return SeedData(ctx, conn, catalog)
}

// SeedData creates the admin account if it is missing and, when no course
// exists yet, inserts the catalog's courses and lessons.
func SeedData(ctx context.Context, conn *sql.DB, catalog SeedCatalog) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if a := catalog.Admin; a != nil && a.Email != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("error hashing admin password: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (name, email, password_hash, role, is_verified)
			VALUES ($1, $2, $3, $4, TRUE)
			ON CONFLICT (email) DO NOTHING
		`, a.Name, a.Email, string(hash), models.RoleAdmin); err != nil {
			return fmt.Errorf("error seeding admin: %w", err)
		}
	}

	var courseCount int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&courseCount); err != nil {
		return fmt.Errorf("error counting courses: %w", err)
	}

	if courseCount == 0 {
		for _, c := range catalog.Courses {
			var courseID int
			if err := tx.QueryRowContext(ctx, `
				INSERT INTO courses (title, category, image, rating, instructor)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id
			`, c.Title, c.Category, c.Image, c.Rating, c.Instructor).Scan(&courseID); err != nil {
				return fmt.Errorf("error seeding course %q: %w", c.Title, err)
			}

			for i, l := range c.Lessons {
				content := l.Content
				if l.Kind == string(models.LessonQuiz) && content == "" {
					encoded, err := json.Marshal(l.Questions)
					if err != nil {
						return fmt.Errorf("error encoding quiz %q: %w", l.Title, err)
					}
					content = string(encoded)
				}
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO lessons (course_id, title, position, kind, content)
					VALUES ($1, $2, $3, $4, $5)
				`, courseID, l.Title, i+1, l.Kind, content); err != nil {
					return fmt.Errorf("error seeding lesson %q: %w", l.Title, err)
				}
			}
		}
		log.Printf("Seeded %d courses", len(catalog.Courses))
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

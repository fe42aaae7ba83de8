// Package export copies guidestore data between backends using the
// flat-file container layout as the interchange format.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/adrianmcphee/guidestore"
)

// Snapshot reads every collection of s into a container. The legacy public
// category list is included when the backend has one, so a snapshot of a
// Redis store can be loaded as a flat-file store without losing it.
func Snapshot(ctx context.Context, s *guidestore.Store) (*guidestore.Container, error) {
	c := guidestore.NewContainer()

	var err error
	if c.Users, err = s.ListUsers(ctx); err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	if c.Tutorials, err = s.ListTutorials(ctx, guidestore.TutorialFilter{}); err != nil {
		return nil, fmt.Errorf("read tutorials: %w", err)
	}
	if c.Categories, err = s.GetCategories(ctx); err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}
	if c.Feedback, err = s.ListFeedback(ctx); err != nil {
		return nil, fmt.Errorf("read feedback: %w", err)
	}

	legacy, err := s.LegacyPublicCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("read legacy categories: %w", err)
	}
	if err := c.SetLegacyPublicCategories(legacy); err != nil {
		return nil, err
	}
	return c, nil
}

// Export writes a snapshot of s to w as a pretty-printed container document.
func Export(ctx context.Context, s *guidestore.Store, w io.Writer) error {
	c, err := Snapshot(ctx, s)
	if err != nil {
		return err
	}
	data, err := guidestore.EncodeContainer(c)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ImportReport counts what Import wrote and skipped.
type ImportReport struct {
	Users, Tutorials, Feedback int
	// Existing counts users and tutorials whose id was already present.
	Existing   int
	Categories int
}

// Import loads a container into s. Users and tutorials already present are
// left alone, categories are replaced wholesale, and feedback is appended.
// The legacy public category list is never written; run the migration on
// the source first.
func Import(ctx context.Context, s *guidestore.Store, c *guidestore.Container) (ImportReport, error) {
	var report ImportReport

	for _, u := range c.Users {
		if _, err := s.CreateUser(ctx, u); err != nil {
			if guidestore.IsAlreadyExists(err) {
				report.Existing++
				continue
			}
			return report, fmt.Errorf("import user %s: %w", u.ID, err)
		}
		report.Users++
	}

	for _, t := range c.Tutorials {
		if _, err := s.CreateTutorial(ctx, t); err != nil {
			if guidestore.IsAlreadyExists(err) {
				report.Existing++
				continue
			}
			return report, fmt.Errorf("import tutorial %s: %w", t.ID, err)
		}
		report.Tutorials++
	}

	if len(c.Categories) > 0 {
		if _, err := s.SetCategories(ctx, c.Categories); err != nil {
			return report, fmt.Errorf("import categories: %w", err)
		}
		report.Categories = len(c.Categories)
	}

	for _, f := range c.Feedback {
		if _, err := s.CreateFeedback(ctx, f); err != nil {
			return report, fmt.Errorf("import feedback: %w", err)
		}
		report.Feedback++
	}

	return report, nil
}

// Summary renders per-collection counts of a container, one per line.
func Summary(c *guidestore.Container) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "users:      %d\n", len(c.Users))
	fmt.Fprintf(&sb, "tutorials:  %d\n", len(c.Tutorials))
	fmt.Fprintf(&sb, "categories: %d", len(c.Categories))

	public := 0
	for _, cat := range c.Categories {
		if cat.Public() {
			public++
		}
	}
	fmt.Fprintf(&sb, " (%d public)\n", public)
	fmt.Fprintf(&sb, "feedback:   %d\n", len(c.Feedback))

	if legacy, err := c.LegacyPublicCategories(); err == nil && len(legacy) > 0 {
		fmt.Fprintf(&sb, "legacy public categories: %d\n", len(legacy))
	}
	return sb.String()
}

package service

import (
	"lorewiki-backend/internal/models"
	"lorewiki-backend/internal/title"
)

// pickImage chooses the image to show. An explicit candidate list wins
// and is sampled uniformly; otherwise the database pick runs, retried
// once with a fresh draw.
func (s *Service) pickImage(choices []string) (title.Title, string, bool) {
	if len(choices) > 0 {
		t, err := fileTitle(choices[s.pickIndex(len(choices))])
		if err != nil {
			return title.Title{}, "", false
		}
		return t, "choices", true
	}

	page, err := s.randomFilePage()
	if err != nil {
		page, err = s.randomFilePage()
	}
	if err != nil {
		return title.Title{}, "", false
	}

	t, err := title.FromDBKey(title.NamespaceFile, page.Title)
	if err != nil {
		return title.Title{}, "", false
	}
	return t, "database", true
}

// randomFilePage scans the random-key index upward from a fresh draw
// and takes the first non-redirect file page. Draws near the top of the
// keyspace match less often than draws near the bottom, which skews
// selection toward pages sitting after large key gaps; the single retry
// keeps empty results rare but leaves that skew alone.
func (s *Service) randomFilePage() (*models.Page, error) {
	return s.pages.RandomInNamespace(title.NamespaceFile, s.randFloat(), s.cfg.StrictMime)
}

// fileTitle resolves a candidate entry, defaulting bare names into the
// file namespace while honoring an explicit prefix.
func fileTitle(name string) (title.Title, error) {
	if t, err := title.Parse(name); err == nil && t.Namespace() == title.NamespaceFile {
		return t, nil
	}
	return title.New(title.NamespaceFile, name)
}

package service

import (
	"math/rand"
	"strings"

	"lorewiki-backend/internal/models"
	"lorewiki-backend/internal/render"
	"lorewiki-backend/internal/title"
)

// PageStore is the slice of the page repository the plugin reads.
type PageStore interface {
	GetByTitle(t title.Title) (*models.Page, error)
	RandomInNamespace(ns title.Namespace, threshold float64, imageOnly bool) (*models.Page, error)
}

// RevisionStore resolves a page's current description text.
type RevisionStore interface {
	CurrentByPageID(pageID uint) (*models.Revision, error)
}

// Config is fixed at activation. StrictMime restricts database picks to
// pages backed by an image asset; NoCache marks every expansion
// uncacheable.
type Config struct {
	StrictMime bool
	NoCache    bool
}

// Service expands the randomimage tag: pick an image, build thumbnail
// markup, expand it through the host renderer, and strip the enlarge
// control from the result.
type Service struct {
	pages     PageStore
	revisions RevisionStore
	cfg       Config

	// Randomness sources are fields so tests can pin them.
	randFloat func() float64
	pickIndex func(n int) int
}

func New(pages PageStore, revisions RevisionStore, cfg Config) *Service {
	initMetrics()
	return &Service{
		pages:     pages,
		revisions: revisions,
		cfg:       cfg,
		randFloat: rand.Float64,
		pickIndex: rand.Intn,
	}
}

// Expand is the tag handler. Every failure mode degrades to empty
// output so a broken tag never takes the page down with it.
func (s *Service) Expand(rc *render.Context, body string, attrs map[string]string) (string, error) {
	if s.cfg.NoCache {
		rc.DisableCache()
	}

	opts := ParseOptions(attrs)

	t, source, ok := s.pickImage(opts.Choices)
	if !ok {
		selectionMisses.Inc()
		return "", nil
	}
	selectionsTotal.WithLabelValues(source).Inc()

	caption := strings.TrimSpace(body)
	if caption == "" {
		caption = s.captionFor(t)
	}

	markup := BuildMarkup(t.PrefixedText(), opts.Size, opts.Float, caption)
	html, err := rc.ExpandFragment(markup)
	if err != nil {
		return "", nil
	}

	return StripMagnify(html), nil
}

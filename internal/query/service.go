// Package query is the externally-facing operation set of the engine. It
// validates inputs, applies defaults and per-call time budgets, and is the
// only layer that translates internal outcomes for external surfaces.
package query

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"umlsd/internal/hierarchy"
	"umlsd/internal/outcome"
	"umlsd/internal/store"
	"umlsd/internal/umls"
)

// Options tune the façade's defaults and budgets.
type Options struct {
	Timeout           time.Duration
	DefaultVocabulary string
	DefaultLimit      int
	MaxLimit          int
}

// Service composes the concept store and the hierarchy resolver behind a
// validated operation set. It is stateless; one instance serves all
// requests concurrently.
type Service struct {
	store    *store.Store
	resolver *hierarchy.Resolver
	opts     Options
	log      *logrus.Logger
}

// New builds a Service. Zero-valued options get sensible defaults.
func New(s *store.Store, r *hierarchy.Resolver, opts Options, log *logrus.Logger) *Service {
	if opts.DefaultVocabulary == "" {
		opts.DefaultVocabulary = "HPO"
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 100
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: s, resolver: r, opts: opts, log: log}
}

// withBudget applies the per-call time budget when one is configured.
func (s *Service) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opts.Timeout)
}

// fail logs the precise outcome kind before handing the error outward, so
// translation at the boundary never loses the original classification.
func (s *Service) fail(op string, err error, fields logrus.Fields) error {
	fields["op"] = op
	fields["kind"] = outcome.KindOf(err).String()
	s.log.WithFields(fields).Warn(err)
	return err
}

func (s *Service) checkCUI(op, cui string) error {
	if !umls.ValidCUI(cui) {
		return outcome.Errorf(outcome.InvalidArgument, op, "malformed CUI %q", cui)
	}
	return nil
}

// vocabulary applies the default and rejects identifiers outside the
// whitelist.
func (s *Service) vocabulary(op, sab string) (string, error) {
	if sab == "" {
		sab = s.opts.DefaultVocabulary
	}
	if !umls.KnownVocabularies[sab] {
		return "", outcome.Errorf(outcome.InvalidArgument, op, "unknown source vocabulary %q", sab)
	}
	return sab, nil
}

func (s *Service) limit(op string, limit int) (int, error) {
	if limit == 0 {
		return s.opts.DefaultLimit, nil
	}
	if limit < 0 || limit > s.opts.MaxLimit {
		return 0, outcome.Errorf(outcome.InvalidArgument, op,
			"limit must be between 1 and %d, got %d", s.opts.MaxLimit, limit)
	}
	return limit, nil
}

// SearchTerms searches preferred strings within one vocabulary.
func (s *Service) SearchTerms(ctx context.Context, term, sab string, limit int) ([]umls.SearchResult, error) {
	const op = "query.SearchTerms"
	if term == "" {
		return nil, outcome.Errorf(outcome.InvalidArgument, op, "search term is required")
	}
	sab, err := s.vocabulary(op, sab)
	if err != nil {
		return nil, err
	}
	limit, err = s.limit(op, limit)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()
	results, err := s.store.SearchTerms(ctx, term, sab, limit)
	if err != nil {
		return nil, s.fail(op, err, logrus.Fields{"term": term, "sab": sab})
	}
	return results, nil
}

// SearchConcepts searches CUIs across all vocabularies.
func (s *Service) SearchConcepts(ctx context.Context, term string, limit int) ([]umls.ConceptMatch, error) {
	const op = "query.SearchConcepts"
	if term == "" {
		return nil, outcome.Errorf(outcome.InvalidArgument, op, "search term is required")
	}
	limit, err := s.limit(op, limit)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()
	matches, err := s.store.SearchConcepts(ctx, term, limit)
	if err != nil {
		return nil, s.fail(op, err, logrus.Fields{"term": term})
	}
	return matches, nil
}

// GetConcept returns the detail view for one CUI.
func (s *Service) GetConcept(ctx context.Context, cui string) (*umls.Concept, error) {
	const op = "query.GetConcept"
	if err := s.checkCUI(op, cui); err != nil {
		return nil, err
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()
	concept, err := s.store.GetConcept(ctx, cui)
	if err != nil {
		return nil, s.fail(op, err, logrus.Fields{"cui": cui})
	}
	return concept, nil
}

// Parents returns a concept's immediate parents.
func (s *Service) Parents(ctx context.Context, cui, sab string) ([]string, error) {
	const op = "query.Parents"
	if err := s.checkCUI(op, cui); err != nil {
		return nil, err
	}
	sab, err := s.vocabulary(op, sab)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()
	parents, err := s.resolver.Parents(ctx, cui, sab)
	if err != nil {
		return nil, s.fail(op, err, logrus.Fields{"cui": cui, "sab": sab})
	}
	return parents, nil
}

// Ancestors returns a concept's full ancestor set.
func (s *Service) Ancestors(ctx context.Context, cui, sab string) ([]string, error) {
	const op = "query.Ancestors"
	if err := s.checkCUI(op, cui); err != nil {
		return nil, err
	}
	sab, err := s.vocabulary(op, sab)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()
	ancestors, err := s.resolver.Ancestors(ctx, cui, sab)
	if err != nil {
		return nil, s.fail(op, err, logrus.Fields{"cui": cui, "sab": sab})
	}
	return ancestors, nil
}

// Depth returns a concept's distance to the nearest root.
func (s *Service) Depth(ctx context.Context, cui, sab string) (int, error) {
	const op = "query.Depth"
	if err := s.checkCUI(op, cui); err != nil {
		return 0, err
	}
	sab, err := s.vocabulary(op, sab)
	if err != nil {
		return 0, err
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()
	depth, err := s.resolver.Depth(ctx, cui, sab)
	if err != nil {
		return 0, s.fail(op, err, logrus.Fields{"cui": cui, "sab": sab})
	}
	return depth, nil
}

// LCA returns the lowest common ancestor of two concepts.
func (s *Service) LCA(ctx context.Context, a, b, sab string) (*umls.CommonAncestor, error) {
	const op = "query.LCA"
	if err := s.checkCUI(op, a); err != nil {
		return nil, err
	}
	if err := s.checkCUI(op, b); err != nil {
		return nil, err
	}
	sab, err := s.vocabulary(op, sab)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()
	lca, err := s.resolver.LCA(ctx, a, b, sab)
	if err != nil {
		return nil, s.fail(op, err, logrus.Fields{"cui1": a, "cui2": b, "sab": sab})
	}
	return lca, nil
}

// WuPalmer returns Wu-Palmer similarity between two concepts.
func (s *Service) WuPalmer(ctx context.Context, a, b, sab string) (*umls.Similarity, error) {
	const op = "query.WuPalmer"
	if err := s.checkCUI(op, a); err != nil {
		return nil, err
	}
	if err := s.checkCUI(op, b); err != nil {
		return nil, err
	}
	sab, err := s.vocabulary(op, sab)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()
	sim, err := s.resolver.WuPalmer(ctx, a, b, sab)
	if err != nil {
		return nil, s.fail(op, err, logrus.Fields{"cui1": a, "cui2": b, "sab": sab})
	}
	return sim, nil
}

// CUIForCode resolves a vocabulary code to its CUI.
func (s *Service) CUIForCode(ctx context.Context, sab, code string) (string, error) {
	const op = "query.CUIForCode"
	if code == "" {
		return "", outcome.Errorf(outcome.InvalidArgument, op, "code is required")
	}
	sab, err := s.vocabulary(op, sab)
	if err != nil {
		return "", err
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()
	cui, err := s.store.CUIForCode(ctx, sab, code)
	if err != nil {
		return "", s.fail(op, err, logrus.Fields{"sab": sab, "code": code})
	}
	return cui, nil
}

// CodeForCUI returns a concept's code in one vocabulary.
func (s *Service) CodeForCUI(ctx context.Context, cui, sab string) (*umls.CodeMapping, error) {
	const op = "query.CodeForCUI"
	if err := s.checkCUI(op, cui); err != nil {
		return nil, err
	}
	sab, err := s.vocabulary(op, sab)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()
	mapping, err := s.store.CodeForCUI(ctx, cui, sab)
	if err != nil {
		return nil, s.fail(op, err, logrus.Fields{"cui": cui, "sab": sab})
	}
	return mapping, nil
}

// CodesForCUI lists every registered code for a CUI.
func (s *Service) CodesForCUI(ctx context.Context, cui string) ([]umls.CodeMapping, error) {
	const op = "query.CodesForCUI"
	if err := s.checkCUI(op, cui); err != nil {
		return nil, err
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()
	codes, err := s.store.CodesForCUI(ctx, cui)
	if err != nil {
		return nil, s.fail(op, err, logrus.Fields{"cui": cui})
	}
	if len(codes) == 0 {
		return nil, s.fail(op, outcome.Errorf(outcome.NotFound, op,
			"no codes registered for CUI %s", cui), logrus.Fields{"cui": cui})
	}
	return codes, nil
}

// MapCode translates a code from one vocabulary to another through their
// shared CUI.
func (s *Service) MapCode(ctx context.Context, fromSAB, code, toSAB string) (string, []umls.CodeMapping, error) {
	const op = "query.MapCode"
	if code == "" {
		return "", nil, outcome.Errorf(outcome.InvalidArgument, op, "code is required")
	}
	fromSAB, err := s.vocabulary(op, fromSAB)
	if err != nil {
		return "", nil, err
	}
	toSAB, err = s.vocabulary(op, toSAB)
	if err != nil {
		return "", nil, err
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()
	cui, err := s.store.CUIForCode(ctx, fromSAB, code)
	if err != nil {
		return "", nil, s.fail(op, err, logrus.Fields{"sab": fromSAB, "code": code})
	}
	codes, err := s.store.CodesForCUI(ctx, cui)
	if err != nil {
		return "", nil, s.fail(op, err, logrus.Fields{"cui": cui})
	}
	var mapped []umls.CodeMapping
	for _, m := range codes {
		if m.SAB == toSAB {
			mapped = append(mapped, m)
		}
	}
	return cui, mapped, nil
}

// Healthz verifies store connectivity.
func (s *Service) Healthz(ctx context.Context) error {
	ctx, cancel := s.withBudget(ctx)
	defer cancel()
	return s.store.Ping(ctx)
}

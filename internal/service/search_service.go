package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/wes-directory/internal/category"
	"github.com/weiawesome/wes-directory/internal/domain"
	"github.com/weiawesome/wes-directory/internal/repository"
	"github.com/weiawesome/wes-directory/pkg/log"
)

const (
	defaultLimit        = 6
	maxLimit            = 50
	defaultTimeout      = 3 * time.Second
	defaultTagScanLimit = 200
)

// Config tunes the search engine.
type Config struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	TagScanLimit int           `mapstructure:"tag_scan_limit"`
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
}

type directoryServiceImpl struct {
	entries  repository.EntryRepository
	resolver *category.Resolver
	cfg      Config
}

// NewDirectoryService creates a new directory search service.
func NewDirectoryService(entries repository.EntryRepository, resolver *category.Resolver, cfg Config) DirectoryService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.TagScanLimit <= 0 {
		cfg.TagScanLimit = defaultTagScanLimit
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = maxLimit
	}
	return &directoryServiceImpl{
		entries:  entries,
		resolver: resolver,
		cfg:      cfg,
	}
}

func (s *directoryServiceImpl) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.resolver.List(ctx)
}

// subQueries collects the outcome of each parallel read. Fields are only
// read after the owning goroutine has set its done flag under mu.
type subQueries struct {
	mu sync.Mutex

	fieldRows []*domain.Entry
	fieldsOK  bool
	fieldsErr error

	tagRows []*domain.Entry
	tagsOK  bool
	tagsRun bool
	tagsErr error

	count    int
	countOK  bool
	countErr error
}

// errs reports each sub-query's failure. One that had not finished by the
// deadline reports context.DeadlineExceeded. Callers hold mu.
func (sq *subQueries) errs() (fields, count, tags error) {
	fields = outcome(sq.fieldsOK, sq.fieldsErr)
	count = outcome(sq.countOK, sq.countErr)
	if sq.tagsRun {
		tags = outcome(sq.tagsOK, sq.tagsErr)
	}
	return fields, count, tags
}

func outcome(ok bool, err error) error {
	if ok {
		return nil
	}
	if err == nil {
		return context.DeadlineExceeded
	}
	return err
}

func (s *directoryServiceImpl) Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResult, error) {
	req.Term = strings.TrimSpace(req.Term)
	req.CategoryCode = strings.TrimSpace(req.CategoryCode)
	if req.Term == "" && req.CategoryCode == "" {
		return nil, domain.ErrEmptyQuery
	}
	if req.TenantID == "" {
		return nil, domain.ErrTenantNotResolvable
	}
	s.normalizeRequest(req)

	l := log.Ctx(ctx)

	filter := repository.EntryFilter{
		TenantID:     req.TenantID,
		Statuses:     req.Statuses,
		Term:         req.Term,
		CategoryCode: req.CategoryCode,
	}

	qctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	if !req.IsCategoryBrowse() {
		filter.CategoryCodes = s.resolver.Resolve(qctx, req.Term)
	}

	sq := &subQueries{tagsRun: !req.IsCategoryBrowse()}
	g, gctx := errgroup.WithContext(qctx)

	// Each sub-query records its own outcome and never fails the group, so
	// one slow or broken read does not cancel the others.
	g.Go(func() error {
		rows, err := s.entries.FindByFields(gctx, filter, req.Offset, req.Limit+1)
		sq.mu.Lock()
		defer sq.mu.Unlock()
		sq.fieldRows, sq.fieldsErr, sq.fieldsOK = rows, err, err == nil
		return nil
	})

	g.Go(func() error {
		n, err := s.entries.CountByFields(gctx, filter)
		sq.mu.Lock()
		defer sq.mu.Unlock()
		sq.count, sq.countErr, sq.countOK = n, err, err == nil
		return nil
	})

	if sq.tagsRun {
		g.Go(func() error {
			rows, err := s.entries.FindByTagsOnly(gctx, filter, s.cfg.TagScanLimit)
			sq.mu.Lock()
			defer sq.mu.Unlock()
			sq.tagRows, sq.tagsErr, sq.tagsOK = rows, err, err == nil
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-qctx.Done():
	}

	// Abandoned sub-queries may still record their outcome after the
	// deadline, so everything read from sq is taken under mu.
	sq.mu.Lock()
	result, err := s.merge(req, sq)
	fieldsErr, countErr, tagsErr := sq.errs()
	sq.mu.Unlock()

	if err != nil {
		l.Warn().Err(err).
			Str(log.FieldTenantID, req.TenantID).
			Str(log.FieldTerm, req.Term).
			Str(log.FieldCategory, req.CategoryCode).
			Msg("search failed")
		return nil, err
	}

	if result.Partial() {
		l.Warn().
			Str(log.FieldTenantID, req.TenantID).
			Str(log.FieldTerm, req.Term).
			Int(log.FieldTimedOutSubs, result.TimedOutSubQueries).
			AnErr("fields_err", fieldsErr).
			AnErr("tags_err", tagsErr).
			AnErr("count_err", countErr).
			Msg("search returned partial results")
	}

	return result, nil
}

// merge builds one page from whatever sub-queries completed. Field matches
// come first, tag-only matches after them; both are ordered by name.
func (s *directoryServiceImpl) merge(req *domain.SearchRequest, sq *subQueries) (*domain.SearchResult, error) {
	timedOut := 0
	if !sq.fieldsOK {
		timedOut++
	}
	if !sq.countOK {
		timedOut++
	}
	if sq.tagsRun && !sq.tagsOK {
		timedOut++
	}

	if !sq.fieldsOK && !sq.tagsOK {
		cause := sq.fieldsErr
		if cause == nil {
			cause = context.DeadlineExceeded
		}
		if errors.Is(cause, repository.ErrTenantRequired) {
			return nil, domain.ErrTenantNotResolvable
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrHardTimeout, cause)
	}

	estimated := timedOut > 0
	limit := req.Limit

	// fieldTotal is the number of field matches across all pages.
	var fieldTotal int
	switch {
	case sq.countOK:
		fieldTotal = sq.count
	case sq.fieldsOK && (len(sq.fieldRows) > 0 || req.Offset == 0) && len(sq.fieldRows) <= limit:
		fieldTotal = req.Offset + len(sq.fieldRows)
	case sq.fieldsOK:
		fieldTotal = req.Offset + len(sq.fieldRows)
		estimated = true
	default:
		estimated = true
	}

	window := make([]*domain.Entry, 0, limit+1)
	if sq.fieldsOK {
		window = append(window, sq.fieldRows...)
	}

	if sq.tagsOK && len(window) <= limit {
		start := req.Offset - fieldTotal
		if start < 0 {
			start = 0
		}
		if len(sq.fieldRows) > 0 {
			start = 0
		}
		for i := start; i < len(sq.tagRows) && len(window) <= limit; i++ {
			window = append(window, sq.tagRows[i])
		}
	}

	window = dedupe(window)

	hasMore := len(window) > limit
	if hasMore {
		window = window[:limit]
	}

	total := fieldTotal
	if sq.tagsOK {
		total += len(sq.tagRows)
		if len(sq.tagRows) >= s.cfg.TagScanLimit {
			estimated = true
		}
	}
	if floor := req.Offset + len(window); total < floor {
		total = floor
		estimated = true
	}

	return &domain.SearchResult{
		Entries:            window,
		TotalFound:         total,
		TotalEstimated:     estimated,
		HasMore:            hasMore,
		TimedOutSubQueries: timedOut,
	}, nil
}

func (s *directoryServiceImpl) normalizeRequest(req *domain.SearchRequest) {
	if req.Limit <= 0 {
		req.Limit = s.cfg.DefaultLimit
	}
	if req.Limit > s.cfg.MaxLimit {
		req.Limit = s.cfg.MaxLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.Timeout <= 0 || req.Timeout > s.cfg.Timeout {
		req.Timeout = s.cfg.Timeout
	}
	req.Statuses = searchableSubset(req.Statuses)
}

// searchableSubset narrows statuses to the searchable set; it never widens it.
func searchableSubset(statuses []string) []string {
	if len(statuses) == 0 {
		return domain.SearchableStatuses
	}
	out := make([]string, 0, len(statuses))
	for _, st := range statuses {
		for _, allowed := range domain.SearchableStatuses {
			if st == allowed {
				out = append(out, st)
				break
			}
		}
	}
	if len(out) == 0 {
		return domain.SearchableStatuses
	}
	return out
}

func dedupe(entries []*domain.Entry) []*domain.Entry {
	seen := make(map[string]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

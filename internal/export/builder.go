package export

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ghostery/trackerdb/internal/spec"
	"github.com/ghostery/trackerdb/internal/store"
)

// Target is the relational store the builder writes to. *store.DB
// implements it.
type Target interface {
	InsertCategory(ctx context.Context, name string) error
	Categories(ctx context.Context) ([]store.Category, error)
	InsertCompany(ctx context.Context, c *store.Company) error
	Companies(ctx context.Context) ([]store.Company, error)
	InsertTracker(ctx context.Context, t *store.Tracker) error
	InsertTrackerDomain(ctx context.Context, trackerID, domain string) error
}

// Source yields the spec records of one kind in a stable order.
// *spec.Loader implements it.
type Source interface {
	Load(kind spec.Kind) ([]*spec.Record, error)
}

// UnresolvedReferenceError reports a pattern whose category does not name
// any exported category.
type UnresolvedReferenceError struct {
	Kind  spec.Kind
	ID    string
	Field string
	Value string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s %q: %s %q does not match any exported category", e.Kind, e.ID, e.Field, e.Value)
}

// Stats counts the rows inserted by one build.
type Stats struct {
	Categories     int
	Companies      int
	Trackers       int
	TrackerDomains int
}

// Builder populates a Target from spec records in three ordered passes:
// categories, organizations, then patterns with their domains.
type Builder struct {
	target  Target
	source  Source
	logger  *log.Logger
	verbose bool
}

// NewBuilder creates a Builder.
//
// If logger is nil, a default logger writing to stderr is used. Per-record
// progress is only logged when verbose is set.
func NewBuilder(target Target, source Source, logger *log.Logger, verbose bool) *Builder {
	if logger == nil {
		logger = log.New(os.Stderr, "[export] ", log.LstdFlags)
	}
	return &Builder{
		target:  target,
		source:  source,
		logger:  logger,
		verbose: verbose,
	}
}

// Run executes the three passes. The first error aborts the build; rows
// written before it are left in the target.
func (b *Builder) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	categoryIDs, err := b.exportCategories(ctx, &stats)
	if err != nil {
		return stats, fmt.Errorf("categories: %w", err)
	}

	companyIDs, err := b.exportOrganizations(ctx, &stats)
	if err != nil {
		return stats, fmt.Errorf("organizations: %w", err)
	}

	if err := b.exportPatterns(ctx, categoryIDs, companyIDs, &stats); err != nil {
		return stats, fmt.Errorf("patterns: %w", err)
	}

	b.logger.Printf("Build complete: categories=%d, companies=%d, trackers=%d, domains=%d",
		stats.Categories, stats.Companies, stats.Trackers, stats.TrackerDomains)
	return stats, nil
}

// exportCategories inserts every category and returns the name -> id lookup
// built from the ids the store assigned.
func (b *Builder) exportCategories(ctx context.Context, stats *Stats) (map[string]int64, error) {
	records, err := b.source.Load(spec.KindCategories)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		name, err := record.Field("name").RequiredString()
		if err != nil {
			return nil, err
		}
		if err := b.target.InsertCategory(ctx, name); err != nil {
			return nil, err
		}
		stats.Categories++
		b.tracef("Exported category: %s", name)
	}

	categories, err := b.target.Categories(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(categories))
	for _, c := range categories {
		ids[c.Name] = c.ID
	}
	return ids, nil
}

// exportOrganizations inserts every organization and returns the
// name -> id lookup read back from the store.
func (b *Builder) exportOrganizations(ctx context.Context, stats *Stats) (map[string]string, error) {
	records, err := b.source.Load(spec.KindOrganizations)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		company, err := companyFromRecord(record)
		if err != nil {
			return nil, err
		}
		if err := b.target.InsertCompany(ctx, company); err != nil {
			return nil, err
		}
		stats.Companies++
		b.tracef("Exported company: %s (%s)", company.ID, company.Name)
	}

	companies, err := b.target.Companies(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(companies))
	for _, c := range companies {
		ids[c.Name] = c.ID
	}
	return ids, nil
}

// exportPatterns inserts every pattern, each immediately followed by its
// domain rows.
func (b *Builder) exportPatterns(ctx context.Context, categoryIDs map[string]int64, companyIDs map[string]string, stats *Stats) error {
	records, err := b.source.Load(spec.KindPatterns)
	if err != nil {
		return err
	}

	for _, record := range records {
		tracker, err := trackerFromRecord(record, categoryIDs, companyIDs)
		if err != nil {
			return err
		}
		if err := b.target.InsertTracker(ctx, tracker); err != nil {
			return err
		}
		stats.Trackers++

		raw, _ := record.Field("domains").OptionalString()
		domains := SplitDomains(raw)
		for _, domain := range domains {
			if err := b.target.InsertTrackerDomain(ctx, tracker.ID, domain); err != nil {
				return err
			}
			stats.TrackerDomains++
		}
		b.tracef("Exported tracker: %s (%s), %d domains", tracker.ID, tracker.Name, len(domains))
	}
	return nil
}

func companyFromRecord(record *spec.Record) (*store.Company, error) {
	name, err := record.Field("name").RequiredString()
	if err != nil {
		return nil, err
	}
	return &store.Company{
		ID:             record.ID,
		Name:           name,
		Description:    optional(record.Field("description")),
		PrivacyURL:     optional(record.Field("privacy_policy_url")),
		WebsiteURL:     optional(record.Field("website_url")),
		Country:        optional(record.Field("country")),
		PrivacyContact: optional(record.Field("privacy_contact")),
		Notes:          optional(record.Field("notes")),
		GhosteryID:     record.Field("ghostery_id").OptionalStringOr(""),
	}, nil
}

func trackerFromRecord(record *spec.Record, categoryIDs map[string]int64, companyIDs map[string]string) (*store.Tracker, error) {
	name, err := record.Field("name").RequiredString()
	if err != nil {
		return nil, err
	}

	category, err := record.Field("category").RequiredString()
	if err != nil {
		return nil, err
	}
	categoryID, ok := categoryIDs[category]
	if !ok {
		return nil, &UnresolvedReferenceError{
			Kind:  record.Kind,
			ID:    record.ID,
			Field: "category",
			Value: category,
		}
	}

	// An organization that matches no company leaves company_id NULL.
	var companyID sql.NullString
	if org, ok := record.Field("organization").OptionalString(); ok {
		if id, found := companyIDs[strings.TrimSpace(org)]; found {
			companyID = sql.NullString{String: id, Valid: true}
		}
	}

	return &store.Tracker{
		ID:         record.ID,
		Name:       name,
		CategoryID: categoryID,
		WebsiteURL: optional(record.Field("website_url")),
		CompanyID:  companyID,
		Notes:      optional(record.Field("notes")),
		Alias:      optional(record.Field("alias")),
		GhosteryID: record.Field("ghostery_id").OptionalStringOr(""),
	}, nil
}

// SplitDomains expands a multi-line domains field into one entry per
// non-blank line, in order.
func SplitDomains(raw string) []string {
	domains := []string{}
	for _, line := range strings.Split(raw, "\n") {
		if d := strings.TrimSpace(line); d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

func optional(h spec.FieldHandle) sql.NullString {
	value, ok := h.OptionalString()
	return sql.NullString{String: value, Valid: ok}
}

func (b *Builder) tracef(format string, args ...any) {
	if b.verbose {
		b.logger.Printf(format, args...)
	}
}

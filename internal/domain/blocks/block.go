package blocks

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"staycal/internal/domain/shared/daterange"
	"staycal/internal/domain/shared/dsu"
)

var ErrNotFound = errors.New("blocks: not found")

// DefaultSummary is used for feed events without a summary.
const DefaultSummary = "Reserved"

// ManualSource tags blocks created by an administrator.
const ManualSource = "manual"

type BlockID string

// Block marks [Range.Start, Range.End) unavailable. The end date is the checkout morning and stays bookable.
type Block struct {
	ID        BlockID
	Range     daterange.DateRange
	Reason    string
	CreatedAt time.Time
}

type Repository interface {
	ByID(ctx context.Context, id BlockID) (*Block, error)
	Intersecting(ctx context.Context, r daterange.DateRange) ([]*Block, error)
	All(ctx context.Context) ([]*Block, error)
	// OverlappingPairs lists every unordered pair of blocks whose ranges intersect.
	OverlappingPairs(ctx context.Context) ([]Pair, error)
	Insert(ctx context.Context, b *Block) error
	Delete(ctx context.Context, id BlockID) error
	// DeleteEndingBefore removes blocks with End strictly before day.
	DeleteEndingBefore(ctx context.Context, day time.Time) (int, error)
	// DeleteBySource removes blocks whose reason carries the source tag.
	DeleteBySource(ctx context.Context, source string) (int, error)
}

func New(id BlockID, r daterange.DateRange, reason string, now time.Time) (*Block, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &Block{ID: id, Range: r, Reason: strings.TrimSpace(reason), CreatedAt: now.UTC()}, nil
}

func (b *Block) Validate() error {
	return b.Range.Validate()
}

// Key is the dedupe key shared with feed events.
func (b *Block) Key() string {
	return b.Range.Key()
}

// HasSource reports whether the reason starts with the tag of source, case-insensitively.
func (b *Block) HasSource(source string) bool {
	tag := SourceTag(source)
	if tag == ":" || len(b.Reason) < len(tag) {
		return false
	}
	return strings.EqualFold(b.Reason[:len(tag)], tag)
}

// SourceTag is the reason prefix for source, "airbnb" -> "Airbnb:".
func SourceTag(source string) string {
	return Capitalize(strings.TrimSpace(source)) + ":"
}

// Reason builds "{Source}: {summary}", falling back to DefaultSummary.
func Reason(source, summary string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		summary = DefaultSummary
	}
	return SourceTag(source) + " " + summary
}

// ManualReason keeps reasons that already carry a "Source:" prefix and tags the rest as manual.
func ManualReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Reason(ManualSource, "Blocked")
	}
	if i := strings.IndexByte(reason, ':'); i > 0 && !strings.ContainsAny(reason[:i], " \t") {
		return reason
	}
	return Reason(ManualSource, reason)
}

func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// Pair is an unordered pair of overlapping blocks.
type Pair struct {
	A BlockID
	B BlockID
}

// FindOverlappingPairs is the in-process equivalent of Repository.OverlappingPairs.
func FindOverlappingPairs(list []*Block) []Pair {
	sorted := make([]*Block, len(list))
	copy(sorted, list)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Range.Start.Equal(sorted[j].Range.Start) {
			return sorted[i].Range.Start.Before(sorted[j].Range.Start)
		}
		return sorted[i].ID < sorted[j].ID
	})
	var pairs []Pair
	for i, a := range sorted {
		for _, b := range sorted[i+1:] {
			if !b.Range.Start.Before(a.Range.End) {
				break
			}
			pairs = append(pairs, Pair{A: a.ID, B: b.ID})
		}
	}
	return pairs
}

// PlanConsolidation groups blocks connected by pairs and returns, for every group with more
// than one member, all ids except the oldest (created_at ascending, then id ascending).
// Ids in pairs that are missing from known are ignored.
func PlanConsolidation(pairs []Pair, known []*Block) []BlockID {
	byID := make(map[BlockID]*Block, len(known))
	for _, b := range known {
		byID[b.ID] = b
	}
	set := dsu.New[BlockID]()
	for _, p := range pairs {
		if byID[p.A] == nil || byID[p.B] == nil || p.A == p.B {
			continue
		}
		set.Union(p.A, p.B)
	}
	var doomed []BlockID
	for _, group := range set.Groups() {
		if len(group) < 2 {
			continue
		}
		members := make([]*Block, 0, len(group))
		for _, id := range group {
			members = append(members, byID[id])
		}
		sort.Slice(members, func(i, j int) bool {
			if !members[i].CreatedAt.Equal(members[j].CreatedAt) {
				return members[i].CreatedAt.Before(members[j].CreatedAt)
			}
			return members[i].ID < members[j].ID
		})
		for _, m := range members[1:] {
			doomed = append(doomed, m.ID)
		}
	}
	return doomed
}

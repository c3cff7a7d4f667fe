// internal/launchpad/planner.go
package launchpad

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// The remote store understands exactly two reads: a bulk scan filtered by
// byte equality at fixed offsets, and a batch fetch by key. The planner
// translates logical queries into that predicate language, then does the
// sorting and pagination the store cannot. It scans narrow (only the sort
// field's bytes per candidate), sorts and slices locally, and resolves full
// records for the surviving page only; the store bills per byte scanned, so
// resolving before paginating would be correct but far more expensive.

// Predicate is an exact byte-equality test at a fixed offset.
type Predicate struct {
	Offset uint64
	Bytes  []byte
}

// SliceSpec limits the bytes returned per scanned account.
type SliceSpec struct {
	Offset uint64
	Length uint64
}

// ScanRow is one account surviving a predicate scan, carrying only the
// requested byte slice.
type ScanRow struct {
	Key  solana.PublicKey
	Data []byte
}

// Store is the narrow surface the planner consumes. A back-end with native
// range filters or server-side sorting would substitute here without
// touching the planner's query semantics.
type Store interface {
	// ScanAccounts returns every account matching all predicates, with
	// account data trimmed to slice when non-nil.
	ScanAccounts(ctx context.Context, predicates []Predicate, slice *SliceSpec) ([]ScanRow, error)
	// FetchAccounts returns full account buffers for the given keys, nil
	// for keys that no longer exist.
	FetchAccounts(ctx context.Context, keys []solana.PublicKey) ([][]byte, error)
}

// SortDirection orders the candidate list. Descending is the default:
// most-recent-first for time fields, largest-first for amounts.
type SortDirection int

const (
	SortDescending SortDirection = iota
	SortAscending
)

// SignBucket approximates a sign-range filter server-side by testing the
// most-significant byte of a signed field. It partitions by sign only; it
// does not order within a bucket remotely.
type SignBucket int

const (
	BucketAny SignBucket = iota
	BucketNonNegative
	BucketNegative
)

// Filter is a logical equality filter on a record field.
type Filter struct {
	Field string
	Bytes []byte
}

// Query is a logical page request against one record variant.
type Query struct {
	Kind      RecordKind
	Filters   []Filter
	SortField string // empty: deterministic key order
	Direction SortDirection
	// Bucket restricts a signed field (BucketField) to one sign partition.
	Bucket      SignBucket
	BucketField string
	Page        int // 1-based
	PageSize    int
}

// DefaultPageSize applies when a query leaves PageSize unset.
const DefaultPageSize = 5

// Page is one page of query results. Records are resolved only for the
// keys on this page.
type Page struct {
	Keys    []solana.PublicKey
	Records []Record
	HasMore bool
}

// Planner executes logical queries through a Store.
type Planner struct {
	store  Store
	logger *zap.Logger
}

// NewPlanner builds a planner on top of the given store.
func NewPlanner(store Store, logger *zap.Logger) *Planner {
	return &Planner{
		store:  store,
		logger: logger.Named("planner"),
	}
}

type candidate struct {
	key solana.PublicKey
	// sortKey is the decoded sort field, offset so unsigned comparison
	// orders signed values correctly.
	sortKey uint64
}

// Predicates translates a query into the store's predicate list. Exposed
// for tests; QueryPage is the entry point.
func (p *Planner) Predicates(q Query) ([]Predicate, error) {
	disc := Discriminator(q.Kind)
	if disc == nil {
		return nil, fmt.Errorf("%w: record kind %s", ErrUnknownField, q.Kind)
	}
	preds := []Predicate{{Offset: 0, Bytes: disc}}

	for _, f := range q.Filters {
		field, err := FieldSpec(q.Kind, f.Field)
		if err != nil {
			return nil, err
		}
		if uint64(len(f.Bytes)) != field.Width {
			return nil, fmt.Errorf("%w: filter on %s wants %d bytes, got %d",
				ErrUnknownField, f.Field, field.Width, len(f.Bytes))
		}
		preds = append(preds, Predicate{Offset: field.Offset, Bytes: f.Bytes})
	}

	if q.Bucket != BucketAny {
		field, err := FieldSpec(q.Kind, q.BucketField)
		if err != nil {
			return nil, err
		}
		if !field.Kind.Signed() {
			return nil, fmt.Errorf("%w: %s is not a signed field", ErrUnknownField, q.BucketField)
		}
		signByte := byte(0x00)
		if q.Bucket == BucketNegative {
			signByte = 0xFF
		}
		preds = append(preds, Predicate{Offset: field.SignByteOffset(), Bytes: []byte{signByte}})
	}
	return preds, nil
}

// QueryPage runs the two-phase scan/resolve pipeline for one page.
func (p *Planner) QueryPage(ctx context.Context, q Query) (*Page, error) {
	if q.Page < 1 {
		return nil, fmt.Errorf("%w: page %d", ErrOutOfRange, q.Page)
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}

	preds, err := p.Predicates(q)
	if err != nil {
		return nil, err
	}

	var (
		slice     *SliceSpec
		sortField Field
	)
	if q.SortField != "" {
		sortField, err = FieldSpec(q.Kind, q.SortField)
		if err != nil {
			return nil, err
		}
		slice = &SliceSpec{Offset: sortField.Offset, Length: sortField.Width}
	} else {
		// No sort field: transfer zero data bytes, keys are enough.
		slice = &SliceSpec{Offset: 0, Length: 0}
	}

	rows, err := p.store.ScanAccounts(ctx, preds, slice)
	if err != nil {
		return nil, fmt.Errorf("scan %s accounts: %w", q.Kind, err)
	}
	p.logger.Debug("narrow scan complete",
		zap.String("kind", q.Kind.String()),
		zap.Int("candidates", len(rows)),
		zap.String("sort_field", q.SortField))

	candidates := make([]candidate, 0, len(rows))
	for _, row := range rows {
		c := candidate{key: row.Key}
		if q.SortField != "" {
			c.sortKey, err = decodeSortKey(sortField, row.Data)
			if err != nil {
				// One bad slice poisons the whole page; partial results
				// would silently corrupt displayed aggregates.
				return nil, fmt.Errorf("decode %s of %s: %w", q.SortField, row.Key, err)
			}
		}
		candidates = append(candidates, c)
	}

	sortCandidates(candidates, q.Direction)

	start := (q.Page - 1) * q.PageSize
	end := start + q.PageSize
	if start >= len(candidates) {
		return &Page{}, nil
	}
	if end > len(candidates) {
		end = len(candidates)
	}
	pageKeys := make([]solana.PublicKey, 0, end-start)
	for _, c := range candidates[start:end] {
		pageKeys = append(pageKeys, c.key)
	}

	records, err := p.resolve(ctx, q.Kind, pageKeys)
	if err != nil {
		return nil, err
	}

	return &Page{
		Keys:    pageKeys,
		Records: records,
		HasMore: end < len(candidates),
	}, nil
}

// resolve is phase two: full buffers for page keys only.
func (p *Planner) resolve(ctx context.Context, kind RecordKind, keys []solana.PublicKey) ([]Record, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	buffers, err := p.store.FetchAccounts(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("resolve %d %s records: %w", len(keys), kind, err)
	}
	if len(buffers) != len(keys) {
		return nil, fmt.Errorf("resolve %s records: %w: got %d buffers for %d keys",
			kind, ErrRemoteUnavailable, len(buffers), len(keys))
	}

	records := make([]Record, len(keys))
	for i, data := range buffers {
		if data == nil {
			return nil, fmt.Errorf("resolve %s: account %s vanished between scan and fetch: %w",
				kind, keys[i], ErrRemoteUnavailable)
		}
		rec, err := ParseRecord(kind, data)
		if err != nil {
			return nil, fmt.Errorf("parse %s %s: %w", kind, keys[i], err)
		}
		records[i] = rec
	}
	return records, nil
}

// decodeSortKey maps the narrow slice to an order-preserving uint64. Signed
// fields are shifted by 2^63 so that plain unsigned comparison matches
// signed ordering.
func decodeSortKey(f Field, data []byte) (uint64, error) {
	raw, err := DecodeU64(data, 0)
	if err != nil {
		return 0, err
	}
	if f.Kind.Signed() {
		return raw ^ (1 << 63), nil
	}
	return raw, nil
}

// sortCandidates orders by sort key with ties broken by key bytes, keeping
// pagination deterministic across repeated calls on an unchanged store.
func sortCandidates(cs []candidate, dir SortDirection) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].sortKey != cs[j].sortKey {
			if dir == SortAscending {
				return cs[i].sortKey < cs[j].sortKey
			}
			return cs[i].sortKey > cs[j].sortKey
		}
		return bytes.Compare(cs[i].key[:], cs[j].key[:]) < 0
	})
}

package record

import (
	"context"
	"sort"
)

// cancelCheckEvery bounds how many records are filtered between context checks.
const cancelCheckEvery = 256

// Paginate filters items by q's scope, deletion window and predicate, orders
// them and returns the requested page. A cancelled context aborts before the
// slice is computed.
func Paginate[T any, P Entity[T]](ctx context.Context, items []T, q Query[T]) (Page[T], error) {
	if q.Page < 1 || q.PageSize < 1 {
		return Page[T]{}, ErrInvalidInput
	}
	if !q.Scope.Valid() {
		return Page[T]{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Page[T]{}, err
	}

	matched := make([]T, 0, len(items))
	for i := range items {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Page[T]{}, err
			}
		}
		if !matches[T, P](&items[i], q) {
			continue
		}
		matched = append(matched, items[i])
	}

	less := q.Less
	if less == nil {
		less = newestFirst[T, P]
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return less(&matched[i], &matched[j])
	})

	if err := ctx.Err(); err != nil {
		return Page[T]{}, err
	}

	total := len(matched)
	totalPages := total / q.PageSize
	if total%q.PageSize != 0 {
		totalPages++
	}

	// Bounds are compared before multiplying so huge pages cannot overflow.
	start, end := total, total
	if q.Page <= totalPages {
		start = (q.Page - 1) * q.PageSize
		if total-start > q.PageSize {
			end = start + q.PageSize
		}
	}

	return Page[T]{
		Items:      matched[start:end],
		Total:      total,
		TotalPages: totalPages,
		Page:       q.Page,
		PageSize:   q.PageSize,
	}, nil
}

func matches[T any, P Entity[T]](item *T, q Query[T]) bool {
	meta := P(item).Base()
	if !q.Scope.Includes(meta.Deleted) {
		return false
	}
	if q.DeletedFrom != nil || q.DeletedTo != nil {
		if meta.DeletedAt == nil {
			return false
		}
		if q.DeletedFrom != nil && meta.DeletedAt.Before(*q.DeletedFrom) {
			return false
		}
		if q.DeletedTo != nil && meta.DeletedAt.After(*q.DeletedTo) {
			return false
		}
	}
	return q.Match == nil || q.Match(item)
}

func newestFirst[T any, P Entity[T]](a, b *T) bool {
	ma, mb := P(a).Base(), P(b).Base()
	if !ma.CreatedAt.Equal(mb.CreatedAt) {
		return ma.CreatedAt.After(mb.CreatedAt)
	}
	return ma.ID < mb.ID
}

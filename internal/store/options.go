package store

import (
	sq "github.com/Masterminds/squirrel"
)

type ListOption func(sq.SelectBuilder) sq.SelectBuilder

func ByBatch(ids ...string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(ids) == 0 {
			return b
		}
		return b.Where(sq.Eq{"batch_id": ids})
	}
}

func ByOutcome(outcomes ...string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(outcomes) == 0 {
			return b
		}
		return b.Where(sq.Eq{"outcome": outcomes})
	}
}

func ByKind(kinds ...string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(kinds) == 0 {
			return b
		}
		return b.Where(sq.Eq{"kind": kinds})
	}
}

// ByInput matches items whose input path contains substr.
func ByInput(substr string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if substr == "" {
			return b
		}
		return b.Where(sq.Like{"input_path": "%" + substr + "%"})
	}
}

func WithLimit(limit uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Limit(limit)
	}
}

func WithOffset(offset uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Offset(offset)
	}
}

// WithDefaultSort orders items by batch then queue position.
func WithDefaultSort() ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.OrderBy("finished_at DESC", "batch_id", "idx")
	}
}

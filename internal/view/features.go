package view

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/roach88/smartcoll/internal/value"
)

// Feature is a query over items, called by name with value arguments.
type Feature func(items []value.Value, args ...value.Value) (value.Value, error)

// catalog maps feature names to features. Arguments are values, not
// functions, so "filter" and "find" take a match pattern and are aliases
// of "where" and "findWhere".
var catalog = map[string]Feature{
	"where":     featureWhere,
	"filter":    featureWhere,
	"findWhere": featureFindWhere,
	"find":      featureFindWhere,
	"reject":    featureReject,
	"contains":  featureContains,
	"indexOf":   featureIndexOf,
	"first":     featureFirst,
	"last":      featureLast,
	"size":      featureSize,
	"pluck":     featurePluck,
	"without":   featureWithout,
	"uniq":      featureUniq,
}

// FeatureNames returns the catalog names, sorted.
func FeatureNames() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bound is a set of features bound to a source.
type Bound struct {
	src      Source
	features map[string]Feature
}

// Bind binds the named features to src. Fails on the first name not in the
// catalog with `feature "<name>" not found`.
func Bind(src Source, names ...string) (*Bound, error) {
	b := &Bound{src: src, features: make(map[string]Feature)}
	if err := b.Add(names...); err != nil {
		return nil, err
	}
	return b, nil
}

// Add binds more features.
func (b *Bound) Add(names ...string) error {
	for _, name := range names {
		f, ok := catalog[name]
		if !ok {
			return fmt.Errorf("feature %q not found", name)
		}
		b.features[name] = f
	}
	return nil
}

// Has reports whether name is bound.
func (b *Bound) Has(name string) bool {
	_, ok := b.features[name]
	return ok
}

// Call runs a bound feature against the source's current items.
func (b *Bound) Call(name string, args ...value.Value) (value.Value, error) {
	f, ok := b.features[name]
	if !ok {
		return nil, fmt.Errorf("feature %q not bound on %q", name, b.src.Name())
	}
	out, err := f(b.src.Items(), args...)
	if err != nil {
		return nil, fmt.Errorf("feature %q: %w", name, err)
	}
	return out, nil
}

func wantArgs(args []value.Value, minN, maxN int) error {
	if len(args) < minN || len(args) > maxN {
		if minN == maxN {
			return fmt.Errorf("expects %d argument(s), got %d", minN, len(args))
		}
		return fmt.Errorf("expects %d to %d arguments, got %d", minN, maxN, len(args))
	}
	return nil
}

// matching returns a predicate reporting whether an item matches pattern.
func matching(pattern value.Value) func(value.Value) bool {
	return func(v value.Value) bool { return value.Match(v, pattern) }
}

func featureWhere(items []value.Value, args ...value.Value) (value.Value, error) {
	if err := wantArgs(args, 1, 1); err != nil {
		return nil, err
	}
	return value.Array(Where(args[0])(items)), nil
}

func featureFindWhere(items []value.Value, args ...value.Value) (value.Value, error) {
	if err := wantArgs(args, 1, 1); err != nil {
		return nil, err
	}
	if v, ok := lo.Find(items, matching(args[0])); ok {
		return v, nil
	}
	return value.Null{}, nil
}

func featureReject(items []value.Value, args ...value.Value) (value.Value, error) {
	if err := wantArgs(args, 1, 1); err != nil {
		return nil, err
	}
	match := matching(args[0])
	return value.Array(lo.Reject(items, func(v value.Value, _ int) bool { return match(v) })), nil
}

func featureContains(items []value.Value, args ...value.Value) (value.Value, error) {
	if err := wantArgs(args, 1, 1); err != nil {
		return nil, err
	}
	return value.Bool(lo.ContainsBy(items, func(v value.Value) bool { return value.Equal(v, args[0]) })), nil
}

func featureIndexOf(items []value.Value, args ...value.Value) (value.Value, error) {
	if err := wantArgs(args, 1, 1); err != nil {
		return nil, err
	}
	_, idx, _ := lo.FindIndexOf(items, func(v value.Value) bool { return value.Equal(v, args[0]) })
	return value.Int(idx), nil
}

// countArg reads the optional count of first/last. Without it the feature
// returns a single item.
func countArg(args []value.Value) (int, bool, error) {
	if err := wantArgs(args, 0, 1); err != nil {
		return 0, false, err
	}
	if len(args) == 0 {
		return 0, false, nil
	}
	n, ok := args[0].(value.Int)
	if !ok || n < 0 {
		return 0, false, fmt.Errorf("count must be a non-negative int, got %s", value.TypeName(args[0]))
	}
	return int(n), true, nil
}

func featureFirst(items []value.Value, args ...value.Value) (value.Value, error) {
	n, many, err := countArg(args)
	if err != nil {
		return nil, err
	}
	if !many {
		if len(items) == 0 {
			return value.Null{}, nil
		}
		return items[0], nil
	}
	return append(value.Array{}, items[:min(n, len(items))]...), nil
}

func featureLast(items []value.Value, args ...value.Value) (value.Value, error) {
	n, many, err := countArg(args)
	if err != nil {
		return nil, err
	}
	if !many {
		if len(items) == 0 {
			return value.Null{}, nil
		}
		return items[len(items)-1], nil
	}
	return append(value.Array{}, items[len(items)-min(n, len(items)):]...), nil
}

func featureSize(items []value.Value, args ...value.Value) (value.Value, error) {
	if err := wantArgs(args, 0, 0); err != nil {
		return nil, err
	}
	return value.Int(len(items)), nil
}

func featurePluck(items []value.Value, args ...value.Value) (value.Value, error) {
	if err := wantArgs(args, 1, 1); err != nil {
		return nil, err
	}
	key, ok := args[0].(value.String)
	if !ok {
		return nil, fmt.Errorf("key must be a string, got %s", value.TypeName(args[0]))
	}
	return value.Array(lo.Map(items, func(v value.Value, _ int) value.Value {
		obj, ok := v.(value.Object)
		if !ok {
			return value.Null{}
		}
		if field, ok := obj[string(key)]; ok {
			return field
		}
		return value.Null{}
	})), nil
}

func featureWithout(items []value.Value, args ...value.Value) (value.Value, error) {
	drop := lo.SliceToMap(args, func(v value.Value) (string, struct{}) {
		return itemKey(v), struct{}{}
	})
	return value.Array(lo.Reject(items, func(v value.Value, _ int) bool {
		_, ok := drop[itemKey(v)]
		return ok
	})), nil
}

// featureUniq keeps the first occurrence of each distinct item.
func featureUniq(items []value.Value, args ...value.Value) (value.Value, error) {
	if err := wantArgs(args, 0, 0); err != nil {
		return nil, err
	}
	return value.Array(lo.UniqBy(items, itemKey)), nil
}

// itemKey is a comparable key with the same equality as value.Equal.
// Values that cannot be hashed share the empty key.
func itemKey(v value.Value) string {
	h, err := value.Hash(v)
	if err != nil {
		return ""
	}
	return h
}

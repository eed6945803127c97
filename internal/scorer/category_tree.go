package scorer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mfi-cli/internal/model"
)

// CategoryTree is the two-level question-category hierarchy. Roots carry the
// weight used when rolling child scores up; children carry answers.
type CategoryTree struct {
	byID     map[string]model.Category
	roots    []model.Category
	children map[string][]model.Category
}

// NewCategoryTree validates cats and builds the tree.
func NewCategoryTree(cats []model.Category) (*CategoryTree, error) {
	t := &CategoryTree{
		byID:     make(map[string]model.Category, len(cats)),
		children: make(map[string][]model.Category),
	}

	var errs []string
	for _, c := range cats {
		if c.ID == "" {
			errs = append(errs, fmt.Sprintf("category %q has no id", c.Name))
			continue
		}
		if _, dup := t.byID[c.ID]; dup {
			errs = append(errs, fmt.Sprintf("duplicate category id %s", c.ID))
			continue
		}
		if c.Weight < 0 || c.Weight > 100 {
			errs = append(errs, fmt.Sprintf("category %s weight %.2f outside 0..100", c.ID, c.Weight))
		}
		t.byID[c.ID] = c
	}

	for _, c := range cats {
		if c.IsRoot() {
			continue
		}
		parent, ok := t.byID[c.ParentID]
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("category %s has unknown parent %s", c.ID, c.ParentID))
		case !parent.IsRoot():
			errs = append(errs, fmt.Sprintf("category %s is nested below non-root %s", c.ID, c.ParentID))
		}
	}

	if len(errs) > 0 {
		return nil, eris.Errorf("scorer: invalid category tree: %s", strings.Join(errs, "; "))
	}

	for _, c := range t.byID {
		if c.IsRoot() {
			t.roots = append(t.roots, c)
		} else {
			t.children[c.ParentID] = append(t.children[c.ParentID], c)
		}
	}
	sortCategories(t.roots)
	for id := range t.children {
		sortCategories(t.children[id])
	}

	return t, nil
}

func sortCategories(cats []model.Category) {
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].SortOrder != cats[j].SortOrder {
			return cats[i].SortOrder < cats[j].SortOrder
		}
		return cats[i].ID < cats[j].ID
	})
}

// Roots returns the root categories in sort order.
func (t *CategoryTree) Roots() []model.Category {
	return t.roots
}

// Children returns the children of a root in sort order.
func (t *CategoryTree) Children(rootID string) []model.Category {
	return t.children[rootID]
}

// Category looks up a category by id.
func (t *CategoryTree) Category(id string) (model.Category, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// Root returns the root a category belongs to. A root is its own root.
func (t *CategoryTree) Root(id string) (model.Category, bool) {
	c, ok := t.byID[id]
	if !ok {
		return model.Category{}, false
	}
	if c.IsRoot() {
		return c, true
	}
	return t.Root(c.ParentID)
}

// IsLeaf reports whether id is a child category.
func (t *CategoryTree) IsLeaf(id string) bool {
	c, ok := t.byID[id]
	return ok && !c.IsRoot()
}

// Len returns the number of categories.
func (t *CategoryTree) Len() int {
	return len(t.byID)
}

// RootWeightSum returns the sum of root weights, normally 100.
func (t *CategoryTree) RootWeightSum() float64 {
	var sum float64
	for _, r := range t.roots {
		sum += r.Weight
	}
	return sum
}

package fakebackend

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/jrsteele09/bluewater-portal/internal/errors"
)

// Record is a stored resource. Values are kept in their decoded JSON form
// so numbers are float64.
type Record = map[string]any

type collection struct {
	records map[int]Record
	nextID  int
}

type collections struct {
	byName map[string]*collection
	lock   sync.RWMutex
}

func newCollections(names []string) *collections {
	c := &collections{byName: make(map[string]*collection, len(names))}
	for _, name := range names {
		c.byName[name] = &collection{records: make(map[int]Record), nextID: 1}
	}
	return c
}

// listQuery selects a page of a collection.
type listQuery struct {
	Page     int
	PageSize int // 0 returns every match
	SortBy   string
	Desc     bool
	Filters  map[string][]string
}

func (c *collections) get(name string) (*collection, error) {
	col, ok := c.byName[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidResource, "[collections] %s", name)
	}
	return col, nil
}

func (c *collections) list(name string, q listQuery) ([]Record, int, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	col, err := c.get(name)
	if err != nil {
		return nil, 0, err
	}

	matched := make([]Record, 0, len(col.records))
	for _, rec := range col.records {
		if matchesFilters(rec, q.Filters) {
			matched = append(matched, rec)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return idOf(matched[i]) < idOf(matched[j])
	})
	if q.SortBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			less := lessValue(matched[i][q.SortBy], matched[j][q.SortBy])
			if q.Desc {
				return lessValue(matched[j][q.SortBy], matched[i][q.SortBy])
			}
			return less
		})
	}

	total := len(matched)
	if q.PageSize > 0 {
		page := max(q.Page, 1)
		start := min((page-1)*q.PageSize, total)
		end := min(start+q.PageSize, total)
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (c *collections) find(name string, id int) (Record, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	col, err := c.get(name)
	if err != nil {
		return nil, err
	}
	rec, ok := col.records[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "[collections] %s/%d", name, id)
	}
	return rec, nil
}

func (c *collections) create(name string, rec Record) (Record, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	col, err := c.get(name)
	if err != nil {
		return nil, err
	}
	rec, err = normalise(rec)
	if err != nil {
		return nil, err
	}

	id := col.nextID
	if existing := idOf(rec); existing > 0 {
		id = existing
	}
	col.nextID = max(col.nextID, id+1)
	rec["id"] = float64(id)
	col.records[id] = rec
	return rec, nil
}

func (c *collections) update(name string, id int, patch Record) (Record, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	col, err := c.get(name)
	if err != nil {
		return nil, err
	}
	rec, ok := col.records[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "[collections] %s/%d", name, id)
	}
	patch, err = normalise(patch)
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		rec[k] = v
	}
	return rec, nil
}

func (c *collections) delete(name string, id int) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	col, err := c.get(name)
	if err != nil {
		return err
	}
	if _, ok := col.records[id]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "[collections] %s/%d", name, id)
	}
	delete(col.records, id)
	return nil
}

// normalise round-trips rec through JSON so seeded Go values compare the
// same way as decoded request bodies.
func normalise(rec Record) (Record, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("[normalise] %w", err)
	}
	out := Record{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("[normalise] %w", err)
	}
	return out, nil
}

func idOf(rec Record) int {
	switch v := rec["id"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// matchesFilters requires every filter key to match; repeated values for a
// key match any of them.
func matchesFilters(rec Record, filters map[string][]string) bool {
	for key, values := range filters {
		actual := formatValue(rec[key])
		found := false
		for _, v := range values {
			if strings.EqualFold(actual, v) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func lessValue(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return af < bf
	}
	return formatValue(a) < formatValue(b)
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

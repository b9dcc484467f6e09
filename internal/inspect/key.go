package inspect

import (
	"context"
	"errors"
	"strconv"

	"github.com/faciam-dev/redisboard/internal/metrics"
)

// ErrNotFound is returned when an inspected key does not exist.
var ErrNotFound = errors.New("key not found")

// KeyType is the store type of a key.
type KeyType string

const (
	TypeString KeyType = "string"
	TypeList   KeyType = "list"
	TypeSet    KeyType = "set"
	TypeZSet   KeyType = "zset"
	TypeHash   KeyType = "hash"
	TypeStream KeyType = "stream"
	TypeNone   KeyType = "none"
)

// Composite reports whether members of t are paged rather than loaded whole.
func (t KeyType) Composite() bool {
	switch t {
	case TypeList, TypeSet, TypeZSet, TypeHash:
		return true
	}
	return false
}

// Item is one member of a composite value. Index is set for lists, Field for
// hashes, Score for sorted sets; Value holds the element, member or hash value.
type Item struct {
	Index int64   `json:"index,omitempty"`
	Field string  `json:"field,omitempty"`
	Value string  `json:"value"`
	Score float64 `json:"score,omitempty"`
}

// ValuePage is a page of members of a composite value.
type ValuePage struct {
	Items      []Item `json:"items"`
	Cursor     uint64 `json:"cursor"`
	NextCursor uint64 `json:"nextCursor"`
	Count      int64  `json:"count"`
}

// KeyDetail describes a single key.
type KeyDetail struct {
	DB       int     `json:"db"`
	Name     string  `json:"-"`
	Display  string  `json:"name"`
	Escaped  string  `json:"escaped"`
	Type     KeyType `json:"type"`
	Encoding string  `json:"encoding,omitempty"`
	Size     int64   `json:"size"`
	// Memory is 0 when the server cannot report it.
	Memory int64 `json:"memory,omitempty"`
	// TTL is nil for keys without expiry.
	TTL   *int64     `json:"ttl,omitempty"`
	Value []byte     `json:"value,omitempty"`
	Page  *ValuePage `json:"page,omitempty"`
}

// KeyRequest identifies a key and the value page to fetch.
type KeyRequest struct {
	DB     int
	Key    string
	Cursor uint64
	Count  int64
}

// Key fetches metadata and one value page of a key. A key missing at call
// time, or gone before its type could be read, yields ErrNotFound. A key
// deleted while its value is being read yields an empty page.
func (s *Service) Key(ctx context.Context, c Conn, feat Features, req KeyRequest) (KeyDetail, error) {
	d, err := s.key(ctx, c, feat, req)
	switch {
	case errors.Is(err, ErrNotFound):
		metrics.KeyLookups.WithLabelValues("not_found").Inc()
	case err != nil:
		metrics.KeyLookups.WithLabelValues("error").Inc()
	default:
		metrics.KeyLookups.WithLabelValues("ok").Inc()
	}
	return d, err
}

func (s *Service) key(ctx context.Context, c Conn, feat Features, req KeyRequest) (KeyDetail, error) {
	ok, err := c.Exists(ctx, req.DB, req.Key)
	if err != nil {
		return KeyDetail{}, err
	}
	if !ok {
		return KeyDetail{}, ErrNotFound
	}
	typ, err := c.Type(ctx, req.DB, req.Key)
	if err != nil {
		return KeyDetail{}, err
	}
	if KeyType(typ) == TypeNone {
		return KeyDetail{}, ErrNotFound
	}
	d := KeyDetail{
		DB:      req.DB,
		Name:    req.Key,
		Display: DisplayKey(req.Key),
		Escaped: EscapeKey(req.Key),
		Type:    KeyType(typ),
	}
	ttl, err := c.TTL(ctx, req.DB, req.Key)
	if err != nil {
		return KeyDetail{}, err
	}
	if ttl >= 0 {
		d.TTL = &ttl
	}
	if enc, err := c.Encoding(ctx, req.DB, req.Key); err == nil {
		d.Encoding = enc
	} else {
		s.log().Debugw("object encoding unavailable", "db", req.DB, "err", err)
	}
	if feat.MemoryUsage {
		if mem, err := c.MemoryUsage(ctx, req.DB, req.Key); err == nil {
			d.Memory = mem
		} else {
			s.log().Debugw("memory usage unavailable", "db", req.DB, "err", err)
		}
	}
	if d.Size, err = c.Len(ctx, req.DB, req.Key, typ); err != nil {
		return KeyDetail{}, err
	}

	switch d.Type {
	case TypeString:
		v, _, err := c.Get(ctx, req.DB, req.Key)
		if err != nil {
			return KeyDetail{}, err
		}
		d.Value = v
	case TypeList:
		page, err := s.listPage(ctx, c, req, d.Size)
		if err != nil {
			return KeyDetail{}, err
		}
		d.Page = &page
	case TypeHash, TypeSet, TypeZSet:
		page, err := memberPage(ctx, c, req, d.Type)
		if err != nil {
			return KeyDetail{}, err
		}
		d.Page = &page
	}
	return d, nil
}

func (s *Service) listPage(ctx context.Context, c Conn, req KeyRequest, size int64) (ValuePage, error) {
	count := req.Count
	if count <= 0 {
		count = s.valuePageSize()
	}
	start := int64(req.Cursor)
	vals, err := c.Range(ctx, req.DB, req.Key, start, start+count-1)
	if err != nil {
		return ValuePage{}, err
	}
	page := ValuePage{Items: make([]Item, len(vals)), Cursor: req.Cursor, Count: count}
	for i, v := range vals {
		page.Items[i] = Item{Index: start + int64(i), Value: v}
	}
	if end := start + int64(len(vals)); len(vals) > 0 && end < size {
		page.NextCursor = uint64(end)
	}
	return page, nil
}

func memberPage(ctx context.Context, c Conn, req KeyRequest, typ KeyType) (ValuePage, error) {
	flat, next, err := c.ScanMembers(ctx, req.DB, req.Key, string(typ), req.Cursor, req.Count)
	if err != nil {
		return ValuePage{}, err
	}
	page := ValuePage{Items: []Item{}, Cursor: req.Cursor, NextCursor: next, Count: req.Count}
	switch typ {
	case TypeSet:
		for _, m := range flat {
			page.Items = append(page.Items, Item{Value: m})
		}
	case TypeHash:
		for i := 0; i+1 < len(flat); i += 2 {
			page.Items = append(page.Items, Item{Field: flat[i], Value: flat[i+1]})
		}
	case TypeZSet:
		for i := 0; i+1 < len(flat); i += 2 {
			score, _ := strconv.ParseFloat(flat[i+1], 64)
			page.Items = append(page.Items, Item{Value: flat[i], Score: score})
		}
	}
	return page, nil
}

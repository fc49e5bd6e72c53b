// Package stores holds the thin per-session wrappers around the catalog,
// enrollment, coupon and admin endpoints. Each keeps its own message slot and
// none of them share state with another.
package stores

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/fence"
	"github.com/baechuer/tutorhub/services/web-bff/internal/gateway"
	"github.com/baechuer/tutorhub/services/web-bff/internal/session"
)

// Set is the group of auxiliary stores that belongs to one session.
type Set struct {
	Catalog    *Catalog
	Courses    *CourseStore
	Admin      *AdminStore
	Enrollment *EnrollmentStore
	Coupons    *CouponStore
}

type setKey struct{}

// For returns the auxiliary stores of st, creating them on first use.
func For(st *session.Store) *Set {
	return st.Attachment(setKey{}, func() any {
		return NewSet(st.Gateway())
	}).(*Set)
}

func NewSet(gw session.Gateway) *Set {
	return &Set{
		Catalog:    NewCatalog(gw),
		Courses:    NewCourseStore(gw),
		Admin:      NewAdminStore(gw),
		Enrollment: NewEnrollmentStore(gw),
		Coupons:    NewCouponStore(gw),
	}
}

// messageSlot is a status message ordered by issue time.
type messageSlot struct {
	seq fence.Sequence
	reg fence.Register[string]
}

func (m *messageSlot) begin() fence.Ticket { return m.seq.Next() }

func (m *messageSlot) Message() string {
	v, _ := m.reg.Load()
	return v
}

func (m *messageSlot) SetMessage(msg string) {
	m.reg.Commit(m.seq.Next(), msg)
}

func (m *messageSlot) ResetMessage() { m.SetMessage("") }

func (m *messageSlot) ok(t fence.Ticket, msg string) {
	m.reg.Commit(t, msg)
}

func (m *messageSlot) fail(t fence.Ticket, err error) error {
	de := gateway.ToDomain(err)
	m.reg.Commit(t, de.Message)
	return de
}

// count decodes a number the backend may send as a JSON number or a string.
type count int

func (c *count) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*c = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*c = count(f)
	return nil
}

// pageMeta is the paging block the backend puts beside a list.
type pageMeta struct {
	Total       count `json:"total"`
	Count       count `json:"count"`
	TotalPages  count `json:"totalPages"`
	TotalPage   count `json:"totalPage"`
	CurrentPage count `json:"currentPage"`
}

func toPage[T any](items []T, m pageMeta) domain.Page[T] {
	if items == nil {
		items = []T{}
	}
	total := int(m.Total)
	if total == 0 {
		total = int(m.Count)
	}
	if total == 0 {
		total = len(items)
	}
	pages := int(m.TotalPages)
	if pages == 0 {
		pages = int(m.TotalPage)
	}
	if pages == 0 {
		pages = 1
	}
	current := int(m.CurrentPage)
	if current == 0 {
		current = 1
	}
	return domain.Page[T]{Items: items, Total: total, TotalPages: pages, CurrentPage: current}
}

// decodeList pulls the list stored under key out of a reply.
func decodeList[T any](resp *gateway.Response, key string) ([]T, pageMeta, error) {
	raw, err := gateway.Decode[map[string]json.RawMessage](resp)
	if err != nil {
		return nil, pageMeta{}, err
	}
	var items []T
	if v, ok := raw[key]; ok {
		if err := json.Unmarshal(v, &items); err != nil {
			return nil, pageMeta{}, domain.Wrap(domain.KindInternal, "bad_backend_payload", domain.FallbackMessage, err)
		}
	}
	meta, err := gateway.Decode[pageMeta](resp)
	if err != nil {
		return nil, pageMeta{}, err
	}
	return items, meta, nil
}

// Package nav holds the navigation rules shared by every page and API route:
// which view a role gets, and whether a route renders or redirects.
package nav

import (
	"fmt"
	"reflect"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
)

// Dispatcher maps each role to one view. It is built once and consulted on
// every request, so the three variants can never drift apart between call
// sites.
type Dispatcher[V any] struct {
	routes   map[domain.Role]V
	fallback V
}

// NewDispatcher requires a non-zero entry for every role in domain.Roles and
// a non-zero fallback for identities whose role is missing or unknown.
func NewDispatcher[V any](routes map[domain.Role]V, fallback V) (*Dispatcher[V], error) {
	if isZero(fallback) {
		return nil, fmt.Errorf("nav: dispatcher fallback must be set")
	}
	table := make(map[domain.Role]V, len(domain.Roles))
	for _, role := range domain.Roles {
		v, ok := routes[role]
		if !ok || isZero(v) {
			return nil, fmt.Errorf("nav: no view for role %q", role)
		}
		table[role] = v
	}
	for role := range routes {
		if _, ok := table[role]; !ok {
			return nil, fmt.Errorf("nav: unknown role %q in dispatch table", role)
		}
	}
	return &Dispatcher[V]{routes: table, fallback: fallback}, nil
}

// MustDispatcher is NewDispatcher for tables fixed at compile time.
func MustDispatcher[V any](routes map[domain.Role]V, fallback V) *Dispatcher[V] {
	d, err := NewDispatcher(routes, fallback)
	if err != nil {
		panic(err)
	}
	return d
}

// Dispatch selects the view for who. A nil identity or an unrecognized role
// yields the fallback.
func (d *Dispatcher[V]) Dispatch(who *domain.Identity) V {
	v, _ := d.Lookup(who)
	return v
}

// Lookup is Dispatch that also reports whether a role entry matched.
func (d *Dispatcher[V]) Lookup(who *domain.Identity) (V, bool) {
	if who == nil {
		return d.fallback, false
	}
	role, ok := domain.ParseRole(string(who.Role))
	if !ok {
		return d.fallback, false
	}
	return d.routes[role], true
}

func isZero[V any](v V) bool {
	rv := reflect.ValueOf(&v).Elem()
	return rv.IsZero()
}

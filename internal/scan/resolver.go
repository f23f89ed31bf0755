// Package scan resolves raw QR payloads to directory entities. New labels
// carry an explicit type tag ("PRD:", "CMP:", "LOC:") so resolution is a
// single lookup. Untagged payloads from old labels fall back to probing
// product, then location, then component. The fallback exists for
// compatibility only, since an opaque code could in principle collide across
// entity types.
package scan

import (
	"context"
	"errors"
	"strings"

	"benchtrack.org/internal/directory"
)

// Kind classifies what a payload resolved to.
type Kind string

const (
	KindProduct   Kind = "product"
	KindComponent Kind = "component"
	KindLocation  Kind = "location"
)

// Payload type tags.
const (
	TagProduct   = "PRD:"
	TagComponent = "CMP:"
	TagLocation  = "LOC:"
)

var (
	ErrUnresolved = errors.New("scan: code did not match any known entity")
	// ErrNotComponent is returned by ResolveComponent when the payload is a
	// valid scan of something other than a component.
	ErrNotComponent = errors.New("scan: scanned code is not a component")
)

// Resolution is the outcome of a successful scan. Exactly one of the entity
// fields is non-nil, matching Kind.
type Resolution struct {
	Kind      Kind
	Product   *directory.Product
	Component *directory.Component
	Location  *directory.ShelfLocation
}

// Resolver looks up scanned codes against the directory.
type Resolver struct {
	dir directory.Store
}

// NewResolver builds a Resolver over the given directory.
func NewResolver(dir directory.Store) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve maps a raw QR payload to the entity it identifies.
func (r *Resolver) Resolve(ctx context.Context, payload string) (Resolution, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Resolution{}, ErrUnresolved
	}

	switch {
	case strings.HasPrefix(payload, TagProduct):
		p, err := r.dir.Products().FindByQR(ctx, payload)
		if err != nil {
			return Resolution{}, ErrUnresolved
		}
		return Resolution{Kind: KindProduct, Product: p}, nil
	case strings.HasPrefix(payload, TagComponent):
		c, err := r.dir.Components().FindByQR(ctx, payload)
		if err != nil {
			return Resolution{}, ErrUnresolved
		}
		return Resolution{Kind: KindComponent, Component: c}, nil
	case strings.HasPrefix(payload, TagLocation):
		l, err := r.dir.Locations().FindByQR(ctx, payload)
		if err != nil {
			return Resolution{}, ErrUnresolved
		}
		return Resolution{Kind: KindLocation, Location: l}, nil
	}

	// Legacy untagged labels: probe in the historical order.
	if p, err := r.dir.Products().FindByQR(ctx, payload); err == nil {
		return Resolution{Kind: KindProduct, Product: p}, nil
	}
	if l, err := r.dir.Locations().FindByQR(ctx, payload); err == nil {
		return Resolution{Kind: KindLocation, Location: l}, nil
	}
	if c, err := r.dir.Components().FindByQR(ctx, payload); err == nil {
		return Resolution{Kind: KindComponent, Component: c}, nil
	}
	return Resolution{}, ErrUnresolved
}

// ResolveComponent resolves a payload that the caller expects to identify a
// component, as the fulfillment route does.
func (r *Resolver) ResolveComponent(ctx context.Context, payload string) (*directory.Component, error) {
	res, err := r.Resolve(ctx, payload)
	if err != nil {
		return nil, err
	}
	if res.Kind != KindComponent {
		return nil, ErrNotComponent
	}
	return res.Component, nil
}

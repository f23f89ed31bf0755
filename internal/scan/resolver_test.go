package scan_test

import (
	"context"
	"errors"
	"testing"

	"benchtrack.org/internal/directory"
	"benchtrack.org/internal/scan"
	"benchtrack.org/internal/store/memory"
)

func seedDirectory(t *testing.T) *memory.Directory {
	t.Helper()
	ctx := context.Background()
	dir := memory.NewDirectory()
	seeds := []error{
		dir.Products().Create(ctx, &directory.Product{ID: "p1", Name: "Grinder", QRCode: "PRD:g-500"}),
		dir.Components().Create(ctx, &directory.Component{ID: "c1", Name: "Burr Set", QRCode: "CMP:b-12"}),
		dir.Locations().Create(ctx, &directory.ShelfLocation{ID: "l1", Label: "A-3", QRCode: "LOC:a-3"}),
		// Legacy untagged labels that collide across entity types.
		dir.Products().Create(ctx, &directory.Product{ID: "p2", Name: "Old Mixer", QRCode: "legacy-7"}),
		dir.Components().Create(ctx, &directory.Component{ID: "c2", Name: "Old Belt", QRCode: "legacy-7"}),
		dir.Components().Create(ctx, &directory.Component{ID: "c3", Name: "Untagged Valve", QRCode: "valve-9"}),
	}
	for _, err := range seeds {
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return dir
}

func TestResolveTagged(t *testing.T) {
	r := scan.NewResolver(seedDirectory(t))
	ctx := context.Background()

	res, err := r.Resolve(ctx, "PRD:g-500")
	if err != nil || res.Kind != scan.KindProduct || res.Product.ID != "p1" {
		t.Fatalf("product tag: res=%+v err=%v", res, err)
	}
	res, err = r.Resolve(ctx, "CMP:b-12")
	if err != nil || res.Kind != scan.KindComponent || res.Component.ID != "c1" {
		t.Fatalf("component tag: res=%+v err=%v", res, err)
	}
	res, err = r.Resolve(ctx, "LOC:a-3")
	if err != nil || res.Kind != scan.KindLocation || res.Location.ID != "l1" {
		t.Fatalf("location tag: res=%+v err=%v", res, err)
	}
	// A tag restricts the lookup to its own entity type.
	if _, err := r.Resolve(ctx, "CMP:g-500"); !errors.Is(err, scan.ErrUnresolved) {
		t.Fatalf("cross-type tag lookup should fail, got %v", err)
	}
}

func TestResolveLegacyProbeOrder(t *testing.T) {
	r := scan.NewResolver(seedDirectory(t))
	ctx := context.Background()

	// Collision between a product and a component: product wins because the
	// legacy probe tries products first.
	res, err := r.Resolve(ctx, "legacy-7")
	if err != nil {
		t.Fatalf("legacy resolve: %v", err)
	}
	if res.Kind != scan.KindProduct || res.Product.ID != "p2" {
		t.Fatalf("probe order broken: %+v", res)
	}

	res, err = r.Resolve(ctx, "valve-9")
	if err != nil || res.Kind != scan.KindComponent || res.Component.ID != "c3" {
		t.Fatalf("untagged component: res=%+v err=%v", res, err)
	}
}

func TestResolveUnknown(t *testing.T) {
	r := scan.NewResolver(seedDirectory(t))
	ctx := context.Background()

	for _, payload := range []string{"", "  ", "nope", "CMP:nope"} {
		if _, err := r.Resolve(ctx, payload); !errors.Is(err, scan.ErrUnresolved) {
			t.Fatalf("payload %q: got %v, want ErrUnresolved", payload, err)
		}
	}
}

func TestResolveComponent(t *testing.T) {
	r := scan.NewResolver(seedDirectory(t))
	ctx := context.Background()

	c, err := r.ResolveComponent(ctx, "CMP:b-12")
	if err != nil || c.ID != "c1" {
		t.Fatalf("component: c=%+v err=%v", c, err)
	}
	if _, err := r.ResolveComponent(ctx, "PRD:g-500"); !errors.Is(err, scan.ErrNotComponent) {
		t.Fatalf("product payload: got %v, want ErrNotComponent", err)
	}
	if _, err := r.ResolveComponent(ctx, "nope"); !errors.Is(err, scan.ErrUnresolved) {
		t.Fatalf("unknown payload: got %v, want ErrUnresolved", err)
	}
}

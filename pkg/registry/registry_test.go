package registry

import (
	"fmt"
	"sync"
	"testing"
)

type testItem struct {
	ID   string
	Name string
}

func TestBaseRegistry_Register(t *testing.T) {
	registry := NewBaseRegistry[testItem]()

	tests := []struct {
		name    string
		itemID  string
		wantErr bool
	}{
		{
			name:    "register valid item",
			itemID:  "critic-1",
			wantErr: false,
		},
		{
			name:    "register item with empty name",
			itemID:  "",
			wantErr: true,
		},
		{
			name:    "register duplicate item",
			itemID:  "critic-1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.Register(tt.itemID, testItem{ID: tt.itemID})
			if (err != nil) != tt.wantErr {
				t.Errorf("BaseRegistry.Register() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBaseRegistry_Get(t *testing.T) {
	registry := NewBaseRegistry[testItem]()

	item := testItem{ID: "critic-1", Name: "Technical"}
	if err := registry.Register("critic-1", item); err != nil {
		t.Fatalf("Failed to register test item: %v", err)
	}

	got, ok := registry.Get("critic-1")
	if !ok || got != item {
		t.Errorf("Get() = (%v, %v), want (%v, true)", got, ok, item)
	}

	if _, ok := registry.Get("missing"); ok {
		t.Error("Get() on a missing name must report false")
	}
}

func TestBaseRegistry_NamesSorted(t *testing.T) {
	registry := NewBaseRegistry[testItem]()
	for _, name := range []string{"ux", "business", "technical"} {
		if err := registry.Register(name, testItem{ID: name}); err != nil {
			t.Fatal(err)
		}
	}

	names := registry.Names()
	want := []string{"business", "technical", "ux"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestBaseRegistry_Remove(t *testing.T) {
	registry := NewBaseRegistry[testItem]()
	if err := registry.Register("critic-1", testItem{ID: "critic-1"}); err != nil {
		t.Fatal(err)
	}

	if err := registry.Remove("critic-1"); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
	if registry.Count() != 0 {
		t.Errorf("Count() = %d after removal, want 0", registry.Count())
	}
	if err := registry.Remove("critic-1"); err == nil {
		t.Error("removing a missing item must fail")
	}
}

func TestBaseRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewBaseRegistry[testItem]()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("item-%d", i)
			if err := registry.Register(name, testItem{ID: name}); err != nil {
				t.Errorf("Register(%q) error = %v", name, err)
			}
			registry.Get(name)
			registry.Names()
		}(i)
	}
	wg.Wait()

	if registry.Count() != 20 {
		t.Errorf("Count() = %d, want 20", registry.Count())
	}
}

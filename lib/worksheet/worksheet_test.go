// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package worksheet

import (
	"testing"
)

func TestInsertKeyBetween(t *testing.T) {
	t.Run("midpoint", func(t *testing.T) {
		key, err := InsertKeyBetween(100, 200)
		if err != nil {
			t.Fatalf("InsertKeyBetween failed: %v", err)
		}
		if key != 150 {
			t.Errorf("key = %d, want 150", key)
		}
	})

	t.Run("strictly between", func(t *testing.T) {
		pairs := [][2]int64{{0, 2}, {-50, 50}, {7, 10}, {1 << 40, 1<<40 + 100}}
		for _, pair := range pairs {
			key, err := InsertKeyBetween(pair[0], pair[1])
			if err != nil {
				t.Errorf("InsertKeyBetween(%d, %d) failed: %v", pair[0], pair[1], err)
				continue
			}
			if key <= pair[0] || key >= pair[1] {
				t.Errorf("InsertKeyBetween(%d, %d) = %d, not strictly between", pair[0], pair[1], key)
			}
		}
	})

	t.Run("adjacent keys exhausted", func(t *testing.T) {
		if _, err := InsertKeyBetween(5, 6); err == nil {
			t.Error("InsertKeyBetween(5, 6) succeeded, want exhaustion error")
		}
	})

	t.Run("inverted order rejected", func(t *testing.T) {
		if _, err := InsertKeyBetween(10, 10); err == nil {
			t.Error("InsertKeyBetween(10, 10) succeeded")
		}
		if _, err := InsertKeyBetween(20, 10); err == nil {
			t.Error("InsertKeyBetween(20, 10) succeeded")
		}
	})
}

func TestInsertKeyEdges(t *testing.T) {
	if got := InsertKeyFirst(100); got != 90 {
		t.Errorf("InsertKeyFirst(100) = %d, want 90", got)
	}
	if got := InsertKeyLast(100); got != 110 {
		t.Errorf("InsertKeyLast(100) = %d, want 110", got)
	}
}

func TestInsertKeyAt(t *testing.T) {
	sheet := &Worksheet{Items: []Item{
		{SortKey: 100, Type: ItemMarkup},
		{SortKey: 200, Type: ItemTable},
		{SortKey: 300, Type: ItemMarkup},
	}}

	t.Run("before first", func(t *testing.T) {
		key, err := sheet.InsertKeyAt(0)
		if err != nil || key != 90 {
			t.Errorf("InsertKeyAt(0) = %d, %v", key, err)
		}
	})

	t.Run("middle", func(t *testing.T) {
		key, err := sheet.InsertKeyAt(1)
		if err != nil || key != 150 {
			t.Errorf("InsertKeyAt(1) = %d, %v", key, err)
		}
	})

	t.Run("append", func(t *testing.T) {
		key, err := sheet.InsertKeyAt(3)
		if err != nil || key != 310 {
			t.Errorf("InsertKeyAt(3) = %d, %v", key, err)
		}
	})

	t.Run("empty worksheet", func(t *testing.T) {
		empty := &Worksheet{}
		key, err := empty.InsertKeyAt(0)
		if err != nil || key != 0 {
			t.Errorf("InsertKeyAt on empty = %d, %v", key, err)
		}
	})

	t.Run("inserted key preserves monotonicity", func(t *testing.T) {
		key, err := sheet.InsertKeyAt(2)
		if err != nil {
			t.Fatal(err)
		}
		grown := &Worksheet{Items: []Item{
			sheet.Items[0], sheet.Items[1],
			{SortKey: key}, sheet.Items[2],
		}}
		if index, ok := grown.CheckSortKeys(); !ok {
			t.Errorf("monotonicity violated at index %d after insertion", index)
		}
	})
}

func TestCheckSortKeys(t *testing.T) {
	good := &Worksheet{Items: []Item{{SortKey: 1}, {SortKey: 5}, {SortKey: 9}}}
	if _, ok := good.CheckSortKeys(); !ok {
		t.Error("monotonic worksheet reported violation")
	}

	bad := &Worksheet{Items: []Item{{SortKey: 1}, {SortKey: 5}, {SortKey: 5}}}
	if index, ok := bad.CheckSortKeys(); ok || index != 2 {
		t.Errorf("CheckSortKeys = %d, %v, want 2, false", index, ok)
	}
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"main", "_scratch", "run-2026.08"} {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"", "2fast", "has space", "-x"} {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) succeeded", name)
		}
	}
}

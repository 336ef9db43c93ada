package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestShoppingListKeepsCategoryOrder(t *testing.T) {
	list := ShoppingList{
		{Label: "Vegetables", Items: []string{"2 carottes", "1 oignon"}},
		{Label: "Meat & Fish", Items: []string{"200 g poulet"}},
		{Label: "Other", Items: []string{"sel et poivre"}},
	}

	data, err := list.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	want := `{"Vegetables":["2 carottes","1 oignon"],"Meat & Fish":["200 g poulet"],"Other":["sel et poivre"]}`
	if string(data) != want {
		t.Errorf("Marshal = %s; want %s", data, want)
	}

	// Reverse alphabetical keys must survive decoding in document order.
	var decoded ShoppingList
	if err := json.Unmarshal([]byte(`{"Zeta":["z"],"Alpha":["a","b"]}`), &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got := decoded.Labels(); !reflect.DeepEqual(got, []string{"Zeta", "Alpha"}) {
		t.Errorf("Labels = %v; want [Zeta Alpha]", got)
	}
	if got := decoded.Items("Alpha"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Items(Alpha) = %v", got)
	}
	if decoded.Count() != 3 {
		t.Errorf("Count = %d; want 3", decoded.Count())
	}
}

func TestShoppingListEmpty(t *testing.T) {
	var list ShoppingList
	data, err := json.Marshal(list)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("empty list encodes as %s; want {}", data)
	}

	if err := list.Scan(nil); err != nil || list != nil {
		t.Errorf("Scan(nil) = %v, list %v", err, list)
	}
	if err := list.Scan([]byte(`{}`)); err != nil || len(list) != 0 {
		t.Errorf("Scan({}) = %v, list %v", err, list)
	}
}

func TestShoppingListRejectsNonObject(t *testing.T) {
	var list ShoppingList
	if err := list.Scan(`["a"]`); err == nil {
		t.Error("expected error scanning a JSON array")
	}
	if err := list.Scan(12); err == nil {
		t.Error("expected error scanning an int")
	}
}

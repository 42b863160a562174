package user

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCartRemoveSteps_PinQuantity(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	decFilter, dec, unsetFilter, unset := cartRemoveSteps("u1", "soup", now)

	if got := decFilter["cartData.soup"]; got.(bson.M)["$gt"] != 1 {
		t.Fatalf("decrement filter=%v", decFilter)
	}
	if got := dec["$inc"].(bson.M)["cartData.soup"]; got != -1 {
		t.Fatalf("decrement=%v", dec)
	}
	// the unset must not match once an add raised the quantity above 1
	if got := unsetFilter["cartData.soup"]; got.(bson.M)["$lte"] != 1 {
		t.Fatalf("unset filter=%v", unsetFilter)
	}
	if _, ok := unset["$unset"].(bson.M)["cartData.soup"]; !ok {
		t.Fatalf("unset=%v", unset)
	}
	for _, f := range []bson.M{decFilter, unsetFilter} {
		if f["_id"] != "u1" {
			t.Fatalf("filter=%v", f)
		}
	}
}

package mongo

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Keshav-Madhav/mern-authorization/core"
)

// Requirement: unset credentials are left out of the stored document.
func TestToDocumentOmitsUnsetCredentials(t *testing.T) {
	u := &core.User{ID: primitive.NewObjectID().Hex(), Email: "a@b.com", Name: "A", PasswordHash: "hash"}
	u.MarkVerified()

	doc, err := toDocument(u)
	if err != nil {
		t.Fatalf("toDocument() error = %v", err)
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("bson.Marshal() error = %v", err)
	}

	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("bson.Unmarshal() error = %v", err)
	}
	for _, key := range []string{"verificationToken", "verificationTokenExpiresAt", "resetPasswordToken", "resetPasswordExpiresAt"} {
		if _, ok := fields[key]; ok {
			t.Errorf("document contains %q", key)
		}
	}
	if fields["password"] != "hash" || fields["isVerified"] != true {
		t.Errorf("document = %v", fields)
	}
}

func TestDocumentRoundTripKeepsTokens(t *testing.T) {
	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond)
	u := &core.User{ID: primitive.NewObjectID().Hex(), Email: "a@b.com"}
	u.SetVerificationToken("123456", exp)
	u.SetResetToken("abc", exp)

	doc, err := toDocument(u)
	if err != nil {
		t.Fatalf("toDocument() error = %v", err)
	}
	got := doc.toUser()

	if got.ID != u.ID {
		t.Errorf("ID = %q, want %q", got.ID, u.ID)
	}
	if !got.VerificationValid("123456", exp.Add(-time.Second)) {
		t.Error("verification code lost")
	}
	if !got.ResetValid("abc", exp.Add(-time.Second)) {
		t.Error("reset token lost")
	}
}

func TestToDocumentRejectsForeignID(t *testing.T) {
	_, err := toDocument(&core.User{ID: "not-an-object-id"})
	if !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("toDocument() error = %v, want ErrUserNotFound", err)
	}
}

// Requirement: token lookups only match unexpired records.
func TestFiltersRequireUnexpiredToken(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	v := verificationFilter("a@b.com", "123456", now)
	if v["email"] != "a@b.com" || v["verificationToken"] != "123456" {
		t.Errorf("verification filter = %v", v)
	}
	if exp, _ := v["verificationTokenExpiresAt"].(bson.M); exp["$gt"] != now {
		t.Errorf("verification expiry clause = %v", v["verificationTokenExpiresAt"])
	}

	r := resetFilter("hash", now)
	if r["resetPasswordToken"] != "hash" {
		t.Errorf("reset filter = %v", r)
	}
	if exp, _ := r["resetPasswordExpiresAt"].(bson.M); exp["$gt"] != now {
		t.Errorf("reset expiry clause = %v", r["resetPasswordExpiresAt"])
	}
}

// Requirement: consuming a code or reset token touches only its own fields
// and clears the consumed credential.
func TestUpdatesTouchOnlyTheirFields(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		update    bson.M
		wantSet   bson.M
		wantUnset []string
	}{
		{
			name:      "verify",
			update:    verifyUpdate(now),
			wantSet:   bson.M{"isVerified": true, "updatedAt": now},
			wantUnset: []string{"verificationToken", "verificationTokenExpiresAt"},
		},
		{
			name:      "consume reset token",
			update:    consumeResetUpdate("new-hash", now),
			wantSet:   bson.M{"password": "new-hash", "updatedAt": now},
			wantUnset: []string{"resetPasswordToken", "resetPasswordExpiresAt"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			set, _ := test.update["$set"].(bson.M)
			if len(set) != len(test.wantSet) {
				t.Fatalf("$set = %v, want %v", set, test.wantSet)
			}
			for key, want := range test.wantSet {
				if set[key] != want {
					t.Errorf("$set[%q] = %v, want %v", key, set[key], want)
				}
			}

			unset, _ := test.update["$unset"].(bson.M)
			if len(unset) != len(test.wantUnset) {
				t.Fatalf("$unset = %v, want %v", unset, test.wantUnset)
			}
			for _, key := range test.wantUnset {
				if _, ok := unset[key]; !ok {
					t.Errorf("$unset missing %q", key)
				}
			}
		})
	}
}

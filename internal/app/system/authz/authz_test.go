package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/taskhive/internal/app/system/auth"
	"github.com/dalemusser/taskhive/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserCtx_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	email, name, uid, ok := authz.UserCtx(req)
	if ok {
		t.Error("expected ok=false for unauthenticated request")
	}
	if email != "" || name != "" || uid != primitive.NilObjectID {
		t.Errorf("expected zero values, got %q %q %v", email, name, uid)
	}
}

func TestUserCtx_MalformedID(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "not-an-object-id", Email: "a@x.com"})

	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Error("expected ok=false for malformed user id")
	}
}

func TestUserCtx_NormalizesEmail(t *testing.T) {
	id := primitive.NewObjectID()
	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: id.Hex(), Name: "Ada", Email: "  Ada@X.COM "})

	email, name, uid, ok := authz.UserCtx(req)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if email != "ada@x.com" {
		t.Errorf("email: got %q, want %q", email, "ada@x.com")
	}
	if name != "Ada" {
		t.Errorf("name: got %q, want %q", name, "Ada")
	}
	if uid != id {
		t.Errorf("uid: got %v, want %v", uid, id)
	}
}

func TestIsPaid(t *testing.T) {
	id := primitive.NewObjectID().Hex()

	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: id, Email: "a@x.com", Plan: "paid"})
	if !authz.IsPaid(req) {
		t.Error("expected paid user")
	}

	req2 := httptest.NewRequest("GET", "/", nil)
	req2 = auth.WithTestUser(req2, &auth.SessionUser{ID: id, Email: "a@x.com", Plan: "free"})
	if authz.IsPaid(req2) {
		t.Error("free user should not report paid")
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zensof/telegram-shop-bot/internal/store"
)

type productStoreStub struct {
	store.ProductStore

	active   []store.Product
	byID     map[primitive.ObjectID]*store.Product
	failWith error
}

func (s *productStoreStub) FindActive(ctx context.Context) ([]store.Product, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	return s.active, nil
}

func (s *productStoreStub) FindActiveByID(ctx context.Context, id primitive.ObjectID) (*store.Product, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

func doRequest(t *testing.T, stub *productStoreStub, path string) *httptest.ResponseRecorder {
	t.Helper()
	server := NewServer(stub)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestListProducts(t *testing.T) {
	id := primitive.NewObjectID()
	stub := &productStoreStub{
		active: []store.Product{
			{ID: id, Name: "iPhone 12", Price: "450", IsActive: true},
		},
	}

	rec := doRequest(t, stub, "/api/products")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Products []store.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Products, 1)
	assert.Equal(t, "iPhone 12", body.Products[0].Name)
	assert.Equal(t, id, body.Products[0].ID)
}

func TestListProducts_EmptyIsArrayNotNull(t *testing.T) {
	rec := doRequest(t, &productStoreStub{}, "/api/products")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"products":[]}`, rec.Body.String())
}

func TestListProducts_StoreError(t *testing.T) {
	stub := &productStoreStub{failWith: errors.New("boom")}
	rec := doRequest(t, stub, "/api/products")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetProduct(t *testing.T) {
	id := primitive.NewObjectID()
	stub := &productStoreStub{
		byID: map[primitive.ObjectID]*store.Product{
			id: {ID: id, Name: "iPhone 12", IsActive: true},
		},
	}

	rec := doRequest(t, stub, "/api/products/"+id.Hex())

	require.Equal(t, http.StatusOK, rec.Code)
	var p store.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "iPhone 12", p.Name)
}

func TestGetProduct_InvalidID(t *testing.T) {
	rec := doRequest(t, &productStoreStub{}, "/api/products/not-a-hex-id")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProduct_NotFound(t *testing.T) {
	stub := &productStoreStub{byID: map[primitive.ObjectID]*store.Product{}}
	rec := doRequest(t, stub, "/api/products/"+primitive.NewObjectID().Hex())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

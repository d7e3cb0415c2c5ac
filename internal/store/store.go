// Package store persists products, sellers and users in MongoDB.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("store: not found")

// ProductStore provides access to published listings.
type ProductStore interface {
	// Insert stores a new product and returns its generated ID.
	Insert(ctx context.Context, p *Product) (primitive.ObjectID, error)
	// FindByID returns a product regardless of its active flag.
	FindByID(ctx context.Context, id primitive.ObjectID) (*Product, error)
	// FindActiveByID returns a product only if it is still active.
	FindActiveByID(ctx context.Context, id primitive.ObjectID) (*Product, error)
	// FindOwned returns the product only if it belongs to the given seller.
	FindOwned(ctx context.Context, id, sellerID primitive.ObjectID) (*Product, error)
	// FindActiveBySeller lists a seller's active products.
	FindActiveBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]Product, error)
	// FindActive lists all active products.
	FindActive(ctx context.Context) ([]Product, error)
	// Update rewrites the listing fields of an existing product and stamps
	// EditedAt. Broadcast message IDs and the active flag are not touched.
	Update(ctx context.Context, id primitive.ObjectID, p *Product) error
	// SetBroadcastIDs records the channel and group message IDs captured at
	// publish time.
	SetBroadcastIDs(ctx context.Context, id primitive.ObjectID, channelMsgID, groupMsgID int) error
	// Deactivate marks a product sold (isActive=false).
	Deactivate(ctx context.Context, id primitive.ObjectID) error
}

// SellerStore provides access to seller records.
type SellerStore interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*Seller, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*Seller, error)
	// Upsert creates the seller keyed by telegram ID, or updates the stored
	// phone (and name fields) if it already exists. Returns the seller ID.
	Upsert(ctx context.Context, s *Seller) (primitive.ObjectID, error)
}

// UserStore provides access to bot user records.
type UserStore interface {
	// Ensure creates the user if missing and returns the stored record.
	Ensure(ctx context.Context, u *User) (*User, error)
	// AddCategoryPreferences appends the category pair to the user's
	// preference lists, deduplicated.
	AddCategoryPreferences(ctx context.Context, telegramID int64, general, specific string) error
}

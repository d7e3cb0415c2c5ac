package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a published listing. Products are never physically deleted;
// mark-sold flips IsActive to false.
type Product struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SellerID           primitive.ObjectID `bson:"sellerId" json:"sellerId"`
	Name               string             `bson:"name" json:"name"`
	PrimaryImageID     string             `bson:"primaryImageId" json:"primaryImageId"`
	AdditionalImageIDs []string           `bson:"additionalImageIds,omitempty" json:"additionalImageIds,omitempty"`
	GeneralCategory    string             `bson:"generalCategory" json:"generalCategory"`
	SpecificCategory   string             `bson:"specificCategory" json:"specificCategory"`
	ShortDescription   string             `bson:"shortDescription" json:"shortDescription"`
	// Price is either a positive number rendered as text, a free-text tag
	// such as "Negotiable", or the literal "Price not set". Never blank.
	Price            string    `bson:"price" json:"price"`
	Location         string    `bson:"location" json:"location"`
	ContactPhone     string    `bson:"contactPhone" json:"contactPhone"`
	ChannelMessageID int       `bson:"channelMessageId,omitempty" json:"-"`
	GroupMessageID   int       `bson:"groupMessageId,omitempty" json:"-"`
	IsActive         bool      `bson:"isActive" json:"isActive"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
	EditedAt         time.Time `bson:"editedAt,omitempty" json:"editedAt,omitempty"`
}

// AllImageIDs returns the primary image followed by the additional images.
func (p *Product) AllImageIDs() []string {
	out := make([]string, 0, 1+len(p.AdditionalImageIDs))
	out = append(out, p.PrimaryImageID)
	out = append(out, p.AdditionalImageIDs...)
	return out
}

// Seller is created lazily the first time a user shares their phone number
// during a listing wizard.
type Seller struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TelegramID int64              `bson:"telegramId" json:"telegramId"`
	Username   string             `bson:"username,omitempty" json:"username,omitempty"`
	FirstName  string             `bson:"firstName,omitempty" json:"firstName,omitempty"`
	Phone      string             `bson:"phone" json:"phone"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// Preferences records the categories a user has viewed via deep links.
type Preferences struct {
	GeneralCategories  []string `bson:"generalCategories,omitempty" json:"generalCategories,omitempty"`
	SpecificCategories []string `bson:"specificCategories,omitempty" json:"specificCategories,omitempty"`
}

// User is any person who has talked to the bot. Category preferences are
// appended (deduplicated) when the user opens a product deep link; they are
// kept for future retargeting and not read back by any current flow.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TelegramID  int64              `bson:"telegramId" json:"telegramId"`
	Username    string             `bson:"username,omitempty" json:"username,omitempty"`
	FirstName   string             `bson:"firstName,omitempty" json:"firstName,omitempty"`
	Preferences Preferences        `bson:"preferences" json:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zensof/telegram-shop-bot/config"
	"github.com/zensof/telegram-shop-bot/internal/store"
)

type botApiMock struct {
	mock.Mock
}

func (m *botApiMock) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func (m *botApiMock) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	return args.Get(0).(*tgbotapi.APIResponse), args.Error(1)
}

func (m *botApiMock) SendMediaGroup(c tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).([]tgbotapi.Message), args.Error(1)
}

func (m *botApiMock) GetChatMember(c tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.ChatMember), args.Error(1)
}

func (m *botApiMock) GetFileDirectURL(fileID string) (string, error) {
	args := m.Called(fileID)
	return args.Get(0).(string), args.Error(1)
}

// --- In-memory stores ---

type productStoreFake struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*store.Product
}

func newProductStoreFake() *productStoreFake {
	return &productStoreFake{products: make(map[primitive.ObjectID]*store.Product)}
}

func (f *productStoreFake) Insert(ctx context.Context, p *store.Product) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := primitive.NewObjectID()
	p.ID = id
	cp := *p
	f.products[id] = &cp
	return id, nil
}

func (f *productStoreFake) get(id primitive.ObjectID) (*store.Product, error) {
	if p, ok := f.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (f *productStoreFake) FindByID(ctx context.Context, id primitive.ObjectID) (*store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(id)
}

func (f *productStoreFake) FindActiveByID(ctx context.Context, id primitive.ObjectID) (*store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.get(id)
	if err != nil || !p.IsActive {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *productStoreFake) FindOwned(ctx context.Context, id, sellerID primitive.ObjectID) (*store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.get(id)
	if err != nil || p.SellerID != sellerID {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *productStoreFake) FindActiveBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Product
	for _, p := range f.products {
		if p.SellerID == sellerID && p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *productStoreFake) FindActive(ctx context.Context) ([]store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Product
	for _, p := range f.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *productStoreFake) Update(ctx context.Context, id primitive.ObjectID, p *store.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.products[id]
	if !ok {
		return store.ErrNotFound
	}
	stored.Name = p.Name
	stored.PrimaryImageID = p.PrimaryImageID
	stored.AdditionalImageIDs = p.AdditionalImageIDs
	stored.GeneralCategory = p.GeneralCategory
	stored.SpecificCategory = p.SpecificCategory
	stored.ShortDescription = p.ShortDescription
	stored.Price = p.Price
	stored.Location = p.Location
	stored.ContactPhone = p.ContactPhone
	stored.EditedAt = time.Now()
	return nil
}

func (f *productStoreFake) SetBroadcastIDs(ctx context.Context, id primitive.ObjectID, channelMsgID, groupMsgID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.products[id]
	if !ok {
		return store.ErrNotFound
	}
	stored.ChannelMessageID = channelMsgID
	stored.GroupMessageID = groupMsgID
	return nil
}

func (f *productStoreFake) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.products[id]
	if !ok {
		return store.ErrNotFound
	}
	stored.IsActive = false
	return nil
}

type sellerStoreFake struct {
	mu      sync.Mutex
	sellers map[int64]*store.Seller
}

func newSellerStoreFake() *sellerStoreFake {
	return &sellerStoreFake{sellers: make(map[int64]*store.Seller)}
}

func (f *sellerStoreFake) FindByTelegramID(ctx context.Context, telegramID int64) (*store.Seller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sellers[telegramID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (f *sellerStoreFake) FindByID(ctx context.Context, id primitive.ObjectID) (*store.Seller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sellers {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *sellerStoreFake) Upsert(ctx context.Context, s *store.Seller) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.sellers[s.TelegramID]; ok {
		existing.Phone = s.Phone
		existing.Username = s.Username
		existing.FirstName = s.FirstName
		return existing.ID, nil
	}
	cp := *s
	cp.ID = primitive.NewObjectID()
	f.sellers[s.TelegramID] = &cp
	return cp.ID, nil
}

type userStoreFake struct {
	mu    sync.Mutex
	users map[int64]*store.User
}

func newUserStoreFake() *userStoreFake {
	return &userStoreFake{users: make(map[int64]*store.User)}
}

func (f *userStoreFake) Ensure(ctx context.Context, u *store.User) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.users[u.TelegramID]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *u
	cp.ID = primitive.NewObjectID()
	f.users[u.TelegramID] = &cp
	out := cp
	return &out, nil
}

func (f *userStoreFake) AddCategoryPreferences(ctx context.Context, telegramID int64, general, specific string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[telegramID]
	if !ok {
		return nil
	}
	u.Preferences.GeneralCategories = append(u.Preferences.GeneralCategories, general)
	u.Preferences.SpecificCategories = append(u.Preferences.SpecificCategories, specific)
	return nil
}

// --- Test scaffolding ---

type testEnv struct {
	tg       *botApiMock
	bot      *Bot
	products *productStoreFake
	sellers  *sellerStoreFake
	users    *userStoreFake
}

func testConfig() *config.Config {
	return &config.Config{
		BotToken:        "test-token",
		BotUsername:     "shop_test_bot",
		ChannelUsername: "@shopchannel",
		GroupID:         -100200300,
		RelayChatID:     -100400500,
		SupportURL:      "https://t.me/support",
	}
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		tg:       new(botApiMock),
		products: newProductStoreFake(),
		sellers:  newSellerStoreFake(),
		users:    newUserStoreFake(),
	}
	env.bot = NewBot(env.tg, testConfig(), env.products, env.sellers, env.users)
	t.Cleanup(env.bot.state.Shutdown)
	return env
}

func makeTextUpdate(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID, FirstName: "Abel"},
			Chat: &tgbotapi.Chat{ID: userID, Type: "private"},
			Text: text,
		},
	}
}

func makePhotoUpdate(userID int64, fileID string) tgbotapi.Update {
	u := makeTextUpdate(userID, "")
	u.Message.Photo = []tgbotapi.PhotoSize{
		{FileID: fileID + "-small", Width: 90, Height: 90},
		{FileID: fileID, Width: 800, Height: 800},
	}
	return u
}

func makeContactUpdate(userID int64, phone string) tgbotapi.Update {
	u := makeTextUpdate(userID, "")
	u.Message.Contact = &tgbotapi.Contact{PhoneNumber: phone, UserID: userID}
	return u
}

func makeCallbackUpdate(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			From: &tgbotapi.User{ID: userID},
			Data: data,
		},
	}
}

func expectSubscribed(tg *botApiMock) {
	tg.On("GetChatMember", mock.Anything).
		Return(tgbotapi.ChatMember{Status: "member"}, nil)
}

// --- Tests ---

func TestHandleStart_Welcome(t *testing.T) {
	env := setup(t)
	userID := int64(1)

	var sent tgbotapi.MessageConfig
	env.tg.On("Send", mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(0).(tgbotapi.MessageConfig) }).
		Return(tgbotapi.Message{}, nil).Once()

	env.bot.handleUpdateSync(context.Background(), makeTextUpdate(userID, "/start"))

	env.tg.AssertExpectations(t)
	assert.Contains(t, sent.Text, "Welcome Abel")
	assert.Contains(t, env.users.users, userID)
}

func TestHandleStart_DeepLinkShowsProduct(t *testing.T) {
	env := setup(t)
	userID := int64(1)

	seller := &store.Seller{
		TelegramID: 77,
		Username:   "abebe_sells",
		FirstName:  "Abebe",
		Phone:      "+251911000000",
	}
	sellerID, err := env.sellers.Upsert(context.Background(), seller)
	require.NoError(t, err)

	id, err := env.products.Insert(context.Background(), &store.Product{
		SellerID:         sellerID,
		Name:             "iPhone 12",
		PrimaryImageID:   "file-1",
		GeneralCategory:  "🛒 Electronics",
		SpecificCategory: "Phones",
		ShortDescription: "Lightly used",
		Price:            "450",
		Location:         "Addis Ababa",
		IsActive:         true,
	})
	require.NoError(t, err)

	var group tgbotapi.MediaGroupConfig
	env.tg.On("SendMediaGroup", mock.Anything).
		Run(func(args mock.Arguments) { group = args.Get(0).(tgbotapi.MediaGroupConfig) }).
		Return([]tgbotapi.Message{{MessageID: 1}}, nil).Once()
	var contact tgbotapi.MessageConfig
	env.tg.On("Send", mock.Anything).
		Run(func(args mock.Arguments) { contact = args.Get(0).(tgbotapi.MessageConfig) }).
		Return(tgbotapi.Message{}, nil).Once()

	env.bot.handleUpdateSync(context.Background(), makeTextUpdate(userID, "/start "+id.Hex()))

	env.tg.AssertExpectations(t)
	require.Len(t, group.Media, 1)
	first := group.Media[0].(tgbotapi.InputMediaPhoto)
	assert.Contains(t, first.Caption, "iPhone 12")
	assert.Contains(t, first.Caption, `\#Electronics`)

	// The media group is followed by the seller's contact details.
	assert.Contains(t, contact.Text, "Abebe")
	assert.Contains(t, contact.Text, "@abebe_sells")
	assert.Contains(t, contact.Text, "+251911000000")

	// Viewing records the viewer's category interests.
	user := env.users.users[userID]
	require.NotNil(t, user)
	assert.Equal(t, []string{"🛒 Electronics"}, user.Preferences.GeneralCategories)
	assert.Equal(t, []string{"Phones"}, user.Preferences.SpecificCategories)
}

func TestHandleStart_DeepLinkUnknownProduct(t *testing.T) {
	env := setup(t)
	userID := int64(1)

	env.tg.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Once()

	env.bot.handleUpdateSync(context.Background(), makeTextUpdate(userID, "/start "+primitive.NewObjectID().Hex()))

	env.tg.AssertExpectations(t)
	sentMsg := env.tg.Calls[len(env.tg.Calls)-1].Arguments.Get(0).(tgbotapi.MessageConfig)
	assert.Equal(t, MsgProductNotFound, sentMsg.Text)
}

func TestHandleStart_DeepLinkInactiveProduct(t *testing.T) {
	env := setup(t)
	userID := int64(1)

	id, err := env.products.Insert(context.Background(), &store.Product{
		Name:     "Old couch",
		IsActive: false,
	})
	require.NoError(t, err)

	env.tg.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Once()

	env.bot.handleUpdateSync(context.Background(), makeTextUpdate(userID, "/start "+id.Hex()))

	env.tg.AssertExpectations(t)
	sentMsg := env.tg.Calls[len(env.tg.Calls)-1].Arguments.Get(0).(tgbotapi.MessageConfig)
	assert.Contains(t, sentMsg.Text, "no longer available")
}

func TestAddProduct_RequiresSubscription(t *testing.T) {
	env := setup(t)
	userID := int64(1)

	env.tg.On("GetChatMember", mock.Anything).
		Return(tgbotapi.ChatMember{Status: "left"}, nil).Once()

	var sent tgbotapi.MessageConfig
	env.tg.On("Send", mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(0).(tgbotapi.MessageConfig) }).
		Return(tgbotapi.Message{}, nil).Once()

	env.bot.handleUpdateSync(context.Background(), makeTextUpdate(userID, "/addproduct"))

	env.tg.AssertExpectations(t)
	assert.Contains(t, sent.Text, "subscribe")
	assert.Contains(t, sent.Text, "https://t.me/shopchannel")
	assert.Nil(t, env.bot.state.getUserSession(userID).wizard)
}

func TestAddProduct_SubscriptionCheck400TreatedAsNotSubscribed(t *testing.T) {
	env := setup(t)
	userID := int64(1)

	env.tg.On("GetChatMember", mock.Anything).
		Return(tgbotapi.ChatMember{}, &tgbotapi.Error{Code: 400, Message: "user not found"}).Once()
	env.tg.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Once()

	env.bot.handleUpdateSync(context.Background(), makeTextUpdate(userID, "/addproduct"))

	env.tg.AssertExpectations(t)
	assert.Nil(t, env.bot.state.getUserSession(userID).wizard)
}

func TestAddProduct_SecondCommandRejected(t *testing.T) {
	env := setup(t)
	userID := int64(1)
	expectSubscribed(env.tg)
	env.tg.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil)

	env.bot.handleUpdateSync(context.Background(), makeTextUpdate(userID, "/addproduct"))
	session := env.bot.state.getUserSession(userID)
	require.NotNil(t, session.wizard)
	require.Equal(t, StepPrimaryImage, session.wizard.Step)

	env.bot.handleUpdateSync(context.Background(), makeTextUpdate(userID, "/addproduct"))

	sentMsg := env.tg.Calls[len(env.tg.Calls)-1].Arguments.Get(0).(tgbotapi.MessageConfig)
	assert.Equal(t, MsgWizardInProgress, sentMsg.Text)
	// The original wizard is untouched.
	assert.Equal(t, StepPrimaryImage, session.wizard.Step)
}

func TestCancel_WithoutWizard(t *testing.T) {
	env := setup(t)
	userID := int64(1)

	env.tg.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Once()

	env.bot.handleUpdateSync(context.Background(), makeTextUpdate(userID, "/cancel"))

	sentMsg := env.tg.Calls[len(env.tg.Calls)-1].Arguments.Get(0).(tgbotapi.MessageConfig)
	assert.Equal(t, MsgNothingToCancel, sentMsg.Text)
}

func TestCancel_AbortsWizard(t *testing.T) {
	env := setup(t)
	userID := int64(1)
	expectSubscribed(env.tg)
	env.tg.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil)

	ctx := context.Background()
	env.bot.handleUpdateSync(ctx, makeTextUpdate(userID, "/addproduct"))
	env.bot.handleUpdateSync(ctx, makePhotoUpdate(userID, "primary-photo"))
	env.bot.handleUpdateSync(ctx, makeTextUpdate(userID, "/cancel"))

	session := env.bot.state.getUserSession(userID)
	assert.Nil(t, session.wizard)
	sentMsg := env.tg.Calls[len(env.tg.Calls)-1].Arguments.Get(0).(tgbotapi.MessageConfig)
	assert.Equal(t, MsgListingCanceled, sentMsg.Text)

	// A new wizard starts fresh, with no residue from the canceled one.
	env.bot.handleUpdateSync(ctx, makeTextUpdate(userID, "/addproduct"))
	require.NotNil(t, session.wizard)
	assert.Equal(t, StepPrimaryImage, session.wizard.Step)
	assert.Equal(t, Draft{}, session.wizard.Draft)
}

func TestCreateWizard_FullFlow(t *testing.T) {
	env := setup(t)
	userID := int64(1)
	ctx := context.Background()

	expectSubscribed(env.tg)
	env.tg.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 42}, nil)
	env.tg.On("SendMediaGroup", mock.Anything).Return([]tgbotapi.Message{{MessageID: 10}}, nil)

	env.bot.handleUpdateSync(ctx, makeTextUpdate(userID, "/addproduct"))
	env.bot.handleUpdateSync(ctx, makePhotoUpdate(userID, "primary-photo"))
	env.bot.handleUpdateSync(ctx, makePhotoUpdate(userID, "extra-photo"))
	env.bot.handleUpdateSync(ctx, makeTextUpdate(userID, "done"))
	env.bot.handleUpdateSync(ctx, makeTextUpdate(userID, "🛒 Electronics"))
	env.bot.handleUpdateSync(ctx, makeTextUpdate(userID, "📱 Phones"))
	env.bot.handleUpdateSync(ctx, makeTextUpdate(userID, "iPhone 12"))
	env.bot.handleUpdateSync(ctx, makeTextUpdate(userID, "Addis Ababa"))
	env.bot.handleUpdateSync(ctx, makeTextUpdate(userID, "450"))
	env.bot.handleUpdateSync(ctx, makeTextUpdate(userID, "Lightly used, excellent condition"))
	env.bot.handleUpdateSync(ctx, makeContactUpdate(userID, "+251911000000"))

	session := env.bot.state.getUserSession(userID)
	require.NotNil(t, session.wizard)
	assert.Equal(t, StepPreview, session.wizard.Step)

	env.bot.handleUpdateSync(ctx, makeCallbackUpdate(userID, "wizard:confirm"))

	assert.Nil(t, session.wizard)

	products, err := env.products.FindActive(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	p := products[0]
	assert.Equal(t, "iPhone 12", p.Name)
	assert.Equal(t, "primary-photo", p.PrimaryImageID)
	assert.Equal(t, []string{"extra-photo"}, p.AdditionalImageIDs)
	assert.Equal(t, "🛒 Electronics", p.GeneralCategory)
	assert.Equal(t, "Phones", p.SpecificCategory)
	assert.Equal(t, "450", p.Price)
	assert.Equal(t, "Addis Ababa", p.Location)
	assert.Equal(t, "+251911000000", p.ContactPhone)
	assert.True(t, p.IsActive)
	assert.Equal(t, 42, p.ChannelMessageID)
	assert.Equal(t, 42, p.GroupMessageID)

	// Sharing the phone created the seller record.
	seller, err := env.sellers.FindByTelegramID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "+251911000000", seller.Phone)
	assert.Equal(t, seller.ID, p.SellerID)
}

func TestMyProducts_NoProducts(t *testing.T) {
	env := setup(t)
	userID := int64(1)

	env.tg.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Once()

	env.bot.handleUpdateSync(context.Background(), makeTextUpdate(userID, "/myproducts"))

	sentMsg := env.tg.Calls[len(env.tg.Calls)-1].Arguments.Get(0).(tgbotapi.MessageConfig)
	assert.Equal(t, MsgNoActiveProducts, sentMsg.Text)
}

func TestMyProducts_ListsOwnActiveProducts(t *testing.T) {
	env := setup(t)
	userID := int64(1)
	ctx := context.Background()

	sellerID, err := env.sellers.Upsert(ctx, &store.Seller{TelegramID: userID, Phone: "+251911000000"})
	require.NoError(t, err)
	otherID := primitive.NewObjectID()

	for i, p := range []*store.Product{
		{SellerID: sellerID, Name: "Mine active", PrimaryImageID: "a", IsActive: true},
		{SellerID: sellerID, Name: "Mine sold", PrimaryImageID: "b", IsActive: false},
		{SellerID: otherID, Name: "Not mine", PrimaryImageID: "c", IsActive: true},
	} {
		_, err := env.products.Insert(ctx, p)
		require.NoError(t, err, "product %d", i)
	}

	var photos []tgbotapi.PhotoConfig
	env.tg.On("Send", mock.Anything).
		Run(func(args mock.Arguments) {
			if p, ok := args.Get(0).(tgbotapi.PhotoConfig); ok {
				photos = append(photos, p)
			}
		}).
		Return(tgbotapi.Message{MessageID: 7}, nil)

	env.bot.handleUpdateSync(ctx, makeTextUpdate(userID, "/myproducts"))

	require.Len(t, photos, 1)
	assert.Contains(t, photos[0].Caption, "Mine active")
	session := env.bot.state.getUserSession(userID)
	assert.Equal(t, []int{7}, session.productMsgIDs)
}

func TestProductCallback_NotOwner(t *testing.T) {
	env := setup(t)
	userID := int64(1)
	ctx := context.Background()

	_, err := env.sellers.Upsert(ctx, &store.Seller{TelegramID: userID, Phone: "+251911000000"})
	require.NoError(t, err)

	id, err := env.products.Insert(ctx, &store.Product{
		SellerID: primitive.NewObjectID(), // someone else
		Name:     "Not mine",
		IsActive: true,
	})
	require.NoError(t, err)

	env.tg.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Once()

	env.bot.handleUpdateSync(ctx, makeCallbackUpdate(userID, "product:delete:"+id.Hex()))

	sentMsg := env.tg.Calls[len(env.tg.Calls)-1].Arguments.Get(0).(tgbotapi.MessageConfig)
	assert.Equal(t, MsgNotOwner, sentMsg.Text)

	p, err := env.products.FindByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, p.IsActive)
}

func TestProductCallback_DeleteMarksSoldAndRewritesBroadcasts(t *testing.T) {
	env := setup(t)
	userID := int64(1)
	ctx := context.Background()

	sellerID, err := env.sellers.Upsert(ctx, &store.Seller{TelegramID: userID, Phone: "+251911000000"})
	require.NoError(t, err)

	id, err := env.products.Insert(ctx, &store.Product{
		SellerID:         sellerID,
		Name:             "iPhone 12",
		PrimaryImageID:   "file-1",
		GeneralCategory:  "🛒 Electronics",
		SpecificCategory: "Phones",
		ShortDescription: "Lightly used",
		Price:            "450",
		IsActive:         true,
		ChannelMessageID: 100,
		GroupMessageID:   200,
	})
	require.NoError(t, err)

	var edits []tgbotapi.EditMessageCaptionConfig
	env.tg.On("Request", mock.Anything).
		Run(func(args mock.Arguments) {
			if e, ok := args.Get(0).(tgbotapi.EditMessageCaptionConfig); ok {
				edits = append(edits, e)
			}
		}).
		Return(&tgbotapi.APIResponse{Ok: true}, nil)
	env.tg.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil)

	env.bot.handleUpdateSync(ctx, makeCallbackUpdate(userID, "product:delete:"+id.Hex()))

	p, err := env.products.FindByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, p.IsActive)

	require.Len(t, edits, 2)
	assert.Equal(t, "@shopchannel", edits[0].ChannelUsername)
	assert.Equal(t, 100, edits[0].MessageID)
	assert.Contains(t, edits[0].Caption, "Sold Out")
	assert.Equal(t, int64(-100200300), edits[1].ChatID)
	assert.Equal(t, 200, edits[1].MessageID)
	// The deep-link button is dropped from both posts.
	assert.Nil(t, edits[0].ReplyMarkup)
	assert.Nil(t, edits[1].ReplyMarkup)
}

func TestMarkSold_BroadcastRewriteFailureReported(t *testing.T) {
	env := setup(t)
	userID := int64(1)
	ctx := context.Background()

	sellerID, err := env.sellers.Upsert(ctx, &store.Seller{TelegramID: userID, Phone: "+251911000000"})
	require.NoError(t, err)

	id, err := env.products.Insert(ctx, &store.Product{
		SellerID:         sellerID,
		Name:             "iPhone 12",
		PrimaryImageID:   "file-1",
		IsActive:         true,
		ChannelMessageID: 100,
		GroupMessageID:   200,
	})
	require.NoError(t, err)

	env.tg.On("Request", mock.Anything).
		Return((*tgbotapi.APIResponse)(nil), errors.New("telegram down"))
	env.tg.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil)

	env.bot.handleUpdateSync(ctx, makeCallbackUpdate(userID, "product:delete:"+id.Hex()))

	// The record stays deactivated, but the user is told the broadcast
	// rewrite failed rather than shown a success message.
	p, err := env.products.FindByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, p.IsActive)
	sentMsg := env.tg.Calls[len(env.tg.Calls)-1].Arguments.Get(0).(tgbotapi.MessageConfig)
	assert.Equal(t, MsgMarkSoldFailed, sentMsg.Text)
}

func TestSaveUpdate_BroadcastEditFailureKeepsSession(t *testing.T) {
	env := setup(t)
	userID := int64(1)
	ctx := context.Background()

	sellerID, err := env.sellers.Upsert(ctx, &store.Seller{TelegramID: userID, Phone: "+251911000000"})
	require.NoError(t, err)

	id, err := env.products.Insert(ctx, &store.Product{
		SellerID:         sellerID,
		Name:             "iPhone 12",
		PrimaryImageID:   "file-1",
		GeneralCategory:  "🛒 Electronics",
		SpecificCategory: "Phones",
		ShortDescription: "Lightly used",
		Price:            "450",
		ContactPhone:     "+251911000000",
		IsActive:         true,
		ChannelMessageID: 100,
		GroupMessageID:   200,
	})
	require.NoError(t, err)

	var sent []tgbotapi.MessageConfig
	env.tg.On("Send", mock.Anything).
		Run(func(args mock.Arguments) {
			if m, ok := args.Get(0).(tgbotapi.MessageConfig); ok {
				sent = append(sent, m)
			}
		}).
		Return(tgbotapi.Message{}, nil)
	env.tg.On("Request", mock.Anything).
		Return((*tgbotapi.APIResponse)(nil), errors.New("telegram down"))

	env.bot.handleUpdateSync(ctx, makeCallbackUpdate(userID, "product:update:"+id.Hex()))
	env.bot.handleUpdateSync(ctx, makeCallbackUpdate(userID, "wizard:save"))

	// The stored record is updated and kept, the failure is reported and
	// the edit menu comes back so the user can save again.
	session := env.bot.state.getUserSession(userID)
	require.NotNil(t, session.wizard)
	assert.Equal(t, StepEditMenu, session.wizard.Step)
	var texts []string
	for _, m := range sent {
		texts = append(texts, m.Text)
	}
	assert.Contains(t, texts, MsgUpdateFailed)
	assert.NotContains(t, texts, MsgUpdated)
}

func TestSendPreview_MediaGroupFailureStillOffersActions(t *testing.T) {
	env := setup(t)
	userID := int64(1)

	env.tg.On("SendMediaGroup", mock.Anything).
		Return([]tgbotapi.Message(nil), errors.New("telegram down"))
	var sent []tgbotapi.MessageConfig
	env.tg.On("Send", mock.Anything).
		Run(func(args mock.Arguments) {
			sent = append(sent, args.Get(0).(tgbotapi.MessageConfig))
		}).
		Return(tgbotapi.Message{}, nil)

	session := env.bot.state.getUserSession(userID)
	session.wizard = &WizardSession{
		Flow: flowCreate,
		Step: StepPhone,
		Draft: Draft{
			PrimaryImageID: "primary-photo",
			Name:           "iPhone 12",
		},
	}
	env.bot.sendPreview(context.Background(), session)

	// The failure notice is followed by the action keyboard, so the user
	// can still confirm, edit or cancel.
	require.Len(t, sent, 2)
	assert.Equal(t, MsgPreviewFailed, sent[0].Text)
	assert.Equal(t, MsgChooseAction, sent[1].Text)
	assert.NotNil(t, sent[1].ReplyMarkup)
	assert.Equal(t, StepPreview, session.wizard.Step)
}

func TestHandleHelp_LinksKeyboard(t *testing.T) {
	env := setup(t)
	userID := int64(1)

	var sent tgbotapi.MessageConfig
	env.tg.On("Send", mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(0).(tgbotapi.MessageConfig) }).
		Return(tgbotapi.Message{}, nil).Once()

	env.bot.handleUpdateSync(context.Background(), makeTextUpdate(userID, "/help"))

	env.tg.AssertExpectations(t)
	assert.Contains(t, sent.Text, "/addproduct")
	kb, ok := sent.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, "https://t.me/shopchannel", *kb.InlineKeyboard[0][0].URL)
	assert.Equal(t, "https://t.me/support", *kb.InlineKeyboard[0][1].URL)
}

func TestUpdateWizard_SaveEditsBroadcasts(t *testing.T) {
	env := setup(t)
	userID := int64(1)
	ctx := context.Background()

	sellerID, err := env.sellers.Upsert(ctx, &store.Seller{TelegramID: userID, Phone: "+251911000000"})
	require.NoError(t, err)

	id, err := env.products.Insert(ctx, &store.Product{
		SellerID:         sellerID,
		Name:             "iPhone 12",
		PrimaryImageID:   "file-1",
		GeneralCategory:  "🛒 Electronics",
		SpecificCategory: "Phones",
		ShortDescription: "Lightly used",
		Price:            "450",
		Location:         "Addis Ababa",
		ContactPhone:     "+251911000000",
		IsActive:         true,
		ChannelMessageID: 100,
		GroupMessageID:   200,
	})
	require.NoError(t, err)

	env.tg.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil)
	var edits []tgbotapi.EditMessageMediaConfig
	env.tg.On("Request", mock.Anything).
		Run(func(args mock.Arguments) {
			if e, ok := args.Get(0).(tgbotapi.EditMessageMediaConfig); ok {
				edits = append(edits, e)
			}
		}).
		Return(&tgbotapi.APIResponse{Ok: true}, nil)

	env.bot.handleUpdateSync(ctx, makeCallbackUpdate(userID, "product:update:"+id.Hex()))
	session := env.bot.state.getUserSession(userID)
	require.NotNil(t, session.wizard)
	assert.Equal(t, flowUpdate, session.wizard.Flow)
	assert.Equal(t, StepEditMenu, session.wizard.Step)

	// Edit the price, then save.
	env.bot.handleUpdateSync(ctx, makeCallbackUpdate(userID, "wizard:field:price"))
	assert.Equal(t, StepPrice, session.wizard.Step)
	env.bot.handleUpdateSync(ctx, makeTextUpdate(userID, "500"))
	assert.Equal(t, StepEditMenu, session.wizard.Step)
	env.bot.handleUpdateSync(ctx, makeCallbackUpdate(userID, "wizard:save"))

	assert.Nil(t, session.wizard)
	p, err := env.products.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "500", p.Price)
	// Both broadcast posts were rewritten in place.
	require.Len(t, edits, 2)
	assert.Equal(t, 100, edits[0].MessageID)
	assert.Equal(t, 200, edits[1].MessageID)
}

func TestNonCommandWithoutWizard(t *testing.T) {
	env := setup(t)
	userID := int64(1)

	env.tg.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Once()

	env.bot.handleUpdateSync(context.Background(), makeTextUpdate(userID, "hello?"))

	sentMsg := env.tg.Calls[len(env.tg.Calls)-1].Arguments.Get(0).(tgbotapi.MessageConfig)
	assert.Equal(t, MsgNoActiveFlow, sentMsg.Text)
}

func TestParseCommand(t *testing.T) {
	for _, tc := range []struct {
		in      string
		command string
		args    string
	}{
		{"/start", "/start", ""},
		{"/start abc123", "/start", "abc123"},
		{"/addproduct@shop_test_bot", "/addproduct", ""},
		{"/start@shop_test_bot  payload ", "/start", "payload"},
	} {
		command, args := parseCommand(tc.in)
		assert.Equal(t, tc.command, command, tc.in)
		assert.Equal(t, tc.args, args, tc.in)
	}
}

func TestDispatchUpdate_IgnoresGroupMessages(t *testing.T) {
	env := setup(t)

	update := tgbotapi.Update{
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: 1},
			Chat: &tgbotapi.Chat{ID: -100200300, Type: "supergroup"},
			Text: "/addproduct",
		},
	}
	env.bot.dispatchUpdate(context.Background(), update)

	// No session is created and nothing is sent.
	env.bot.state.mu.Lock()
	defer env.bot.state.mu.Unlock()
	assert.Empty(t, env.bot.state.sessions)
	env.tg.AssertNotCalled(t, "Send", mock.Anything)
}

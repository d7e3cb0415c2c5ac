package bot

// =============================================================================
// General messages
// =============================================================================

const (
	MsgWelcome          = "👋 Welcome%s!\nUse /addproduct to post a new product."
	MsgUnexpectedErr    = "❌ An unexpected error occurred. Please try again later."
	MsgNotSubscribed    = "❌ You need to subscribe to our channel first!\nPlease join here: %s"
	MsgWizardInProgress = "ℹ️ You already have a listing in progress. Finish it or send /cancel first."
	MsgNothingToCancel  = "ℹ️ No active product listing to cancel."
	MsgUnknownCommand   = "ℹ️ Unknown command. Try /help."
	MsgNoActiveFlow     = "ℹ️ Use /addproduct to post a product or /help for instructions."
	MsgListingCanceled  = "✅ Product listing canceled."
	MsgUpdateCanceled   = "❌ Product update canceled."
)

// =============================================================================
// Wizard step prompts
// =============================================================================

const (
	MsgPromptPrimaryImage     = "📸 Upload 1 main image only."
	MsgPromptNewPrimaryImage  = "📸 Please upload the new primary image."
	MsgPromptAdditionalImages = "📸 Send up to 3 additional images.\nType 'done' when finished."
	MsgPromptCategory         = "📂 Select a general category:"
	MsgPromptSubCategory      = "📁 Select a specific sub-category for %s:"
	MsgPromptName             = "🛍 Enter product name:"
	MsgPromptLocation         = "📍 Enter location:"
	MsgPromptPrice            = "💰 Enter price:"
	MsgPromptDescription      = "📝 Description (50 words max):"
	MsgPromptPhone            = "📞 Please share your phone number:"
	MsgAdditionalImageAdded   = "✅ Image %d of 3 added. Send another or type 'done'."
)

// =============================================================================
// Wizard validation errors
// =============================================================================

const (
	MsgInvalidImage       = "❌ Please upload a photo or an image file:"
	MsgInvalidImageOrDone = "❌ Please send a photo, an image file, or type 'done':"
	MsgImageFailed        = "❌ Failed to process image. Please try again:"
	MsgInvalidCategory    = "❌ Invalid category. Please select a valid category:"
	MsgInvalidSubCategory = "❌ Invalid sub-category. Please select a valid one:"
	MsgEmptyName          = "❌ Name cannot be empty. Please enter a valid name:"
	MsgEmptyLocation      = "❌ Location cannot be empty. Please enter a valid location:"
	MsgInvalidPrice       = "❌ Invalid price. Please enter a valid number greater than 0 or valid string!"
	MsgInvalidDescription = "❌ Description must be 1-50 words. Please try again:"
	MsgShareContact       = "❌ Please use the button to share your contact:"
	MsgPhoneSaveFailed    = "❌ Failed to save phone. Please try again:"
)

// =============================================================================
// Preview and publish
// =============================================================================

const (
	MsgChooseAction      = "Choose an action:"
	MsgSelectEditField   = "Select a field to edit:"
	MsgUseButtons        = "ℹ️ Use the buttons above to continue."
	MsgPreviewFailed     = "❌ Failed to show preview. Please try again:"
	MsgPostFailed        = "❌ Failed to post product. Please try again:"
	MsgPosted            = "✅ Product posted successfully!"
	MsgUpdateFailed      = "❌ Failed to update product. Please try again."
	MsgUpdated           = "✅ Product updated successfully!"
	MsgCaptionNotSetTag  = "Price not set"
	MsgDescriptionLabel  = "Description:"
	MsgCaptionSeparator  = `\.  \.  \.  \.  \.  \.  \.  \.  \.`
	MsgSoldOutSuffix     = "⚠️ This product is no longer available."
	MsgMarkedSold        = "✅ Product marked as Sold Out."
	MsgMarkSoldFailed    = "❌ Failed to delete product. Please try again."
	MsgProductNotFound   = "❌ Product not found!"
	MsgSellerContact     = "📞 *Seller contact*\n👤 %s\n📱 %s"
	MsgNotOwner          = "❌ Product not found or you don't own it."
	MsgNoActiveProducts  = "ℹ️ You have no active products."
	MsgListFailed        = "❌ Failed to list products. Please try again."
)

// =============================================================================
// Button labels
// =============================================================================

const (
	BtnCancel           = "Cancel"
	BtnJoinChannel      = "Join Channel"
	BtnContactSupport   = "Contact Support"
	BtnBack             = "Back"
	BtnDone             = "done"
	BtnShareContact     = "Share Phone Number"
	BtnConfirmPost      = "Confirm and Post"
	BtnEdit             = "Edit"
	BtnBackToPreview    = "Back to Preview"
	BtnSaveChanges      = "Save Changes"
	BtnShopView         = "SHOP/view"
	BtnUpdate           = "Update"
	BtnDelete           = "Delete"
	BtnEditPrimaryImage = "Edit Primary Image"
	BtnEditAddlImages   = "Edit Additional Images"
	BtnEditCategory     = "Edit Category"
	BtnEditSubCategory  = "Edit Sub-Category"
	BtnEditName         = "Edit Name"
	BtnEditLocation     = "Edit Location"
	BtnEditPrice        = "Edit Price"
	BtnEditDescription  = "Edit Description"
	BtnEditPhone        = "Edit Phone"
)

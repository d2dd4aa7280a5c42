// Package events holds the catalog of well-known event names.
package events

// User lifecycle.
const (
	UserSignedUp         = "User Signed Up"
	UserSignedIn         = "User Signed In"
	UserSignedOut        = "User Signed Out"
	UserInvited          = "User Invited"
	UserOnboarded        = "User Onboarded"
	AuthenticationFailed = "Authentication Failed"
	PasswordReset        = "Password Reset"
	TwoFactorEnabled     = "Two Factor Enabled"
	TwoFactorDisabled    = "Two Factor Disabled"
)

// Revenue and billing.
const (
	OrderCompleted       = "Order Completed"
	OrderRefunded        = "Order Refunded"
	OrderCanceled        = "Order Canceled"
	PaymentFailed        = "Payment Failed"
	PaymentMethodAdded   = "Payment Method Added"
	PaymentMethodUpdated = "Payment Method Updated"
	PaymentMethodRemoved = "Payment Method Removed"
)

// Subscriptions.
const (
	SubscriptionStarted  = "Subscription Started"
	SubscriptionRenewed  = "Subscription Renewed"
	SubscriptionPaused   = "Subscription Paused"
	SubscriptionResumed  = "Subscription Resumed"
	SubscriptionChanged  = "Subscription Changed"
	SubscriptionCanceled = "Subscription Canceled"
)

// Trials.
const (
	TrialStarted    = "Trial Started"
	TrialEndingSoon = "Trial Ending Soon"
	TrialEnded      = "Trial Ended"
	TrialConverted  = "Trial Converted"
)

// Shopping.
const (
	CartViewed        = "Cart Viewed"
	CartUpdated       = "Cart Updated"
	CartAbandoned     = "Cart Abandoned"
	CheckoutStarted   = "Checkout Started"
	CheckoutCompleted = "Checkout Completed"
)

// Engagement.
const (
	PageViewed          = "Page Viewed"
	FeatureUsed         = "Feature Used"
	SearchPerformed     = "Search Performed"
	FileUploaded        = "File Uploaded"
	NotificationSent    = "Notification Sent"
	NotificationClicked = "Notification Clicked"
)

// Communication.
const (
	EmailSent             = "Email Sent"
	EmailOpened           = "Email Opened"
	EmailClicked          = "Email Clicked"
	EmailBounced          = "Email Bounced"
	EmailUnsubscribed     = "Email Unsubscribed"
	SupportTicketCreated  = "Support Ticket Created"
	SupportTicketResolved = "Support Ticket Resolved"
)

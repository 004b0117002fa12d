package constants

// Fine-grained order lifecycle states.
const (
	OrderStatusUnassigned = "unassigned"
	OrderStatusAssigned   = "assigned"
	OrderStatusAtMerchant = "at_merchant"
	OrderStatusPickedUp   = "picked_up"
	OrderStatusEnRoute    = "en_route"
	OrderStatusArrived    = "arrived"
	OrderStatusDelivered  = "delivered"
	OrderStatusCanceled   = "canceled"
)

// Coarse dashboard projection values.
const (
	DashboardStatusPending   = "pending"
	DashboardStatusAssigned  = "assigned"
	DashboardStatusEnRoute   = "en_route"
	DashboardStatusDelivered = "delivered"
	DashboardStatusCanceled  = "canceled"
)

// Order types.
const (
	OrderTypePurchase = "purchase"
	OrderTypePickup   = "pickup"
)

// Payment methods.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "transfer"
)

// Transfer receipt states.
const (
	ReceiptStatusNone      = "none"
	ReceiptStatusPending   = "pending"
	ReceiptStatusValidated = "validated"
)

// Cash ledger movement types.
const (
	CashMovementTypeDelivery   = "delivery_credit"
	CashMovementTypeSettlement = "settlement"
)

// Auth roles embedded in JWT claims.
const (
	RoleDispatcher = "dispatcher"
	RoleRider      = "rider"
)

// Upload scenes, one subdirectory per receipt kind.
const (
	UploadScenePurchase = "purchase"
	UploadSceneTransfer = "transfer"
)

// Queue names.
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// Realtime channels.
const (
	TopicOrderCreated = "orders.created"
	TopicOrderUpdated = "orders.updated"
)

// Rider level tiers by delivered-order count.
const (
	RiderLevelNovato = "Novato"
	RiderLevelBronce = "Bronce"
	RiderLevelPlata  = "Plata"
	RiderLevelOro    = "Oro"

	RiderLevelBronceMin = 50
	RiderLevelPlataMin  = 200
	RiderLevelOroMin    = 500
)

// Order number prefix, kept from the legacy platform.
const OrderNoPrefix = "PED-"

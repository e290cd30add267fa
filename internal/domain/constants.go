package domain

const (
	RoleFan     = "FAN"
	RoleScanner = "SCANNER"
	RoleAdmin   = "ADMIN"
)

const (
	PaymentPending = "PENDING"
	PaymentSuccess = "SUCCESS"
	PaymentFailed  = "FAILED"
)

// Purpose decides which downstream effect a successful payment triggers.
const (
	PurposeTicket     = "TICKET"
	PurposeCoins      = "COINS"
	PurposeMembership = "MEMBERSHIP"
)

const (
	IssuanceNone   = "NONE"
	IssuanceIssued = "ISSUED"
	IssuanceFailed = "FAILED"
)

const (
	TicketUnused   = "UNUSED"
	TicketAdmitted = "ADMITTED"
	TicketRefunded = "REFUNDED"
	TicketInvalid  = "INVALID"
)

const (
	ScanAdmitted  = "ADMITTED"
	ScanDuplicate = "DUPLICATE"
	ScanInvalid   = "INVALID"
	ScanExpired   = "EXPIRED"
)

const (
	WithdrawalPending    = "PENDING"
	WithdrawalProcessing = "PROCESSING"
	WithdrawalPaid       = "PAID"
	WithdrawalRejected   = "REJECTED"
)

const (
	TxPurchase        = "PURCHASE"
	TxBonus           = "BONUS"
	TxWithdrawal      = "WITHDRAWAL"
	TxAdminAdjustment = "ADMIN_ADJUSTMENT"
	TxVote            = "VOTE"
	TxSpend           = "SPEND"
	TxRefund          = "REFUND"
)

const (
	MembershipActive  = "ACTIVE"
	MembershipExpired = "EXPIRED"
)

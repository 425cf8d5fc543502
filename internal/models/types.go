package models

// PaymentMethod represents a supported funding currency.
type PaymentMethod string

const (
	MethodBTC  PaymentMethod = "BTC"
	MethodETH  PaymentMethod = "ETH"
	MethodUSDT PaymentMethod = "USDT"
)

// AllMethods is the ordered list of supported payment methods.
var AllMethods = []PaymentMethod{MethodBTC, MethodETH, MethodUSDT}

// Valid reports whether m is one of the supported payment methods.
func (m PaymentMethod) Valid() bool {
	return m == MethodBTC || m == MethodETH || m == MethodUSDT
}

// TransactionStatus is the server-side lifecycle of a wallet transaction.
// The client only ever observes transitions via polling.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
)

// TransactionType distinguishes money in from money out.
type TransactionType string

const (
	TxDeposit    TransactionType = "deposit"
	TxWithdrawal TransactionType = "withdrawal"
)

// User is the authenticated principal. All fields mirror the backend's
// representation; balances are decimal strings.
type User struct {
	ID             string `json:"id"`
	UserID         string `json:"userId"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	Role           string `json:"role"`
	VerifyStatus   string `json:"verifyStatus"`
	Plan           string `json:"plan,omitempty"`
	BTCAddress     string `json:"btcAddress"`
	ETHAddress     string `json:"ethAddress"`
	USDTAddress    string `json:"usdtAddress"`
	Balance        string `json:"balance"`
	PendingBalance string `json:"pendingBalance"`
	DarkMode       bool   `json:"darkMode,omitempty"`
}

// WalletTransaction is a single row of the transactions table, decoded.
type WalletTransaction struct {
	ID        string            `json:"id"`
	Reference string            `json:"reference"`
	Timestamp string            `json:"timestamp"`
	UserID    string            `json:"userId"`
	Type      TransactionType   `json:"type"`
	Purpose   string            `json:"purpose,omitempty"`
	Amount    string            `json:"amount"`
	Currency  string            `json:"currency"`
	Status    TransactionStatus `json:"status"`
}

// PaymentDetails holds the in-memory state of one funding attempt.
// Created empty, populated with order + rates after the amount stage,
// populated with the receiving address after method selection, discarded
// when the flow closes or expires.
type PaymentDetails struct {
	OrderID       string        `json:"orderId"`
	Amount        string        `json:"amount"`
	Currency      PaymentMethod `json:"currency"`
	Address       string        `json:"address"`
	TimeRemaining int           `json:"timeRemaining"`
	ExchangeRate  string        `json:"exchangeRate"`
	BTCAmount     string        `json:"btcAmount"`
	ETHAmount     string        `json:"ethAmount"`
	USDTAmount    string        `json:"usdtAmount"`
	USDAmount     string        `json:"usdAmount"`
}

// APIResponse is the standard success envelope of the console API.
type APIResponse struct {
	Data interface{} `json:"data,omitempty"`
	Meta *APIMeta    `json:"meta,omitempty"`
}

// APIMeta contains pagination and execution metadata.
type APIMeta struct {
	Page          int   `json:"page,omitempty"`
	PageSize      int   `json:"pageSize,omitempty"`
	Total         int64 `json:"total,omitempty"`
	ExecutionTime int64 `json:"executionTime,omitempty"`
}

// APIError is the standard error response.
type APIError struct {
	Error APIErrorDetail `json:"error"`
}

// APIErrorDetail contains error code and message.
type APIErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CoinAmount returns the converted amount quoted for the given method.
func (p *PaymentDetails) CoinAmount(m PaymentMethod) string {
	switch m {
	case MethodBTC:
		return p.BTCAmount
	case MethodETH:
		return p.ETHAmount
	case MethodUSDT:
		return p.USDTAmount
	default:
		return ""
	}
}

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/models"
)

// PaymentData is the payload of the rate-quote and payment-initialization
// functions.
type PaymentData struct {
	OrderID       string `json:"orderId"`
	Amount        string `json:"amount"`
	TimeRemaining int    `json:"timeRemaining"`
	ExchangeRate  string `json:"exchangeRate"`
	BTCAmount     string `json:"btcAmount"`
	ETHAmount     string `json:"ethAmount"`
	USDTAmount    string `json:"usdtAmount"`
	Address       string `json:"address,omitempty"`
	NewBalance    string `json:"newBalance,omitempty"`
}

// GetCurrentValue requests a rate quote for a USD amount. The backend
// issues the orderId here; the same order is used through settlement.
func (c *Client) GetCurrentValue(ctx context.Context, amount string) (*PaymentData, error) {
	envelope, err := c.CallFunction(ctx, "getCurrentValue", map[string]string{
		"amount": amount,
	})
	if err != nil {
		return nil, err
	}
	return parsePaymentData(envelope)
}

// InitializePayment commits an order to a currency and returns the
// receiving address for it.
func (c *Client) InitializePayment(ctx context.Context, amount string, currency models.PaymentMethod, orderID string) (*PaymentData, error) {
	envelope, err := c.CallFunction(ctx, "initializePayment", map[string]string{
		"amount":   amount,
		"currency": string(currency),
		"orderId":  orderID,
	})
	if err != nil {
		return nil, err
	}
	return parsePaymentData(envelope)
}

func parsePaymentData(envelope *Response) (*PaymentData, error) {
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("%w: payment data missing from response", config.ErrMalformedPayload)
	}

	var data PaymentData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: payment payload: %v", config.ErrMalformedPayload, err)
	}
	if data.OrderID == "" {
		return nil, fmt.Errorf("%w: payment response carries no orderId", config.ErrMalformedPayload)
	}
	return &data, nil
}

// Logout invalidates the session server-side. Local cleanup is the state
// manager's job regardless of the outcome here.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.CallFunction(ctx, "logout", nil)
	return err
}

// GenerateAPIKey rotates and returns the account API key.
func (c *Client) GenerateAPIKey(ctx context.Context) (string, error) {
	envelope, err := c.CallFunction(ctx, "generateApiKey", nil)
	if err != nil {
		return "", err
	}

	var data struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return "", fmt.Errorf("%w: api key payload: %v", config.ErrMalformedPayload, err)
	}
	if data.APIKey == "" {
		return "", fmt.Errorf("%w: empty api key", config.ErrMalformedPayload)
	}
	return data.APIKey, nil
}

// ChangePassword changes the account password for a logged-in session.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	_, err := c.CallFunction(ctx, "changePassword", map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	})
	return err
}

// DestroyAccount permanently deletes the account.
func (c *Client) DestroyAccount(ctx context.Context) error {
	_, err := c.CallFunction(ctx, "destroyAccount", nil)
	return err
}

// ToggleTwoFactorAuth flips 2FA and returns the refreshed state snapshot.
func (c *Client) ToggleTwoFactorAuth(ctx context.Context, enabled bool) (*AppDataPayload, error) {
	return c.callForAppData(ctx, "toggleTwoFactorAuth", map[string]string{
		"enabled": fmt.Sprintf("%t", enabled),
	})
}

// ChangePlan switches the subscription plan and returns the refreshed
// state snapshot.
func (c *Client) ChangePlan(ctx context.Context, plan string) (*AppDataPayload, error) {
	return c.callForAppData(ctx, "changePlan", map[string]string{
		"plan": plan,
	})
}

// featureFunctions are the project/redirect/campaign operations the console
// proxies verbatim. Parameters pass through untouched; the backend owns
// their schemas.
var featureFunctions = map[string]bool{
	"createRedirect":                 true,
	"renewRedirect":                  true,
	"acquireDomain":                  true,
	"acquireRedirect":                true,
	"createProjectLink":              true,
	"deleteProject":                  true,
	"renewProject":                   true,
	"updateProjectTemplateVariables": true,
	"updateProjectNotifications":     true,
	"buyUsAdrink":                    true,
	"processInternalPayment":         true,
}

// FeatureCall invokes one of the allowlisted feature functions and returns
// the refreshed state snapshot when the backend includes one.
func (c *Client) FeatureCall(ctx context.Context, functionName string, params map[string]string) (*AppDataPayload, error) {
	if !featureFunctions[functionName] {
		return nil, fmt.Errorf("%w: unknown feature function %q", config.ErrBackendRejected, functionName)
	}

	slog.Info("feature call", "functionName", functionName, "params", len(params))
	return c.callForAppData(ctx, functionName, params)
}

// callForAppData invokes a function and parses the data payload as a state
// snapshot when one is present. Functions without a snapshot return nil.
func (c *Client) callForAppData(ctx context.Context, functionName string, params map[string]string) (*AppDataPayload, error) {
	envelope, err := c.CallFunction(ctx, functionName, params)
	if err != nil {
		return nil, err
	}
	if len(envelope.Data) == 0 {
		return nil, nil
	}
	return parseAppData(envelope)
}

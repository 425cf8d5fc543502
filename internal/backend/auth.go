package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/models"
)

// LoginResult is the payload of a successful login: the session token, the
// principal, and the initial state snapshot.
type LoginResult struct {
	Token   string         `json:"token"`
	User    models.User    `json:"user"`
	AppData AppDataPayload `json:"data"`
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	form := EncodeForm(map[string]string{
		"action":   "login",
		"email":    email,
		"password": password,
	})

	envelope, err := c.call(ctx, "/login", form)
	if err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, Classify(envelope.Error, envelope.Details)
	}

	var result LoginResult
	if err := json.Unmarshal(envelope.Data, &result); err != nil {
		return nil, fmt.Errorf("%w: login payload: %v", config.ErrMalformedPayload, err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("%w: login response carries no token", config.ErrMalformedPayload)
	}

	slog.Info("login succeeded", "username", result.User.Username, "role", result.User.Role)
	return &result, nil
}

// Register creates a new account. referralCode may be empty.
func (c *Client) Register(ctx context.Context, username, email, password, referralCode string) error {
	params := map[string]string{
		"action":   "register",
		"username": username,
		"email":    email,
		"password": password,
	}
	if referralCode != "" {
		params["referralCode"] = referralCode
	}

	envelope, err := c.call(ctx, "/register", EncodeForm(params))
	if err != nil {
		return err
	}
	if !envelope.Success {
		return Classify(envelope.Error, envelope.Details)
	}

	slog.Info("registration succeeded", "username", username)
	return nil
}

// ResetPassword requests a reset code be sent to the account email.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	envelope, err := c.call(ctx, "/reset-password", EncodeForm(map[string]string{
		"action": "resetPassword",
		"email":  email,
	}))
	if err != nil {
		return err
	}
	if !envelope.Success {
		return Classify(envelope.Error, envelope.Details)
	}
	return nil
}

// VerifyResetCode checks the emailed reset code and returns a short-lived
// reset token for UpdatePassword.
func (c *Client) VerifyResetCode(ctx context.Context, email, code string) (string, error) {
	envelope, err := c.call(ctx, "/verify-reset-code", EncodeForm(map[string]string{
		"action": "verifyResetCode",
		"email":  email,
		"code":   code,
	}))
	if err != nil {
		return "", err
	}
	if !envelope.Success {
		return "", Classify(envelope.Error, envelope.Details)
	}

	var data struct {
		ResetToken string `json:"resetToken"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return "", fmt.Errorf("%w: verify payload: %v", config.ErrMalformedPayload, err)
	}
	return data.ResetToken, nil
}

// UpdatePassword sets a new password using the token from VerifyResetCode.
func (c *Client) UpdatePassword(ctx context.Context, resetToken, newPassword string) error {
	envelope, err := c.call(ctx, "/update-password", EncodeForm(map[string]string{
		"action":     "updatePassword",
		"resetToken": resetToken,
		"password":   newPassword,
	}))
	if err != nil {
		return err
	}
	if !envelope.Success {
		return Classify(envelope.Error, envelope.Details)
	}
	return nil
}

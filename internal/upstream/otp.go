package upstream

import "context"

// OTPChallenge is the backend's reply to an OTP send: the opaque hash must be
// echoed back on verification.
type OTPChallenge struct {
	Hash string `json:"hash"`
}

// Verification is the backend's reply to a successful OTP check.
type Verification struct {
	Message  string `json:"message"`
	Token    string `json:"token"`
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

type sendOTPRequest struct {
	Phone    string `json:"phone"`
	Username string `json:"username"`
}

type verifyOTPRequest struct {
	Phone    string `json:"phone"`
	Code     string `json:"code"`
	Hash     string `json:"hash"`
	Username string `json:"username"`
}

// SendOTP asks the backend to text a one-time password to the phone number.
func (c *Client) SendOTP(ctx context.Context, phone, username string) (*OTPChallenge, error) {
	var out OTPChallenge
	if err := c.postJSON(ctx, "send otp", "/send-otp", sendOTPRequest{
		Phone:    phone,
		Username: username,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP checks the user-entered code against the challenge hash and
// returns the session credentials on success.
func (c *Client) VerifyOTP(ctx context.Context, phone, code, hash, username string) (*Verification, error) {
	var out Verification
	if err := c.postJSON(ctx, "verify otp", "/verify-otp", verifyOTPRequest{
		Phone:    phone,
		Code:     code,
		Hash:     hash,
		Username: username,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

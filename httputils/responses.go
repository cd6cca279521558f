package httputils

// RequestError is the body of every failed request
type RequestError struct {
	Error string `json:"error"`
}

// MessageResp carries a human readable outcome
type MessageResp struct {
	Message string `json:"message"`
}

// ReferralCodeResp godoc
type ReferralCodeResp struct {
	ReferralCode string `json:"referralCode"`
}

// Package jwt manages signed session-token issuance: short-lived access tokens
// and longer-lived refresh tokens signed under distinct secrets, with expiry
// evaluated in the service's fixed UTC+7 reference time.
package jwt

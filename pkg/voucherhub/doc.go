// Package voucherhub provides a client for the central voucher server API.
//
// On multi-cabinet floors a central server owns the voucher codes so a
// ticket printed on one cabinet can be redeemed on any other. This client
// implements the check, redeem, issue and void operations cabinets need.
//
// # Authentication
//
// All API requests are authenticated using:
//   - API Key: Sent in the x-api-key header
//   - HMAC Signature: SHA256 hash of the request body, sent in x-api-hmac header
//
// # Basic Usage
//
//	client := voucherhub.NewClient(&voucherhub.ClientConfig{
//	    BaseURL:   "https://vouchers.example.net",
//	    APIKey:    "your-api-key",
//	    APISecret: "your-api-secret",
//	    FloorCode: "your-floor",
//	})
//
//	// Redeem a ticket
//	result, err := client.Redeem(ctx, &voucherhub.RedeemRequest{
//	    Code:       "ABC123-XYZ789",
//	    TerminalID: "cab-05",
//	})
//
// # Error Handling
//
// API errors are returned as *APIError with a Code field indicating the error type:
//
//	result, err := client.Redeem(ctx, req)
//	if apiErr, ok := err.(*voucherhub.APIError); ok {
//	    switch apiErr.Code {
//	    case voucherhub.ErrVoucherRedeemed:
//	        // Already paid out
//	    case voucherhub.ErrVoucherExpired:
//	        // Past its expiry date
//	    }
//	}
package voucherhub

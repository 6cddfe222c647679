package domain

// User is the profile attached to a session.
type User struct {
	Name           string `json:"name"`
	Mobile         string `json:"mobile"`
	Email          string `json:"email"`
	ReferralCode   string `json:"referral_code"`
	Balance        int    `json:"balance"`
	IsKycVerified  bool   `json:"is_kyc_verified"`
	IsFaceVerified bool   `json:"is_face_verified"`
	Referrals      int    `json:"referrals"`
}

// BankDetails identifies the payout account for a withdrawal.
type BankDetails struct {
	AccountNumber string `json:"account_number" validate:"required,numeric,min=6,max=18"`
	IFSC          string `json:"ifsc" validate:"required,len=11,alphanum"`
	HolderName    string `json:"holder_name" validate:"required,max=100"`
}

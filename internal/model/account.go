package model

import "fmt"

// Role identifies the marketplace side a user account belongs to.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// UserAccount is a user registered through the marketplace API.
// UserID and AccessToken are assigned remotely and only held for the run.
type UserAccount struct {
	Email       string `json:"email"`
	Password    string `json:"-"`
	UserID      string `json:"userId"`
	AccessToken string `json:"-"`
	DisplayName string `json:"displayName"`
	FullName    string `json:"fullName"`
	Role        Role   `json:"role"`
}

// SellersReady is the confirmed seller set of a run. It can only be built by
// ConfirmSellers, so holding one proves every seller was registered remotely.
type SellersReady struct {
	accounts []UserAccount
}

// ConfirmSellers seals a set of registered seller accounts.
func ConfirmSellers(accounts []UserAccount) (SellersReady, error) {
	ids := make(map[string]struct{}, len(accounts))
	for i, acc := range accounts {
		if acc.Role != RoleSeller {
			return SellersReady{}, fmt.Errorf("seller %d: unexpected role %q", i, acc.Role)
		}
		if acc.UserID == "" {
			return SellersReady{}, fmt.Errorf("seller %d (%s): missing remote user id", i, acc.Email)
		}
		if _, dup := ids[acc.UserID]; dup {
			return SellersReady{}, fmt.Errorf("seller %d: duplicate user id %s", i, acc.UserID)
		}
		ids[acc.UserID] = struct{}{}
	}

	sealed := make([]UserAccount, len(accounts))
	copy(sealed, accounts)
	return SellersReady{accounts: sealed}, nil
}

// Accounts returns a copy of the confirmed sellers in registration order.
func (s SellersReady) Accounts() []UserAccount {
	out := make([]UserAccount, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// Len returns the number of confirmed sellers.
func (s SellersReady) Len() int {
	return len(s.accounts)
}

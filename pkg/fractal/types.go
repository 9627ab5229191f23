package fractal

import (
	"encoding/json"
	"fmt"
	"time"
)

// Date is a calendar date without a time component, wire form "2006-01-02".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date from its parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// String formats the date as "2006-01-02".
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalJSON encodes the date in wire form.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes the date from wire form.
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", raw, err)
	}
	d.Year, d.Month, d.Day = t.Date()
	return nil
}

// Address is a user's postal address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// User holds all personal information for a user account.
//
// Optional personal fields carry a sibling Confirmed flag reflecting
// whether the API has verified the value. The confirmation flags are
// delivered on the wire as separate *_confirmed fields and folded into
// the model on decode.
type User struct {
	ID                uint64
	Username          string
	Email             string
	EmailConfirmed    bool
	First             *string
	FirstConfirmed    bool
	Last              *string
	LastConfirmed     bool
	DeviceCount       uint8
	WalletAddresses   []WalletAddress
	CheckingBalance   Amount
	ColdBalance       Amount
	Bonds             map[string]uint64 // purchase timestamp (RFC 3339) -> bond count
	Birthday          *Date
	BirthdayConfirmed bool
	Phone             *string
	PhoneConfirmed    bool
	Image             *string
	Address           *Address
	AddressConfirmed  bool
	SybilScore        int8
	TrustScore        int8
	Enabled           bool
	Registered        time.Time
	LastActivity      time.Time
	Banned            *time.Time
}

// userDTO is the wire representation of a user.
// The last activity key is misspelled on the wire; it is kept as-is.
type userDTO struct {
	ID                uint64            `json:"id"`
	Username          string            `json:"username"`
	Email             string            `json:"email"`
	EmailConfirmed    bool              `json:"email_confirmed"`
	First             *string           `json:"first"`
	FirstConfirmed    bool              `json:"first_confirmed"`
	Last              *string           `json:"last"`
	LastConfirmed     bool              `json:"last_confirmed"`
	DeviceCount       uint8             `json:"device_count"`
	WalletAddresses   []WalletAddress   `json:"wallet_addresses"`
	CheckingBalance   Amount            `json:"checking_balance"`
	ColdBalance       Amount            `json:"cold_balance"`
	Bonds             map[string]uint64 `json:"bonds"`
	Birthday          *Date             `json:"birthday"`
	BirthdayConfirmed bool              `json:"birthday_confirmed"`
	Phone             *string           `json:"phone"`
	PhoneConfirmed    bool              `json:"phone_confirmed"`
	Image             *string           `json:"image"`
	Address           *Address          `json:"address"`
	AddressConfirmed  bool              `json:"address_confirmed"`
	SybilScore        int8              `json:"sybil_score"`
	TrustScore        int8              `json:"trust_score"`
	Enabled           bool              `json:"enabled"`
	Registered        time.Time         `json:"registered"`
	LastActivity      time.Time         `json:"last_activty"`
	Banned            *time.Time        `json:"banned"`
}

// UnmarshalJSON decodes a user from its wire representation.
func (u *User) UnmarshalJSON(data []byte) error {
	var dto userDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return err
	}
	*u = User{
		ID:                dto.ID,
		Username:          dto.Username,
		Email:             dto.Email,
		EmailConfirmed:    dto.EmailConfirmed,
		First:             dto.First,
		FirstConfirmed:    dto.First != nil && dto.FirstConfirmed,
		Last:              dto.Last,
		LastConfirmed:     dto.Last != nil && dto.LastConfirmed,
		DeviceCount:       dto.DeviceCount,
		WalletAddresses:   dto.WalletAddresses,
		CheckingBalance:   dto.CheckingBalance,
		ColdBalance:       dto.ColdBalance,
		Bonds:             dto.Bonds,
		Birthday:          dto.Birthday,
		BirthdayConfirmed: dto.Birthday != nil && dto.BirthdayConfirmed,
		Phone:             dto.Phone,
		PhoneConfirmed:    dto.Phone != nil && dto.PhoneConfirmed,
		Image:             dto.Image,
		Address:           dto.Address,
		AddressConfirmed:  dto.Address != nil && dto.AddressConfirmed,
		SybilScore:        dto.SybilScore,
		TrustScore:        dto.TrustScore,
		Enabled:           dto.Enabled,
		Registered:        dto.Registered,
		LastActivity:      dto.LastActivity,
		Banned:            dto.Banned,
	}
	return nil
}

// MarshalJSON encodes a user in its wire representation. Primarily used
// by the response cache.
func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(userDTO{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		EmailConfirmed:    u.EmailConfirmed,
		First:             u.First,
		FirstConfirmed:    u.FirstConfirmed,
		Last:              u.Last,
		LastConfirmed:     u.LastConfirmed,
		DeviceCount:       u.DeviceCount,
		WalletAddresses:   u.WalletAddresses,
		CheckingBalance:   u.CheckingBalance,
		ColdBalance:       u.ColdBalance,
		Bonds:             u.Bonds,
		Birthday:          u.Birthday,
		BirthdayConfirmed: u.BirthdayConfirmed,
		Phone:             u.Phone,
		PhoneConfirmed:    u.PhoneConfirmed,
		Image:             u.Image,
		Address:           u.Address,
		AddressConfirmed:  u.AddressConfirmed,
		SybilScore:        u.SybilScore,
		TrustScore:        u.TrustScore,
		Enabled:           u.Enabled,
		Registered:        u.Registered,
		LastActivity:      u.LastActivity,
		Banned:            u.Banned,
	})
}

// Name returns the user's display name: "First Last" when both are set,
// otherwise the username.
func (u *User) Name() string {
	if u.First != nil && u.Last != nil {
		return *u.First + " " + *u.Last
	}
	return u.Username
}

// Transaction is a transfer of global credits between two users.
type Transaction struct {
	ID              uint64        `json:"id"`
	OriginUser      uint64        `json:"origin_user"`
	DestinationUser uint64        `json:"destination_user"`
	Destination     WalletAddress `json:"destination"`
	Amount          Amount        `json:"amount"`
	Timestamp       time.Time     `json:"timestamp"`
}

// ClientInfo describes an API client application created via CreateClient.
type ClientInfo struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Secret       string  `json:"secret"`
	Scopes       []Scope `json:"scopes"`
	RequestLimit int     `json:"request_limit"`
}

// Relationship classifies a friend connection.
type Relationship string

// Relationship kinds accepted by the API.
const (
	RelationshipFriend   Relationship = "friend"
	RelationshipFamily   Relationship = "family"
	RelationshipCoworker Relationship = "coworker"
	RelationshipBusiness Relationship = "business"
	RelationshipOther    Relationship = "other"
)

// Valid reports whether r is one of the accepted relationship kinds.
func (r Relationship) Valid() bool {
	switch r {
	case RelationshipFriend, RelationshipFamily, RelationshipCoworker,
		RelationshipBusiness, RelationshipOther:
		return true
	}
	return false
}

// PendingFriendRequest is an unconfirmed connection awaiting the
// destination user's approval.
type PendingFriendRequest struct {
	ConnectionID uint64       `json:"connection_id"`
	Origin       uint64       `json:"origin_id"`
	Relationship Relationship `json:"relationship"`
	Message      *string      `json:"message"`
}

// responseMessage is the API's generic response body, used both for
// rejection messages (HTTP 202) and informational payloads.
type responseMessage struct {
	Message string `json:"message"`
}

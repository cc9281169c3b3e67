package billing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Environment names a deployment target with its own API settings.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentStaging     Environment = "staging"
	EnvironmentProduction  Environment = "production"
)

// Environments lists every known environment in display order.
func Environments() []Environment {
	return []Environment{EnvironmentDevelopment, EnvironmentStaging, EnvironmentProduction}
}

// ParseEnvironment validates an environment name.
func ParseEnvironment(name string) (Environment, error) {
	env := Environment(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Environments() {
		if env == known {
			return env, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownEnvironment, name)
}

// ResolveEnvironment parses name, treating an empty name as development.
func ResolveEnvironment(name string) (Environment, error) {
	if strings.TrimSpace(name) == "" {
		return EnvironmentDevelopment, nil
	}

	return ParseEnvironment(name)
}

// String implements fmt.Stringer.
func (e Environment) String() string {
	return string(e)
}

// APIEnvironmentConfig holds the API settings of one environment.
type APIEnvironmentConfig struct {
	BaseURL      string `json:"baseUrl"      yaml:"baseUrl"`
	TimeoutMs    int    `json:"timeout"      yaml:"timeout"`
	ClientID     string `json:"clientId"     yaml:"clientId"`
	ClientSecret string `json:"clientSecret" yaml:"clientSecret"`
}

// Timeout returns the request timeout as a duration.
func (c APIEnvironmentConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// AppConfig is the full per-environment configuration map.
type AppConfig struct {
	API map[Environment]APIEnvironmentConfig `json:"api" yaml:"api"`
}

// APIConfigUpdate is a partial update of an APIEnvironmentConfig.
// Nil fields are left untouched.
type APIConfigUpdate struct {
	BaseURL      *string
	TimeoutMs    *int
	ClientID     *string
	ClientSecret *string
}

// ID is a resource identifier. The API is not consistent about sending ids
// as numbers or strings, so both are accepted.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""

		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string

		err := json.Unmarshal(data, &s)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidID, err)
		}

		*id = ID(s)

		return nil
	}

	var n json.Number

	err := json.Unmarshal(data, &n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidID, err)
	}

	*id = ID(n.String())

	return nil
}

// MarshalJSON implements json.Marshaler. Integer ids are written as numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}

	return json.Marshal(string(id))
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

// Audit holds the bookkeeping fields every resource carries.
type Audit struct {
	CreatedBy     string `json:"created_by"      yaml:"created_by"`
	CreatedAt     string `json:"created_at"      yaml:"created_at"`
	LastUpdate    string `json:"last_update"     yaml:"last_update"`
	LastChangedBy string `json:"last_changed_by" yaml:"last_changed_by"`
}

// Item is a billable catalog entry.
type Item struct {
	ID          ID      `json:"id"          yaml:"id"`
	AltID       string  `json:"alt_id"      yaml:"alt_id"`
	Name        string  `json:"name"        yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	UnitPrice   float64 `json:"unit_price"  yaml:"unit_price"`
	Audit       `yaml:",inline"`
}

// ItemCreateRequest is the payload for creating an item.
type ItemCreateRequest struct {
	Name        string  `json:"name"        yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	UnitPrice   float64 `json:"unit_price"  yaml:"unit_price"`
	CreatedBy   string  `json:"created_by"  yaml:"created_by"`
}

// ItemUpdateRequest is the payload for updating an item.
type ItemUpdateRequest struct {
	Name          *string  `json:"name,omitempty"        yaml:"name,omitempty"`
	Description   *string  `json:"description,omitempty" yaml:"description,omitempty"`
	UnitPrice     *float64 `json:"unit_price,omitempty"  yaml:"unit_price,omitempty"`
	LastChangedBy string   `json:"last_changed_by"       yaml:"last_changed_by"`
}

// Person is a customer or user known to the billing API.
type Person struct {
	ID    ID     `json:"id"     yaml:"id"`
	AltID string `json:"alt_id" yaml:"alt_id"`
	Name  string `json:"name"   yaml:"name"`
	Email string `json:"email"  yaml:"email"`
	Audit `yaml:",inline"`
}

// PersonCreateRequest is the payload for creating a person.
type PersonCreateRequest struct {
	Name      string `json:"name"       yaml:"name"`
	Email     string `json:"email"      yaml:"email"`
	CreatedBy string `json:"created_by" yaml:"created_by"`
}

// PersonUpdateRequest is the payload for updating a person.
type PersonUpdateRequest struct {
	Name          *string `json:"name,omitempty"  yaml:"name,omitempty"`
	Email         *string `json:"email,omitempty" yaml:"email,omitempty"`
	LastChangedBy string  `json:"last_changed_by" yaml:"last_changed_by"`
}

// Invoice is a bill issued to a user.
type Invoice struct {
	ID     ID      `json:"id"      yaml:"id"`
	AltID  string  `json:"alt_id"  yaml:"alt_id"`
	Total  float64 `json:"total"   yaml:"total"`
	Paid   bool    `json:"paid"    yaml:"paid"`
	UserID string  `json:"user_id" yaml:"user_id"`
	Audit  `yaml:",inline"`
}

// InvoiceCreateRequest is the payload for creating an invoice.
type InvoiceCreateRequest struct {
	Total     float64 `json:"total"      yaml:"total"`
	Paid      bool    `json:"paid"       yaml:"paid"`
	UserID    string  `json:"user_id"    yaml:"user_id"`
	CreatedBy string  `json:"created_by" yaml:"created_by"`
}

// InvoiceUpdateRequest is the payload for updating an invoice.
type InvoiceUpdateRequest struct {
	Total         *float64 `json:"total,omitempty"   yaml:"total,omitempty"`
	Paid          *bool    `json:"paid,omitempty"    yaml:"paid,omitempty"`
	UserID        *string  `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	LastChangedBy string   `json:"last_changed_by"   yaml:"last_changed_by"`
}

// InvoiceItem links an item to an invoice.
type InvoiceItem struct {
	InvoiceID ID `json:"invoice_id" yaml:"invoice_id"`
	ItemID    ID `json:"item_id"    yaml:"item_id"`
}

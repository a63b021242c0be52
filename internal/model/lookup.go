package model

// PhoneMetadata is the normalized number-verification result. Nil fields were
// absent from the upstream payload.
type PhoneMetadata struct {
	Valid       *bool   `json:"valid,omitempty" yaml:"valid,omitempty"`
	CountryName *string `json:"country_name,omitempty" yaml:"country_name,omitempty"`
	CountryCode *string `json:"country_code,omitempty" yaml:"country_code,omitempty"`
	Location    *string `json:"location,omitempty" yaml:"location,omitempty"`
	Carrier     *string `json:"carrier,omitempty" yaml:"carrier,omitempty"`
	LineType    *string `json:"line_type,omitempty" yaml:"line_type,omitempty"`
}

// IPStatusSuccess is the only status value that marks a usable IP lookup.
const IPStatusSuccess = "success"

// IPMetadata is the normalized IP geolocation result.
type IPMetadata struct {
	Status      *string `json:"status,omitempty" yaml:"status,omitempty"`
	Message     *string `json:"message,omitempty" yaml:"message,omitempty"`
	Query       *string `json:"query,omitempty" yaml:"query,omitempty"`
	Country     *string `json:"country,omitempty" yaml:"country,omitempty"`
	CountryCode *string `json:"country_code,omitempty" yaml:"country_code,omitempty"`
	City        *string `json:"city,omitempty" yaml:"city,omitempty"`
	Region      *string `json:"region,omitempty" yaml:"region,omitempty"`
	Zip         *string `json:"zip,omitempty" yaml:"zip,omitempty"`
	ISP         *string `json:"isp,omitempty" yaml:"isp,omitempty"`
	Org         *string `json:"org,omitempty" yaml:"org,omitempty"`
}

// Succeeded reports whether the upstream marked the lookup as successful.
func (m IPMetadata) Succeeded() bool {
	return m.Status != nil && *m.Status == IPStatusSuccess
}

// CallerIdentity is the best match returned by the caller-name search.
type CallerIdentity struct {
	Name      *string  `json:"name,omitempty" yaml:"name,omitempty"`
	SpamScore *float64 `json:"spam_score,omitempty" yaml:"spam_score,omitempty"`
}

// CallerStatus records how the chained caller-name lookup ended.
type CallerStatus string

const (
	CallerSkipped  CallerStatus = "skipped"
	CallerResolved CallerStatus = "resolved"
	CallerNotFound CallerStatus = "not_found"
	CallerFailed   CallerStatus = "failed"
)

// CallerLookup pairs the chained lookup status with its identity, if any.
type CallerLookup struct {
	Status   CallerStatus    `json:"status" yaml:"status"`
	Identity *CallerIdentity `json:"identity,omitempty" yaml:"identity,omitempty"`
}

// Resolved reports whether a caller name is available.
func (c *CallerLookup) Resolved() bool {
	return c != nil && c.Status == CallerResolved && c.Identity != nil && c.Identity.Name != nil
}

// Report is the aggregate handed to the formatter. Phone reports carry Phone
// and Caller; IP reports carry IP.
type Report struct {
	Identifier Identifier     `json:"identifier" yaml:"identifier"`
	Phone      *PhoneMetadata `json:"phone,omitempty" yaml:"phone,omitempty"`
	Caller     *CallerLookup  `json:"caller,omitempty" yaml:"caller,omitempty"`
	IP         *IPMetadata    `json:"ip,omitempty" yaml:"ip,omitempty"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

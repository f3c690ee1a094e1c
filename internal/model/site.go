package model

// SiteInfo is the public listing description served to the page.
type SiteInfo struct {
	Domain         string   `json:"domain"`
	Locale         Locale   `json:"locale"`
	Price          string   `json:"price"`
	AskingPrice    string   `json:"askingPrice"`
	Currency       string   `json:"currency"`
	PaymentOptions []string `json:"paymentOptions"`
	ContactEmail   string   `json:"contactEmail"`
	CompanyName    string   `json:"companyName"`
	SiteURL        string   `json:"siteUrl"`
	ChallengeKey   string   `json:"challengeSiteKey,omitempty"`
	Locales        []Locale `json:"locales"`
}

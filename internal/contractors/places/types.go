package places

// SearchQuery describes one contractor lookup.
type SearchQuery struct {
	Trade      string
	Location   string
	MaxResults int
}

type searchTextRequest struct {
	TextQuery      string `json:"textQuery"`
	MaxResultCount int    `json:"maxResultCount,omitempty"`
	RegionCode     string `json:"regionCode,omitempty"`
}

type localizedText struct {
	Text string `json:"text"`
}

type openingHours struct {
	OpenNow bool `json:"openNow"`
}

// place mirrors the relevant parts of a Places API (New) searchText hit.
type place struct {
	DisplayName         localizedText `json:"displayName"`
	FormattedAddress    string        `json:"formattedAddress"`
	Rating              float64       `json:"rating"`
	UserRatingCount     int           `json:"userRatingCount"`
	Types               []string      `json:"types"`
	WebsiteURI          string        `json:"websiteUri"`
	NationalPhoneNumber string        `json:"nationalPhoneNumber"`
	CurrentOpeningHours *openingHours `json:"currentOpeningHours"`
}

type searchTextResponse struct {
	Places []place `json:"places"`
}

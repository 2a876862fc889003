package transport

// SearchContractorsRequest carries the query parameters of a contractor
// directory search. Keyword falls back to the trade when omitted.
type SearchContractorsRequest struct {
	Trade    string `form:"trade" validate:"required,min=2,max=80"`
	Location string `form:"location" validate:"omitempty,max=120"`
	Keyword  string `form:"keyword" validate:"omitempty,max=80"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=10"`
}

type ContractorResponse struct {
	Name            string             `json:"name"`
	Address         string             `json:"address,omitempty"`
	Rating          float64            `json:"rating"`
	ReviewCount     int                `json:"reviewCount"`
	Score           int                `json:"score"`
	ScoreBreakdown  map[string]float64 `json:"scoreBreakdown"`
	QualityVerified bool               `json:"qualityVerified"`
	HasWebsite      bool               `json:"hasWebsite"`
	HasPhone        bool               `json:"hasPhone"`
	IsOpenNow       bool               `json:"isOpenNow"`
}

type SearchContractorsResponse struct {
	Contractors     []ContractorResponse `json:"contractors"`
	TierUsed        string               `json:"tierUsed"`
	QualityVerified bool                 `json:"qualityVerified"`
	CandidateCount  int                  `json:"candidateCount"`
	CacheHit        bool                 `json:"cacheHit"`
}

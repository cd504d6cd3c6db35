package types

type BaseResponse struct {
	DocId string `json:"docId"`
}

type CatalogCode struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Severity string `json:"severity"`
}

type PhraseSection struct {
	Id     int           `json:"id"`
	Phrase string        `json:"phrase"`
	Codes  []CatalogCode `json:"codes"`
}

type ScreenStats struct {
	PhrasesChecked int   `json:"phrasesChecked"`
	PhrasesMatched int   `json:"phrasesMatched"`
	TextLength     int32 `json:"textLength"`
}

type PhraseScreenResponse struct {
	BaseResponse
	Hits  []PhraseSection `json:"hits"`
	Stats *ScreenStats    `json:"stats,omitempty"`
}

type PresenceAuditResponse struct {
	BaseResponse
	Covered bool            `json:"covered"`
	Missing []PhraseSection `json:"missing"`
	Stats   *ScreenStats    `json:"stats,omitempty"`
}

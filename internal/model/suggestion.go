package model

// LocationSuggestion is one autocomplete match for a partial location input.
type LocationSuggestion struct {
	ID                   string               `json:"id"`
	Description          string               `json:"description"`
	StructuredFormatting StructuredFormatting `json:"structured_formatting"`
}

// StructuredFormatting splits a suggestion into its place name and locality.
type StructuredFormatting struct {
	MainText      string `json:"main_text"`
	SecondaryText string `json:"secondary_text"`
}

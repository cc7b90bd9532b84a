package models

// FuelMixRecord is one half-hour interval of national generation mix.
type FuelMixRecord struct {
	From          Timestamp   `json:"from"`
	To            Timestamp   `json:"to"`
	GenerationMix []FuelShare `json:"generationmix"`
}

// FuelMixResponse mirrors the /generation endpoint payload.
type FuelMixResponse struct {
	Data []FuelMixRecord `json:"data"`
}

package domain

// AnalyticsAsset es un activo del request al servicio de analytics.
type AnalyticsAsset struct {
	Symbol string  `json:"symbol"`
	Weight float64 `json:"weight"`
}

// AnalyticsRequest es el body común de /emulate y /markovitz-optimize.
type AnalyticsRequest struct {
	Assets []AnalyticsAsset `json:"assets"`
}

// EncodeAnalyticsRequest proyecta la allocation al request del servicio.
// Cada entrada es un activo (incluso con peso 0), en orden de inserción.
// Un peso sin definir se codifica como 0.
func EncodeAnalyticsRequest(entries []AllocationEntry) AnalyticsRequest {
	assets := make([]AnalyticsAsset, len(entries))
	for i, e := range entries {
		assets[i] = AnalyticsAsset{
			Symbol: e.Pool.TokenSymbol,
			Weight: e.WeightOrZero(),
		}
	}
	return AnalyticsRequest{Assets: assets}
}

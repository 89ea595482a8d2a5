package topics

const (
	// Observações vindas do produtor de partidas simuladas
	MatchObservations = "match_observations"
	OddsObservations  = "odds_observations"
)

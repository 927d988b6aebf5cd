package conversation

// GlobalStatistics are the session-wide sums of every unit's turn statistics,
// plus the question count (one per unit with a user message).
type GlobalStatistics struct {
	Questions    int `json:"questions"`
	Responses    int `json:"responses"`
	ToolsCalled  int `json:"toolsCalled"`
	Assistant    int `json:"assistant"`
	SystemCount  int `json:"systemCount"`
	WebSearches  int `json:"webSearches"`
	Citations    int `json:"citations"`
	Images       int `json:"images"`
	SystemTokens int `json:"systemTokens"`
	UserTokens   int `json:"userTokens"`
}

// Aggregate folds every unit's statistics into session totals.
func Aggregate(units []Unit) GlobalStatistics {
	var g GlobalStatistics
	for _, unit := range units {
		if unit.User != nil {
			g.Questions++
		}
		g.Responses += unit.Statistics.Responses
		g.ToolsCalled += unit.Statistics.ToolsCalled
		g.Assistant += unit.Statistics.Assistant
		g.SystemCount += unit.Statistics.SystemCount
		g.WebSearches += unit.Statistics.WebSearches
		g.Citations += unit.Statistics.Citations
		g.Images += unit.Statistics.Images
		g.SystemTokens += unit.Statistics.SystemTokens
		g.UserTokens += unit.Statistics.UserTokens
	}
	return g
}

package models

// ScoreboardEntry is one row of the points leaderboard
type ScoreboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      int64  `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Balance     int64  `json:"balance"`
	PollsWon    int64  `json:"pollsWon"`
}

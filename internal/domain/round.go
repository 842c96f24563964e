package domain

import "time"

// RoundResult - outcome from the player's side
type RoundResult string

const (
	RoundResultWin  RoundResult = "win"
	RoundResultLoss RoundResult = "loss"
	RoundResultDraw RoundResult = "draw"
)

// RoundMode - how the player move was chosen
type RoundMode string

const (
	RoundModeManual    RoundMode = "manual"
	RoundModeSimulated RoundMode = "simulated"
)

// RoundRecord - one committed round in the archive
type RoundRecord struct {
	ID           int64       `db:"id" json:"id"`
	SessionID    string      `db:"session_id" json:"session_id"`
	Variant      string      `db:"variant" json:"variant"`
	Mode         RoundMode   `db:"mode" json:"mode"`
	Result       RoundResult `db:"result" json:"result"`
	PlayerMove   string      `db:"player_move" json:"player_move"`
	OpponentMove string      `db:"opponent_move" json:"opponent_move"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// RoundStats - aggregate over archived rounds
type RoundStats struct {
	Since       time.Time      `json:"since"`
	TotalRounds int            `json:"total_rounds"`
	Wins        int            `json:"wins"`
	Losses      int            `json:"losses"`
	Draws       int            `json:"draws"`
	MoveCounts  map[string]int `json:"move_counts"`
}

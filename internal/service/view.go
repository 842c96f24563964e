package service

import "rps_webapp/internal/game"

type RoundView struct {
	Outcome game.Outcome `json:"outcome"`
	Result  string       `json:"result"`
	Label   string       `json:"label"`
	Moves   [2]string    `json:"moves"`
}

type ScoreView struct {
	Player   int `json:"player"`
	Opponent int `json:"opponent"`
}

// StateView is what the presentation layer renders after every transition
type StateView struct {
	RoundsPlayed int         `json:"rounds_played"`
	Animating    bool        `json:"animating"`
	CanPlay      bool        `json:"can_play"`
	CanReset     bool        `json:"can_reset"`
	Scores       ScoreView   `json:"scores"`
	History      []RoundView `json:"history"`
}

func NewStateView(st game.State, translate game.TranslateFunc) StateView {
	if translate == nil {
		translate = game.DefaultTranslate
	}

	history := make([]RoundView, 0, len(st.History))
	for _, r := range st.History {
		history = append(history, RoundView{
			Outcome: r.Outcome,
			Result:  r.Outcome.String(),
			Label:   translate(r.Outcome),
			Moves:   r.Moves,
		})
	}

	return StateView{
		RoundsPlayed: len(st.History),
		Animating:    st.Animating,
		CanPlay:      !st.Animating,
		CanReset:     !st.Animating && len(st.History) > 0,
		Scores: ScoreView{
			Player:   st.Score(game.PlayerIndex),
			Opponent: st.Score(game.OpponentIndex),
		},
		History: history,
	}
}

// View renders st with the service's wording
func (s *SessionService) View(st game.State) StateView {
	return NewStateView(st, s.Translate)
}

package server

// Outbound event names, matching what connected clients listen for.
const (
	evtSessionCreated = "sessionCreated"
	evtSessionJoined  = "sessionJoined"
	evtSessionLeft    = "sessionLeft"
	evtSessionDeleted = "sessionDeleted"
	evtUpdatePlayers  = "updatePlayers"
	evtQuestionSet    = "questionSet"
	evtGameStarted    = "gameStarted"
	evtGuessResult    = "guessResult"
	evtGameEnded      = "gameEnded"
	evtNewGameMaster  = "newGameMaster"
	evtMessage        = "message"
	evtError          = "error"
)

type playerInfo struct {
	ConnectionID string `json:"connectionId"`
	Name         string `json:"name"`
	Score        int    `json:"score"`
	Attempts     int    `json:"attempts"`
}

type sessionAckPayload struct {
	SessionID  string `json:"sessionId"`
	PlayerName string `json:"playerName"`
}

type updatePlayersPayload struct {
	Players     []playerInfo `json:"players"`
	PlayerCount int          `json:"playerCount"`
}

type questionSetPayload struct {
	Question string `json:"question"`
}

type gameStartedPayload struct {
	Question string `json:"question"`
}

type guessResultPayload struct {
	IsCorrect    bool `json:"isCorrect"`
	AttemptsLeft int  `json:"attemptsLeft"`
}

type gameEndedPayload struct {
	Winner  *string      `json:"winner"`
	Answer  string       `json:"answer"`
	Players []playerInfo `json:"players"`
}

type newGameMasterPayload struct {
	GameMaster string       `json:"gameMaster"`
	Players    []playerInfo `json:"players"`
}

type messagePayload struct {
	Content string `json:"content"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func playersPayload(sess *Session) updatePlayersPayload {
	return updatePlayersPayload{
		Players:     playerInfos(sess.Players),
		PlayerCount: len(sess.Players),
	}
}

func playerInfos(players []Player) []playerInfo {
	infos := make([]playerInfo, 0, len(players))
	for _, p := range players {
		infos = append(infos, playerInfo{
			ConnectionID: p.ConnectionID,
			Name:         p.Name,
			Score:        p.Score,
			Attempts:     p.Attempts,
		})
	}
	return infos
}

// EventPayload is the durable event log payload shape.
type EventPayload struct {
	SessionID  string `json:"session_id,omitempty"`
	PlayerName string `json:"player,omitempty"`
	Question   string `json:"question,omitempty"`
	Winner     string `json:"winner,omitempty"`
	Status     string `json:"status,omitempty"`
	GameMaster string `json:"game_master,omitempty"`
	Count      int    `json:"count,omitempty"`
}

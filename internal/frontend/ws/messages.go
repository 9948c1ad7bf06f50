// Package ws serves battles to browser clients as JSON over a WebSocket.
package ws

import (
	"time"

	"github.com/cory-johannsen/tallgrass/internal/game/combat"
	"github.com/cory-johannsen/tallgrass/internal/game/history"
	"github.com/cory-johannsen/tallgrass/internal/game/session"
)

// Client message types.
const (
	TypeHello   = "hello"
	TypeExplore = "explore"
	TypeInput   = "input"
	TypeAction  = "action"
	TypeMove    = "move"
	TypeStatus  = "status"
	TypeRecords = "records"
)

// Server-only message types. Battle events use combat.EventKind names.
const (
	TypeWelcome = "welcome"
	TypeView    = "view"
	TypeError   = "error"
	TypeTrainer = "trainer"
)

// ClientMessage is one request from the browser.
type ClientMessage struct {
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
	Partner string `json:"partner,omitempty"`
	Table   string `json:"table,omitempty"`
	Input   string `json:"input,omitempty"`
	Action  string `json:"action,omitempty"`
	// Index is the 0-based move slot.
	Index int `json:"index"`
}

// TrainerInfo is the trainer card sent on welcome and status.
type TrainerInfo struct {
	Name    string `json:"name"`
	Partner string `json:"partner"`
	Mode    string `json:"mode"`
	Wins    int    `json:"wins"`
	Losses  int    `json:"losses"`
}

func trainerInfo(s session.TrainerSession) *TrainerInfo {
	return &TrainerInfo{
		Name:    s.Name,
		Partner: s.Partner,
		Mode:    s.Mode.String(),
		Wins:    s.Wins,
		Losses:  s.Losses,
	}
}

// ExploreInfo reports a walk through the grass.
type ExploreInfo struct {
	Steps       int    `json:"steps"`
	Encountered bool   `json:"encountered"`
	Species     string `json:"species,omitempty"`
	Level       int    `json:"level,omitempty"`
}

// RecordInfo is one finished battle.
type RecordInfo struct {
	PlayerSpecies string    `json:"player_species"`
	PlayerLevel   int       `json:"player_level"`
	EnemySpecies  string    `json:"enemy_species"`
	EnemyLevel    int       `json:"enemy_level"`
	PlayerWon     bool      `json:"player_won"`
	Turns         int       `json:"turns"`
	FinishedAt    time.Time `json:"finished_at"`
}

func recordInfos(recs []history.Record) []RecordInfo {
	out := make([]RecordInfo, len(recs))
	for i, r := range recs {
		out[i] = RecordInfo{
			PlayerSpecies: r.PlayerSpecies,
			PlayerLevel:   r.PlayerLevel,
			EnemySpecies:  r.EnemySpecies,
			EnemyLevel:    r.EnemyLevel,
			PlayerWon:     r.PlayerWon,
			Turns:         r.Turns,
			FinishedAt:    r.FinishedAt,
		}
	}
	return out
}

// ServerMessage is one message to the browser. Only the fields relevant to
// Type are set.
type ServerMessage struct {
	Type      string       `json:"type"`
	Text      string       `json:"text,omitempty"`
	Side      string       `json:"side,omitempty"`
	HP        *int         `json:"hp,omitempty"`
	MaxHP     *int         `json:"max_hp,omitempty"`
	State     combat.State `json:"state,omitempty"`
	PlayerWon *bool        `json:"player_won,omitempty"`
	View      *combat.View `json:"view,omitempty"`
	Trainer   *TrainerInfo `json:"trainer,omitempty"`
	Explore   *ExploreInfo `json:"explore,omitempty"`
	Records   []RecordInfo `json:"records,omitempty"`
	Tables    []string     `json:"tables,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// eventMessage converts a battle event to its wire form.
func eventMessage(ev combat.Event) ServerMessage {
	msg := ServerMessage{Type: ev.Kind.String()}
	switch ev.Kind {
	case combat.EventNarration:
		msg.Text = ev.Text
	case combat.EventHP:
		hp, maxHP := ev.HP, ev.MaxHP
		msg.Side = ev.Side.String()
		msg.HP, msg.MaxHP = &hp, &maxHP
	case combat.EventState:
		msg.State = ev.State
	case combat.EventBattleOver:
		won := ev.PlayerWon
		msg.PlayerWon = &won
	}
	return msg
}

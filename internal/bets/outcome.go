package bets

import (
	"math"

	"github.com/footysim/bet-engine/internal/matches"
	"github.com/footysim/bet-engine/internal/odds"
)

// Lado apostado.
const (
	SideHome = "HOME"
	SideDraw = "DRAW"
	SideAway = "AWAY"
)

// Status da aposta. Depois de sair de PENDING o status é terminal.
// PUSH existe no modelo pra extensões (partida anulada etc.); a regra
// base nunca produz PUSH.
const (
	StatusPending = "PENDING"
	StatusWon     = "WON"
	StatusLost    = "LOST"
	StatusPush    = "PUSH"
)

// ValidSide diz se o lado é um dos três aceitos.
func ValidSide(side string) bool {
	return side == SideHome || side == SideDraw || side == SideAway
}

// Outcome resolve o desfecho da aposta a partir do resultado da partida:
// o lado apostado ganha sse coincide com o resultado.
func Outcome(side, result string) string {
	switch {
	case side == SideHome && result == matches.ResultHomeWin:
		return StatusWon
	case side == SideAway && result == matches.ResultAwayWin:
		return StatusWon
	case side == SideDraw && result == matches.ResultDraw:
		return StatusWon
	default:
		return StatusLost
	}
}

// PotentialPayoutCents congela o retorno possível na colocação:
// stake * odds, arredondado pro centavo.
func PotentialPayoutCents(stakeCents int64, oddsTaken float64) int64 {
	return int64(math.Round(float64(stakeCents) * oddsTaken))
}

// SettlementAmounts devolve pagamento efetivo e resultado da aposta.
// WON paga o potencial congelado; LOST paga zero; PUSH devolve a stake.
func SettlementAmounts(status string, stakeCents, potentialCents int64) (payoutCents, profitLossCents int64) {
	switch status {
	case StatusWon:
		return potentialCents, potentialCents - stakeCents
	case StatusPush:
		return stakeCents, 0
	default:
		return 0, -stakeCents
	}
}

// OddsForSide extrai do snapshot a odd do lado apostado (nil se a fonte
// não publicou esse lado).
func OddsForSide(s *odds.Snapshot, side string) *float64 {
	if s == nil {
		return nil
	}
	switch side {
	case SideHome:
		return s.HomeOdds
	case SideDraw:
		return s.DrawOdds
	case SideAway:
		return s.AwayOdds
	default:
		return nil
	}
}

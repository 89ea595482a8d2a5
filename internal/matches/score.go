package matches

import (
	"strconv"
	"strings"
)

// ParseScore interpreta um placar "H:A" vindo da observação.
// Lado que não parsear como inteiro vira 0: a fonte é texto raspado e
// ruidoso, então degradar pra zero é política, não erro.
func ParseScore(s string) (home, away int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	home = parseSide(parts[0])
	away = parseSide(parts[1])
	return home, away
}

func parseSide(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// DeriveResult aplica a regra de resultado sobre o placar.
func DeriveResult(home, away int) string {
	switch {
	case home > away:
		return ResultHomeWin
	case away > home:
		return ResultAwayWin
	default:
		return ResultDraw
	}
}

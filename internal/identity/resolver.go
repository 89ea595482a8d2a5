package identity

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Resolver mapeia nomes brutos de fases e times (texto observado na fonte)
// para ids internos estáveis, criando a entidade na primeira observação.
type Resolver struct{ db *sql.DB }

func NewResolver(db *sql.DB) *Resolver { return &Resolver{db: db} }

// Normalize aplica trim + case-fold. Toda busca por nome no sistema passa
// por aqui, pra "Team A" e "team a" nunca virarem entidades distintas.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ResolveStage retorna o id da fase com esse nome, criando se não existir.
// Idempotente: o mesmo nome normalizado sempre resolve pro mesmo id.
func (r *Resolver) ResolveStage(ctx context.Context, name string) (string, error) {
	return r.resolve(ctx, "stages", name)
}

// ResolveTeam retorna o id do time com esse nome, criando se não existir.
func (r *Resolver) ResolveTeam(ctx context.Context, name string) (string, error) {
	return r.resolve(ctx, "teams", name)
}

// resolve faz o upsert por nome normalizado. ON CONFLICT DO NOTHING +
// re-select garante convergência quando duas primeiras observações do
// mesmo nome chegam concorrentes.
func (r *Resolver) resolve(ctx context.Context, table, name string) (string, error) {
	norm := Normalize(name)

	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM `+table+` WHERE name=$1`, norm).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("lookup %s %q: %w", table, norm, err)
	}

	newID := uuid.NewString()
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO `+table+`(id, name) VALUES($1,$2) ON CONFLICT (name) DO NOTHING`,
		newID, norm); err != nil {
		return "", fmt.Errorf("insert %s %q: %w", table, norm, err)
	}

	if err := r.db.QueryRowContext(ctx,
		`SELECT id FROM `+table+` WHERE name=$1`, norm).Scan(&id); err != nil {
		return "", fmt.Errorf("reselect %s %q: %w", table, norm, err)
	}
	return id, nil
}

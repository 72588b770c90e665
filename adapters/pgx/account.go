package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/lborres/abaccess/core"
)

const accountColumns = `id, phone, member_id, first_name, last_name, nin, pin_hash, avatar, created_at, updated_at`

func (a *Adapter) CreateAccount(ctx context.Context, acc *core.Account) error {
	query := `INSERT INTO public.accounts (id, phone, member_id, first_name, last_name, nin, pin_hash, avatar)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING created_at, updated_at`

	err := a.db.QueryRow(ctx, query,
		acc.ID, acc.Phone, acc.MemberID, acc.FirstName, acc.LastName, acc.NIN, acc.PinHash, acc.Avatar,
	).Scan(&acc.CreatedAt, &acc.UpdatedAt)

	return mapUniqueViolation(err)
}

func (a *Adapter) GetAccountByID(ctx context.Context, id string) (*core.Account, error) {
	return a.getAccount(ctx, `SELECT `+accountColumns+` FROM public.accounts WHERE id = $1`, id)
}

func (a *Adapter) GetAccountByPhone(ctx context.Context, phone string) (*core.Account, error) {
	return a.getAccount(ctx, `SELECT `+accountColumns+` FROM public.accounts WHERE phone = $1`, phone)
}

func (a *Adapter) getAccount(ctx context.Context, query string, arg string) (*core.Account, error) {
	acc := &core.Account{}
	err := a.db.QueryRow(ctx, query, arg).Scan(
		&acc.ID, &acc.Phone, &acc.MemberID, &acc.FirstName, &acc.LastName,
		&acc.NIN, &acc.PinHash, &acc.Avatar, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

func (a *Adapter) UpdatePinHash(ctx context.Context, id, pinHash string) error {
	tag, err := a.db.Exec(ctx,
		`UPDATE public.accounts SET pin_hash = $1, updated_at = now() WHERE id = $2`,
		pinHash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

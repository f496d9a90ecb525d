package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/kitchenops/ledger/entry"
	"github.com/kitchenops/ledger/types"
)

type entryModel struct {
	grove.BaseModel `grove:"table:ledger_entries"`

	ID            int64     `grove:"id,pk"`
	AccountID     string    `grove:"account_id"`
	Kind          string    `grove:"kind"`
	Amount        int64     `grove:"amount"`
	Currency      string    `grove:"currency"`
	BalanceAfter  int64     `grove:"balance_after"`
	ReferenceType string    `grove:"reference_type"`
	ReferenceID   string    `grove:"reference_id"`
	Note          string    `grove:"note"`
	CreatedBy     string    `grove:"created_by"`
	CreatedAt     time.Time `grove:"created_at"`
}

func toEntryModel(e *entry.Entry) *entryModel {
	m := &entryModel{
		ID:           e.ID,
		AccountID:    e.AccountID,
		Kind:         string(e.Kind),
		Amount:       e.Amount.Amount,
		Currency:     e.Amount.Currency,
		BalanceAfter: e.BalanceAfter.Amount,
		Note:         e.Note,
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt,
	}
	if e.Reference != nil {
		m.ReferenceType = e.Reference.Type
		m.ReferenceID = e.Reference.ID
	}
	return m
}

func fromEntryModel(m *entryModel) *entry.Entry {
	e := &entry.Entry{
		ID:           m.ID,
		AccountID:    m.AccountID,
		Kind:         entry.Kind(m.Kind),
		Amount:       types.Money{Amount: m.Amount, Currency: m.Currency},
		BalanceAfter: types.Money{Amount: m.BalanceAfter, Currency: m.Currency},
		Note:         m.Note,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
	}
	if m.ReferenceType != "" {
		e.Reference = &entry.Reference{Type: m.ReferenceType, ID: m.ReferenceID}
	}
	return e
}

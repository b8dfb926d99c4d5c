package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidID     = errors.New("invalid_id")
	ErrFormNotFound  = errors.New("form_not_found")
	ErrEntryNotFound = errors.New("entry_not_found")
	ErrInvalidForm   = errors.New("invalid_form")
)

// PaymentUpdate carries the payment columns to change. Zero values are left untouched.
type PaymentUpdate struct {
	TransactionID   string
	TransactionType TransactionType
	Status          PaymentStatus
	Amount          *float64
	Method          string
	PaymentDate     *time.Time
	IsFulfilled     *bool
}

type Service interface {
	CreateForm(ctx context.Context, form Form) (Form, error)
	GetForm(ctx context.Context, id snowflake.ID) (*Form, error)

	CreateEntry(ctx context.Context, entry Entry) (Entry, error)
	GetEntry(ctx context.Context, id snowflake.ID) (*Entry, error)
	UpdatePayment(ctx context.Context, id snowflake.ID, update PaymentUpdate) (*Entry, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*Entry, error)

	GetMeta(ctx context.Context, entryID snowflake.ID, key string) (string, error)
	SetMeta(ctx context.Context, entryID snowflake.ID, key, value string) error

	AddNote(ctx context.Context, entryID snowflake.ID, noteType NoteType, body string) error
	ListNotes(ctx context.Context, entryID snowflake.ID) ([]EntryNote, error)

	Notify(ctx context.Context, entry *Entry, event string)
}

// Notifier delivers the notifications a form configures for an event.
type Notifier interface {
	Notify(ctx context.Context, form *Form, entry *Entry, event string) error
}

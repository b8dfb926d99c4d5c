package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/formpay/internal/clock"
	"github.com/smallbiznis/formpay/internal/currency"
	"github.com/smallbiznis/formpay/internal/entry/domain"
	"github.com/smallbiznis/formpay/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Notifier domain.Notifier   `optional:"true"`
	Locker   *ratelimit.Locker `optional:"true"`
	Clock    clock.Clock       `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	notifier domain.Notifier
	locker   *ratelimit.Locker
	clock    clock.Clock
}

func New(p Params) *Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("entry.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		notifier: p.Notifier,
		locker:   p.Locker,
		clock:    clk,
	}
}

func (s *Service) CreateForm(ctx context.Context, form domain.Form) (domain.Form, error) {
	form.Title = strings.TrimSpace(form.Title)
	form.Currency = currency.Normalize(form.Currency)
	if err := form.Validate(); err != nil {
		return domain.Form{}, err
	}

	now := s.clock.Now().UTC()
	form.ID = s.genID.Generate()
	form.CreatedAt = now
	form.UpdatedAt = now
	if form.Notifications == nil {
		form.Notifications = []domain.Notification{}
	}

	if err := s.repo.InsertForm(ctx, s.db, &form); err != nil {
		return domain.Form{}, err
	}
	s.log.Info("form created", zap.String("form_id", form.ID.String()), zap.String("currency", form.Currency))
	return form, nil
}

func (s *Service) GetForm(ctx context.Context, id snowflake.ID) (*domain.Form, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}
	form, err := s.repo.FindFormByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, domain.ErrFormNotFound
	}
	return form, nil
}

func (s *Service) CreateEntry(ctx context.Context, entry domain.Entry) (domain.Entry, error) {
	if entry.FormID == 0 {
		return domain.Entry{}, domain.ErrInvalidID
	}
	now := s.clock.Now().UTC()
	entry.ID = s.genID.Generate()
	entry.Currency = currency.Normalize(entry.Currency)
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.Values == nil {
		entry.Values = map[string]any{}
	}
	if entry.PaymentStatus == "" {
		entry.PaymentStatus = domain.PaymentStatusProcessing
	}

	if err := s.repo.InsertEntry(ctx, s.db, &entry); err != nil {
		return domain.Entry{}, err
	}
	return entry, nil
}

func (s *Service) GetEntry(ctx context.Context, id snowflake.ID) (*domain.Entry, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}
	entry, err := s.repo.FindEntryByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrEntryNotFound
	}
	return entry, nil
}

func (s *Service) UpdatePayment(ctx context.Context, id snowflake.ID, update domain.PaymentUpdate) (*domain.Entry, error) {
	var updated *domain.Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.updatePayment(ctx, tx, id, update)
		if err != nil {
			return err
		}
		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) updatePayment(ctx context.Context, tx *gorm.DB, id snowflake.ID, update domain.PaymentUpdate) (*domain.Entry, error) {
	entry, err := s.repo.FindEntryByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrEntryNotFound
	}

	if update.TransactionID != "" {
		entry.TransactionID = update.TransactionID
	}
	if update.TransactionType != "" {
		entry.TransactionType = update.TransactionType
	}
	if update.Status != "" {
		entry.PaymentStatus = update.Status
	}
	if update.Amount != nil {
		entry.PaymentAmount = *update.Amount
	}
	if update.Method != "" {
		entry.PaymentMethod = update.Method
	}
	if update.PaymentDate != nil {
		paid := update.PaymentDate.UTC()
		entry.PaymentDate = &paid
	}
	if update.IsFulfilled != nil {
		entry.IsFulfilled = *update.IsFulfilled
	}
	entry.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.UpdateEntryPayment(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Entry, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, nil
	}
	return s.repo.FindEntryByTransactionID(ctx, s.db, transactionID)
}

func (s *Service) GetMeta(ctx context.Context, entryID snowflake.ID, key string) (string, error) {
	meta, err := s.repo.FindMeta(ctx, s.db, entryID, key)
	if err != nil {
		return "", err
	}
	if meta == nil {
		return "", nil
	}
	return meta.MetaValue, nil
}

func (s *Service) SetMeta(ctx context.Context, entryID snowflake.ID, key, value string) error {
	if entryID == 0 {
		return domain.ErrInvalidID
	}
	return s.repo.UpsertMeta(ctx, s.db, &domain.EntryMeta{
		EntryID:   entryID,
		MetaKey:   key,
		MetaValue: value,
		UpdatedAt: s.clock.Now().UTC(),
	})
}

func (s *Service) AddNote(ctx context.Context, entryID snowflake.ID, noteType domain.NoteType, body string) error {
	return s.addNote(ctx, s.db, entryID, noteType, body)
}

func (s *Service) addNote(ctx context.Context, db *gorm.DB, entryID snowflake.ID, noteType domain.NoteType, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}
	return s.repo.InsertNote(ctx, db, &domain.EntryNote{
		ID:        s.genID.Generate(),
		EntryID:   entryID,
		NoteType:  noteType,
		Body:      body,
		CreatedAt: s.clock.Now().UTC(),
	})
}

func (s *Service) ListNotes(ctx context.Context, entryID snowflake.ID) ([]domain.EntryNote, error) {
	return s.repo.ListNotes(ctx, s.db, entryID)
}

// Notify sends the form's notifications for event. Delivery failures are logged.
func (s *Service) Notify(ctx context.Context, entry *domain.Entry, event string) {
	if s.notifier == nil || entry == nil {
		return
	}
	form, err := s.repo.FindFormByID(ctx, s.db, entry.FormID)
	if err != nil || form == nil {
		s.log.Warn("form lookup failed for notification", zap.String("entry_id", entry.ID.String()), zap.Error(err))
		return
	}
	if err := s.notifier.Notify(ctx, form, entry, event); err != nil {
		s.log.Warn("notification failed",
			zap.String("entry_id", entry.ID.String()),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

func ptr[T any](v T) *T { return &v }


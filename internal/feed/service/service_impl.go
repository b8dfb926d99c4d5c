package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/formpay/internal/clock"
	"github.com/smallbiznis/formpay/internal/feed/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("feed.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: clk,
	}
}

func (s *Service) Create(ctx context.Context, feed domain.Feed) (domain.Feed, error) {
	feed.Name = strings.TrimSpace(feed.Name)
	feed.PaymentAmountField = strings.TrimSpace(feed.PaymentAmountField)
	if err := feed.Validate(); err != nil {
		return domain.Feed{}, err
	}

	now := s.clock.Now().UTC()
	feed.ID = s.genID.Generate()
	feed.CreatedAt = now
	feed.UpdatedAt = now

	record, err := feed.ToRecord()
	if err != nil {
		return domain.Feed{}, err
	}
	if err := s.repo.Insert(ctx, s.db, &record); err != nil {
		return domain.Feed{}, err
	}

	s.log.Info("feed created",
		zap.String("feed_id", feed.ID.String()),
		zap.String("form_id", feed.FormID.String()),
		zap.String("transaction_type", string(feed.TransactionType)),
	)
	return feed, nil
}

func (s *Service) Update(ctx context.Context, feed domain.Feed) (domain.Feed, error) {
	if feed.ID == 0 {
		return domain.Feed{}, domain.ErrInvalidID
	}
	existing, err := s.Get(ctx, feed.ID)
	if err != nil {
		return domain.Feed{}, err
	}

	feed.FormID = existing.FormID
	feed.CreatedAt = existing.CreatedAt
	feed.Name = strings.TrimSpace(feed.Name)
	if err := feed.Validate(); err != nil {
		return domain.Feed{}, err
	}
	feed.UpdatedAt = s.clock.Now().UTC()

	record, err := feed.ToRecord()
	if err != nil {
		return domain.Feed{}, err
	}
	if err := s.repo.Update(ctx, s.db, &record); err != nil {
		return domain.Feed{}, err
	}
	return feed, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Feed, error) {
	if id == 0 {
		return domain.Feed{}, domain.ErrInvalidID
	}
	record, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Feed{}, err
	}
	if record == nil {
		return domain.Feed{}, domain.ErrNotFound
	}
	return domain.FeedFromRecord(*record)
}

func (s *Service) ActiveForForm(ctx context.Context, formID snowflake.ID) (domain.Feed, error) {
	record, err := s.repo.FindActiveByFormID(ctx, s.db, formID)
	if err != nil {
		return domain.Feed{}, err
	}
	if record == nil {
		return domain.Feed{}, domain.ErrNoActiveFeed
	}
	return domain.FeedFromRecord(*record)
}

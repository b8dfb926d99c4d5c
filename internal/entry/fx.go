package entry

import (
	"github.com/smallbiznis/formpay/internal/entry/domain"
	"github.com/smallbiznis/formpay/internal/entry/repository"
	"github.com/smallbiznis/formpay/internal/entry/service"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("entry.service",
	fx.Provide(repository.Provide),
	fx.Provide(
		fx.Annotate(
			service.New,
			fx.As(
				new(domain.Service),
				new(paymentdomain.EntryStore),
				new(paymentdomain.ActionApplier),
			),
		),
	),
)

package notification

import (
	"github.com/smallbiznis/formpay/internal/providers/email"
	"go.uber.org/fx"
)

var Module = fx.Module("notification",
	email.Module,
	fx.Provide(New),
)

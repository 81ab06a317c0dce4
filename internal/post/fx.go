package post

import (
	"github.com/smallbiznis/inkpost/internal/post/repository"
	"github.com/smallbiznis/inkpost/internal/post/service"
	"go.uber.org/fx"
)

var Module = fx.Module("post.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
